package main

import (
	"github.com/spf13/cobra"

	"chameneos/report"
	"chameneos/store"
)

func listHistory(cmd *cobra.Command, path string, limit int, asJSON bool) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	reports, err := st.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if asJSON {
		return printReports(cmd.OutOrStdout(), reports, true)
	}
	for _, r := range reports {
		if err := report.WriteSummary(cmd.OutOrStdout(), r); err != nil {
			return err
		}
	}
	return nil
}

func showRun(cmd *cobra.Command, path, id string, asJSON bool) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	r, err := st.Load(cmd.Context(), id)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if asJSON {
		return printReports(out, []*report.Report{r}, true)
	}
	if err := report.WriteSummary(out, r); err != nil {
		return err
	}
	return report.WriteGroup(out, r)
}
