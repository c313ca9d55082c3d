package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"chameneos/config"
	"chameneos/logging"
	"chameneos/report"
)

// defaultStorePath is used by history and show when no store is configured.
const defaultStorePath = "chameneos.db"

type rootOptions struct {
	configPath string
	logLevel   string
	storePath  string
	json       bool
}

type runOptions struct {
	colors      []string
	strategy    string
	tap         int
	pin         bool
	noGC        bool
	metricsAddr string
}

func newRootCmd() *cobra.Command {
	root := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "chameneos",
		Short:         "Lock-free chameneos rendezvous benchmark",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&root.configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&root.logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&root.storePath, "store", "", "SQLite file for run history")
	rootCmd.PersistentFlags().BoolVar(&root.json, "json", false, "print reports as JSON")

	rootCmd.AddCommand(
		newRunCmd(root),
		newTableCmd(),
		newHistoryCmd(root),
		newShowCmd(root),
	)
	return rootCmd
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run [meetings]",
		Short: "Run every configured actor group and print the benchmark report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, root, opts, args)
			if err != nil {
				return err
			}
			return runBenchmark(cmd, cfg, root.json, opts.noGC)
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&opts.colors, "colors", nil, "comma separated seed colors of one group; repeat for more groups")
	f.StringVar(&opts.strategy, "strategy", "", "lockfree or locked")
	f.IntVar(&opts.tap, "tap", 0, "per-worker meeting tap capacity (0 disables)")
	f.BoolVar(&opts.pin, "pin", false, "pin worker threads to CPUs")
	f.BoolVar(&opts.noGC, "no-gc", false, "disable the garbage collector while groups run")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /metrics here after the runs until interrupted")
	return cmd
}

func newTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Print the color complement table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return report.WriteTable(cmd.OutOrStdout())
		},
	}
}

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listHistory(cmd, storePath(root), limit, root.json)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list (0 for all)")
	return cmd
}

func newShowCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print one stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showRun(cmd, storePath(root), args[0], root.json)
		},
	}
}

// resolveConfig layers defaults, file, environment, then explicitly set flags.
func resolveConfig(cmd *cobra.Command, root *rootOptions, opts *runOptions, args []string) (config.Config, error) {
	cfg, err := config.Load(root.configPath)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}

	if len(args) == 1 {
		n, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("meetings %q: %w", args[0], err)
		}
		cfg.Meetings = n
	}
	flags := cmd.Flags()
	if flags.Changed("colors") {
		cfg.Groups = nil
		for i, list := range opts.colors {
			cfg.Groups = append(cfg.Groups, config.Group{
				Name:   "custom-" + strconv.Itoa(i+1),
				Colors: strings.Split(list, ","),
			})
		}
	}
	if flags.Changed("strategy") {
		cfg.Strategy = opts.strategy
	}
	if flags.Changed("tap") {
		cfg.TapCapacity = opts.tap
	}
	if flags.Changed("pin") {
		cfg.Pin = opts.pin
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = opts.metricsAddr
		if cfg.MetricsAddr != "" {
			cfg.Telemetry.MetricExporter = "prometheus"
		}
	}
	if root.logLevel != "" {
		cfg.Log.Level = root.logLevel
	}
	if root.storePath != "" {
		cfg.StorePath = root.storePath
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func storePath(root *rootOptions) string {
	if root.storePath != "" {
		return root.storePath
	}
	cfg, err := config.Load(root.configPath)
	if err == nil {
		if err := cfg.ApplyEnv(); err != nil {
			logging.DropError("CONFIG", err)
		}
		if cfg.StorePath != "" {
			return cfg.StorePath
		}
	} else {
		logging.DropError("CONFIG", err)
	}
	return defaultStorePath
}
