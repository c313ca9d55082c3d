package report

import (
	"bufio"
	"io"
	"strconv"

	"chameneos/color"
	"chameneos/utils"
)

// WriteTable prints the nine complement lines, "blue + red -> yellow" style.
func WriteTable(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, l := range color.Table() {
		bw.WriteString(l.String())
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteGroup prints one run in the classic layout: a blank line, the seed
// colors each prefixed by a space, one "<meetings><spelled same>" line per
// actor, and the spelled total of all meeting counts.
func WriteGroup(w io.Writer, r *Report) error {
	bw := bufio.NewWriter(w)
	bw.WriteByte('\n')
	for _, name := range r.Seeds {
		bw.WriteByte(' ')
		bw.WriteString(name)
	}
	bw.WriteByte('\n')
	for _, c := range r.Counts {
		bw.WriteString(strconv.FormatUint(c.Meetings, 10))
		bw.WriteString(utils.Spell(c.Same))
		bw.WriteByte('\n')
	}
	bw.WriteString(utils.Spell(r.TotalMeets()))
	bw.WriteByte('\n')
	return bw.Flush()
}

// WriteBenchmark prints the table followed by every group and a final blank
// line.
func WriteBenchmark(w io.Writer, reports []*Report) error {
	if err := WriteTable(w); err != nil {
		return err
	}
	for _, r := range reports {
		if err := WriteGroup(w, r); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteSummary prints a one-line human summary of a stored report.
func WriteSummary(w io.Writer, r *Report) error {
	_, err := io.WriteString(w, r.ID+"  "+r.StartedAt.Format("2006-01-02 15:04:05")+"  "+
		r.Group+"  "+r.Strategy+"  actors="+utils.Itoa(len(r.Counts))+
		"  meetings="+strconv.FormatUint(r.Meetings, 10)+"  elapsed="+r.Elapsed().String()+"\n")
	return err
}
