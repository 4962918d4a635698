package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aluiziolira/go-scrape-hyrox/parser"
)

// Print writes the season table followed by the per-event best times.
func Print(w io.Writer, entries []Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "SEASON\tFINISHERS\tBEST\tMEDIAN\tMEAN")
	for _, s := range BySeason(entries) {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			s.Season,
			s.Finishers,
			parser.FormatSeconds(float64(s.Best)),
			parser.FormatSeconds(s.Median),
			parser.FormatSeconds(s.Mean),
		)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "EVENT\tYEAR\tBEST")
	for _, e := range BestPerEvent(entries) {
		year := "-"
		if e.Year > 0 {
			year = fmt.Sprint(e.Year)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Label(), year, parser.FormatSeconds(float64(e.Best)))
	}
	return tw.Flush()
}
