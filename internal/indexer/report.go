package indexer

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteReport prints the statistics of every analysis stage of res, then
// those of the finished index, in human-readable form.
func WriteReport(w io.Writer, res *Result) error {
	for _, st := range res.Stages {
		if err := writeStage(w, st); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, "Index:"); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Documents processed:\t%d\n", res.Stats.Documents)
	fmt.Fprintf(tw, "  Distinct terms:\t%d\n", res.Stats.Terms)
	fmt.Fprintf(tw, "  Total tokens:\t%d\n", res.TotalTokens)
	fmt.Fprintf(tw, "  Token average per document:\t%.2f\n", res.AverageTokens())
	fmt.Fprintf(tw, "  Most extensive document:\t'%s' with %d tokens\n", res.Stats.Longest.ID, res.Stats.Longest.Tokens)
	fmt.Fprintf(tw, "  Least extensive document:\t'%s' with %d tokens\n", res.Stats.Shortest.ID, res.Stats.Shortest.Tokens)
	fmt.Fprintf(tw, "  Elapsed:\t%.3fs\n", res.Elapsed.Seconds())
	return tw.Flush()
}

func writeStage(w io.Writer, st StageStats) error {
	if _, err := fmt.Fprintf(w, "After %s:\n", st.Name); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Total tokens:\t%d\n", st.Tokens)
	fmt.Fprintf(tw, "  Token average per document:\t%.2f\n", st.Average)
	fmt.Fprintf(tw, "  Maximum tokens:\t%d ('%s')\n", st.Longest.Tokens, st.Longest.ID)
	fmt.Fprintf(tw, "  Minimum tokens:\t%d ('%s')\n", st.Shortest.Tokens, st.Shortest.ID)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(st.TopWords) > 0 {
		if _, err := fmt.Fprintf(w, "  Top %d words:\n", len(st.TopWords)); err != nil {
			return err
		}
		for _, p := range st.TopWords {
			if _, err := fmt.Fprintf(w, "    %s: %.0f times\n", p.Key, p.Score); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
