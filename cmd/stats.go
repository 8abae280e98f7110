package cmd

import (
	"fmt"
	"io"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/abhisek/lexiz/internal/mastery"
	"github.com/abhisek/lexiz/internal/selector"
	"github.com/abhisek/lexiz/internal/spacedrep"
	"github.com/abhisek/lexiz/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		recs, err := e.repos.Records().ListRecords(ctx)
		if err != nil {
			return fmt.Errorf("list records: %w", err)
		}
		perf, err := e.repos.Events().MethodPerformance(ctx, "")
		if err != nil {
			return fmt.Errorf("method performance: %w", err)
		}
		selCfg, err := e.cfg.SelectorConfig()
		if err != nil {
			return err
		}

		writeStats(cmd.OutOrStdout(), recs, perf, selCfg, time.Now())
		return nil
	},
}

func writeStats(w io.Writer, recs []spacedrep.Record, perf map[spacedrep.Method]selector.Performance, cfg selector.Config, now time.Time) {
	counts := mastery.Tally(recs)
	due := 0
	for _, r := range recs {
		if r.IsDue(now) {
			due++
		}
	}

	fmt.Fprintf(w, "Items: %d   Due now: %d\n", counts.Total(), due)
	fmt.Fprintf(w, "%s %s %d   %s %s %d   %s %s %d\n\n",
		mastery.StateNew.Icon(), mastery.StateNew.Label(), counts.New,
		mastery.StateLearning.Icon(), mastery.StateLearning.Label(), counts.Learning,
		mastery.StateMastered.Icon(), mastery.StateMastered.Label(), counts.Mastered)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers("Method", "Reviews", "Correct", "Accuracy", "Class")
	for _, m := range spacedrep.AllMethods() {
		p, ok := perf[m]
		if !ok {
			t.Row(string(m), "0", "0", "-", "-")
			continue
		}
		t.Row(string(m),
			fmt.Sprintf("%d", p.Attempts),
			fmt.Sprintf("%d", p.Correct),
			fmt.Sprintf("%.0f%%", p.Accuracy()*100),
			string(selector.Classify(p, cfg)),
		)
	}
	fmt.Fprintln(w, t.String())
}
