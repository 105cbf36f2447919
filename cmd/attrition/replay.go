package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/attrition-risk/internal/replay"
)

var replayVerbose bool

var replayCmd = &cobra.Command{
	Use:   "replay <fixture.json>",
	Short: "Rebuild recorded submissions and check rows and labels",
	Long: `Replays a JSON fixture of recorded form submissions through the feature
builder and threshold. Exits non-zero when any case drifts.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVar(&replayVerbose, "cases", false, "print every case, not only failures")
}

// #region main
func runReplay(cmd *cobra.Command, args []string) error {
	f, err := replay.LoadFixture(args[0])
	if err != nil {
		return err
	}
	builder, assessor, cases, err := f.Setup()
	if err != nil {
		return err
	}

	results := replay.Replay(builder, assessor, cases)
	summary := replay.Summarize(results)

	w := cmd.OutOrStdout()
	if f.Description != "" {
		fmt.Fprintln(w, f.Description)
	}
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(w, "ERROR  %-24s %v\n", r.CaseID, r.Err)
		case !r.Passed:
			fmt.Fprintf(w, "DRIFT  %-24s\n", r.CaseID)
			for _, m := range r.Mismatches {
				fmt.Fprintf(w, "         %s\n", m)
			}
		case replayVerbose:
			fmt.Fprintf(w, "ok     %-24s %s (%s)\n", r.CaseID, r.Label, r.Assessment.ProbabilityPercent())
		}
	}
	fmt.Fprintf(w, "\n%d cases | %d passed | %d drifted | %d errors | %d at risk\n",
		summary.Total, summary.Passed, summary.Drifted, summary.Errors, summary.AtRisk)

	logger.Debug("replay finished",
		zap.String("fixture", args[0]),
		zap.Int("total", summary.Total),
		zap.Int("passed", summary.Passed))

	if !summary.OK() {
		return fmt.Errorf("replay: %d of %d cases failed", summary.Total-summary.Passed, summary.Total)
	}
	return nil
}

// #endregion main
