package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/attrition-risk/internal/logging"
	"github.com/danielpatrickdp/attrition-risk/internal/store"
)

var (
	inspectDB   string
	inspectLast int
	inspectID   string
	inspectJSON bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show recent predictions from the audit log",
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectDB, "db", "", "path to the audit database (default: store.path)")
	inspectCmd.Flags().IntVar(&inspectLast, "last", 20, "show N most recent predictions")
	inspectCmd.Flags().StringVar(&inspectID, "id", "", "show single prediction detail")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "output as JSON instead of table")
}

// #region main
func runInspect(cmd *cobra.Command, args []string) error {
	path := inspectDB
	if path == "" {
		path = cfg.Store.Path
	}
	st, err := store.NewStore(path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	w := cmd.OutOrStdout()
	if inspectID != "" {
		return runDetailMode(w, st, inspectID, inspectJSON)
	}
	return runListMode(w, st, inspectLast, inspectJSON)
}

// #endregion main

// #region list-mode
func runListMode(w io.Writer, st *store.Store, last int, jsonOut bool) error {
	entries, err := logging.ListPredictions(st.DB(), last)
	if err != nil {
		return err
	}
	if jsonOut {
		if entries == nil {
			entries = []logging.PredictionEntry{}
		}
		return printJSON(w, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "no predictions found")
		return nil
	}

	fmt.Fprintf(w, "%-8s  %-6s  %11s  %9s  %-7s  %s\n",
		"ID", "Source", "Probability", "Threshold", "Risk", "Time")
	fmt.Fprintf(w, "%-8s+-%-6s+-%11s+-%9s+-%-7s+-%s\n",
		"--------", "------", "-----------", "---------", "-------", "--------------------")

	// Newest first from the store; print chronologically.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fmt.Fprintf(w, "%-8s  %-6s  %10.2f%%  %8.2f%%  %-7s  %s\n",
			shortID(e.ID), e.Source, e.Probability*100, e.Threshold*100,
			riskWord(e.AtRisk), e.CreatedAt.Format("2006-01-02T15:04:05Z"))
	}

	stats, err := st.Stats()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nTotal: %d | At risk: %d | Sessions: %d\n", stats.Total, stats.AtRisk, stats.Session)
	return nil
}

// #endregion list-mode

// #region detail-mode
func runDetailMode(w io.Writer, st *store.Store, id string, jsonOut bool) error {
	e, err := logging.GetPrediction(st.DB(), id)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(w, e)
	}

	fmt.Fprintf(w, "ID:          %s\n", e.ID)
	fmt.Fprintf(w, "Session:     %s\n", orDash(e.SessionID))
	fmt.Fprintf(w, "Source:      %s\n", e.Source)
	fmt.Fprintf(w, "Created:     %s\n", e.CreatedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Fprintf(w, "Label:       %d\n", e.Label)
	fmt.Fprintf(w, "Probability: %.2f%%\n", e.Probability*100)
	fmt.Fprintf(w, "Threshold:   %.2f%%\n", e.Threshold*100)
	fmt.Fprintf(w, "Risk:        %s\n", riskWord(e.AtRisk))
	fmt.Fprintf(w, "Reason:      %s\n", orDash(e.Reason))
	fmt.Fprintf(w, "\nRow:\n  %s\n", e.RowJSON)
	return nil
}

// #endregion detail-mode

// #region helpers
func riskWord(atRisk bool) string {
	if atRisk {
		return "at-risk"
	}
	return "ok"
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion helpers
