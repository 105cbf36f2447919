package main

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/attrition-risk/internal/logging"
	"github.com/danielpatrickdp/attrition-risk/internal/replay"
	"github.com/danielpatrickdp/attrition-risk/internal/store"
)

var (
	exportDB   string
	exportLast int
	exportOut  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Turn recent logged predictions into a replay fixture",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDB, "db", "", "path to the audit database (default: store.path)")
	exportCmd.Flags().IntVar(&exportLast, "last", 4, "number of most recent predictions to export")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output fixture JSON path")
	_ = exportCmd.MarkFlagRequired("out")
}

// #region main
func runExport(cmd *cobra.Command, args []string) error {
	path := exportDB
	if path == "" {
		path = cfg.Store.Path
	}
	st, err := store.NewStore(path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	catalogPath := ""
	if cfg.Catalog.Path != "" {
		if catalogPath, err = filepath.Abs(cfg.Catalog.Path); err != nil {
			return fmt.Errorf("resolve catalog: %w", err)
		}
	}
	return exportFixture(cmd.OutOrStdout(), st, exportLast, catalogPath, exportOut)
}

// #endregion main

// #region extract
func exportFixture(w io.Writer, st *store.Store, last int, catalogPath, outPath string) error {
	entries, err := logging.ListPredictions(st.DB(), last)
	if err != nil {
		return err
	}
	// Newest first from the log; fixtures read chronologically.
	slices.Reverse(entries)

	desc := fmt.Sprintf("Exported from the last %d logged predictions.", last)
	f, skipped, err := replay.FromPredictions(desc, entries)
	if err != nil {
		return err
	}
	if len(f.Cases) == 0 {
		return fmt.Errorf("no predictions with a recorded selection in the last %d entries", last)
	}
	f.Catalog = catalogPath
	if err := f.FillSkipped(); err != nil {
		return err
	}

	if err := f.Save(outPath); err != nil {
		return err
	}
	fmt.Fprintf(w, "Exported %d cases to %s", len(f.Cases), outPath)
	if skipped > 0 {
		fmt.Fprintf(w, " (%d without a selection skipped)", skipped)
	}
	fmt.Fprintln(w)
	return nil
}

// #endregion extract
