package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/attrition-risk/internal/features"
	"github.com/danielpatrickdp/attrition-risk/internal/logging"
	"github.com/danielpatrickdp/attrition-risk/internal/risk"
)

// #region export

// FromPredictions turns audit log entries into a fixture. Entries without a
// recorded selection are skipped; the count is returned.
func FromPredictions(description string, entries []logging.PredictionEntry) (Fixture, int, error) {
	f := Fixture{Description: description}
	skipped := 0
	for _, e := range entries {
		if e.SelectionJSON == "" {
			skipped++
			continue
		}
		var sel map[string]any
		if err := json.Unmarshal([]byte(e.SelectionJSON), &sel); err != nil {
			return Fixture{}, 0, fmt.Errorf("prediction %s: parse selection: %w", e.ID, err)
		}
		var row map[string]float64
		if err := json.Unmarshal([]byte(e.RowJSON), &row); err != nil {
			return Fixture{}, 0, fmt.Errorf("prediction %s: parse row: %w", e.ID, err)
		}
		label := risk.LabelNoRisk
		if e.AtRisk {
			label = risk.LabelAtRisk
		}
		if f.Threshold == nil {
			t := e.Threshold
			f.Threshold = &t
		}
		if e.Threshold != *f.Threshold {
			return Fixture{}, 0, fmt.Errorf("prediction %s: threshold %v differs from %v", e.ID, e.Threshold, *f.Threshold)
		}
		f.Cases = append(f.Cases, FixtureCase{
			ID:            e.ID,
			Selection:     sel,
			ExpectedRow:   row,
			Probability:   e.Probability,
			ExpectedLabel: label,
		})
	}
	return f, skipped, nil
}

// FillSkipped records, for each case, the selected options that have no
// column in the fixture's catalog. The audit log does not keep them.
func (f *Fixture) FillSkipped() error {
	cat, err := f.LoadCatalog()
	if err != nil {
		return fmt.Errorf("fixture catalog: %w", err)
	}
	builder := features.NewBuilder(cat)
	for i := range f.Cases {
		row, err := builder.BuildLenient(features.Selection(f.Cases[i].Selection))
		if err != nil {
			return fmt.Errorf("case %s: %w", f.Cases[i].ID, err)
		}
		f.Cases[i].ExpectSkipped = row.Skipped()
	}
	return nil
}

// Save writes the fixture as indented JSON.
func (f *Fixture) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// #endregion export
