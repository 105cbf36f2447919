package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/attrition-risk/internal/catalog"
	"github.com/danielpatrickdp/attrition-risk/internal/features"
	"github.com/danielpatrickdp/attrition-risk/internal/risk"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	Catalog     string        `json:"catalog,omitempty"`   // relative to the fixture file; empty = embedded default
	Threshold   *float64      `json:"threshold,omitempty"` // nil = default threshold; 0 is a real threshold
	Cases       []FixtureCase `json:"cases"`

	dir string
}

// FixtureCase is one recorded form submission and the classifier output
// observed for it.
type FixtureCase struct {
	ID            string             `json:"id"`
	Selection     map[string]any     `json:"selection"`
	ExpectedRow   map[string]float64 `json:"expected_row,omitempty"` // partial: only listed columns are checked
	ExpectSkipped []string           `json:"expect_skipped,omitempty"`
	Probability   float64            `json:"probability"`
	ExpectedLabel string             `json:"expected_label"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	f.dir = filepath.Dir(path)
	return &f, nil
}

// LoadCatalog resolves the fixture's catalog.
func (f *Fixture) LoadCatalog() (*catalog.Catalog, error) {
	if f.Catalog == "" {
		return catalog.Default()
	}
	path := f.Catalog
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.dir, path)
	}
	return catalog.Load(path)
}

// RiskConfig returns the fixture's threshold, or the default when absent.
func (f *Fixture) RiskConfig() risk.Config {
	if f.Threshold == nil {
		return risk.DefaultConfig()
	}
	return risk.Config{Threshold: risk.Probability(*f.Threshold)}
}

// ToCase converts a FixtureCase to a domain Case.
func (fc *FixtureCase) ToCase() Case {
	return Case{
		ID:            fc.ID,
		Selection:     features.Selection(fc.Selection),
		ExpectedRow:   fc.ExpectedRow,
		ExpectSkipped: fc.ExpectSkipped,
		Probability:   fc.Probability,
		ExpectedLabel: fc.ExpectedLabel,
	}
}

// Setup builds everything needed to replay the fixture.
func (f *Fixture) Setup() (*features.Builder, *risk.Assessor, []Case, error) {
	cat, err := f.LoadCatalog()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fixture catalog: %w", err)
	}
	assessor, err := risk.NewAssessor(f.RiskConfig())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fixture threshold: %w", err)
	}
	cases := make([]Case, len(f.Cases))
	for i := range f.Cases {
		cases[i] = f.Cases[i].ToCase()
	}
	return features.NewBuilder(cat), assessor, cases, nil
}

// #endregion fixture-loader
