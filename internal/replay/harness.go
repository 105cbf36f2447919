package replay

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/danielpatrickdp/attrition-risk/internal/features"
	"github.com/danielpatrickdp/attrition-risk/internal/risk"
)

// #region types
// Case is a single recorded submission for replay.
type Case struct {
	ID            string
	Selection     features.Selection
	ExpectedRow   map[string]float64
	ExpectSkipped []string
	Probability   float64
	ExpectedLabel string
}

// Result captures the outcome of replaying one case.
type Result struct {
	CaseID     string
	Passed     bool
	Label      string
	Assessment risk.Assessment
	Skipped    []string
	// Mismatches lists every expectation that did not hold, one line each.
	Mismatches []string
	Err        error
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	Total   int
	Passed  int
	Drifted int
	Errors  int
	AtRisk  int
}

// #endregion types

// #region replay
// Replay rebuilds each case's row and re-labels its recorded probability.
// Rows are built leniently so drift in the catalog shows up as skipped keys
// rather than aborting the run.
func Replay(builder *features.Builder, assessor *risk.Assessor, cases []Case) []Result {
	results := make([]Result, 0, len(cases))
	for _, c := range cases {
		results = append(results, replayCase(builder, assessor, c))
	}
	return results
}

func replayCase(builder *features.Builder, assessor *risk.Assessor, c Case) Result {
	res := Result{CaseID: c.ID}

	row, err := builder.BuildLenient(c.Selection)
	if err != nil {
		res.Err = fmt.Errorf("build row: %w", err)
		return res
	}
	res.Skipped = row.Skipped()

	assessment, err := assessor.Assess(c.Probability)
	if err != nil {
		res.Err = fmt.Errorf("assess: %w", err)
		return res
	}
	res.Assessment = assessment
	res.Label = assessment.Label

	if c.ExpectedLabel != "" && assessment.Label != c.ExpectedLabel {
		res.Mismatches = append(res.Mismatches,
			fmt.Sprintf("label: expected %q, got %q", c.ExpectedLabel, assessment.Label))
	}

	cols := make([]string, 0, len(c.ExpectedRow))
	for col := range c.ExpectedRow {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		want := c.ExpectedRow[col]
		got, ok := row.Value(col)
		if !ok {
			res.Mismatches = append(res.Mismatches, fmt.Sprintf("row[%s]: column not in catalog", col))
			continue
		}
		if math.Abs(got-want) > 1e-9 {
			res.Mismatches = append(res.Mismatches, fmt.Sprintf("row[%s]: expected %v, got %v", col, want, got))
		}
	}

	want := slices.Clone(c.ExpectSkipped)
	got := slices.Clone(res.Skipped)
	sort.Strings(want)
	sort.Strings(got)
	if !slices.Equal(want, got) {
		res.Mismatches = append(res.Mismatches, fmt.Sprintf("skipped: expected %v, got %v", want, got))
	}

	res.Passed = len(res.Mismatches) == 0
	return res
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Errors++
		case r.Passed:
			s.Passed++
		default:
			s.Drifted++
		}
		if r.Err == nil && r.Assessment.AtRisk {
			s.AtRisk++
		}
	}
	return s
}

// OK reports whether every case passed.
func (s Summary) OK() bool {
	return s.Passed == s.Total
}

// #endregion replay
