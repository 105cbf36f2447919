// Package explain ranks SHAP attributions and renders them as a bar chart
// (PNG for the web form, lipgloss bars for the terminal).
package explain

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNoContributions is returned when there is nothing to render.
var ErrNoContributions = errors.New("no contributions to render")

// Contribution is one feature's attribution toward the attrition score.
// Positive values push toward attrition.
type Contribution struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

// Rank orders attributions by magnitude, largest first; ties keep column
// order. topN <= 0 keeps every feature.
func Rank(columns []string, attributions []float64, topN int) ([]Contribution, error) {
	if len(columns) != len(attributions) {
		return nil, fmt.Errorf("rank: %d columns, %d attributions", len(columns), len(attributions))
	}
	out := make([]Contribution, len(columns))
	for i, c := range columns {
		out[i] = Contribution{Feature: c, Value: attributions[i]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Value) > math.Abs(out[j].Value)
	})
	if topN > 0 && topN < len(out) {
		out = out[:topN]
	}
	return out, nil
}
