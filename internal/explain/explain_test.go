package explain

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank_ByMagnitude(t *testing.T) {
	cols := []string{"Age", "OverTime_Yes", "MonthlyIncome", "JobLevel"}
	attrs := []float64{0.1, 0.9, -1.4, 0}

	got, err := Rank(cols, attrs, 0)
	require.NoError(t, err)
	assert.Equal(t, []Contribution{
		{Feature: "MonthlyIncome", Value: -1.4},
		{Feature: "OverTime_Yes", Value: 0.9},
		{Feature: "Age", Value: 0.1},
		{Feature: "JobLevel", Value: 0},
	}, got)
}

func TestRank_TiesKeepColumnOrder(t *testing.T) {
	got, err := Rank([]string{"B", "A", "C"}, []float64{0.5, -0.5, 0.5}, 0)
	require.NoError(t, err)
	assert.Equal(t, "B", got[0].Feature)
	assert.Equal(t, "A", got[1].Feature)
	assert.Equal(t, "C", got[2].Feature)
}

func TestRank_TopN(t *testing.T) {
	got, err := Rank([]string{"A", "B", "C"}, []float64{1, 3, 2}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Feature)
	assert.Equal(t, "C", got[1].Feature)

	all, err := Rank([]string{"A"}, []float64{1}, 10)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRank_LengthMismatch(t *testing.T) {
	_, err := Rank([]string{"A", "B"}, []float64{1}, 0)
	assert.Error(t, err)
}

func TestRenderPNG(t *testing.T) {
	contribs := []Contribution{
		{Feature: "OverTime_Yes", Value: 0.8},
		{Feature: "MonthlyIncome", Value: -0.6},
		{Feature: "Age", Value: 0.2},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, contribs, DefaultChartOptions()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")), "output should be a PNG")
}

func TestRenderPNG_AllZero(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPNG(&buf, []Contribution{{Feature: "A"}, {Feature: "B"}}, DefaultChartOptions())
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())
}

func TestRenderPNG_Empty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, RenderPNG(&buf, nil, DefaultChartOptions()), ErrNoContributions)
}

func TestRenderText(t *testing.T) {
	out := RenderText([]Contribution{
		{Feature: "OverTime_Yes", Value: 0.8},
		{Feature: "MonthlyIncome", Value: -0.4},
	}, 10)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "OverTime_Yes")
	assert.Contains(t, lines[0], "+0.8000")
	assert.Contains(t, lines[1], "MonthlyIncome")
	assert.Contains(t, lines[1], "-0.4000")
	assert.Equal(t, 10, strings.Count(lines[0], "█"))
	assert.Equal(t, 5, strings.Count(lines[1], "█"))
}

func TestRenderText_Empty(t *testing.T) {
	assert.Empty(t, RenderText(nil, 10))
}
