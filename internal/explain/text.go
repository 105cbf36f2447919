package explain

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	increaseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d62728"))
	decreaseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1f77b4"))
	valueStyle    = lipgloss.NewStyle().Faint(true)
)

// RenderText draws contribs as horizontal terminal bars scaled to barWidth
// cells for the largest magnitude.
func RenderText(contribs []Contribution, barWidth int) string {
	if len(contribs) == 0 {
		return ""
	}
	if barWidth <= 0 {
		barWidth = 30
	}

	labelWidth, maxAbs := 0, 0.0
	for _, c := range contribs {
		labelWidth = max(labelWidth, lipgloss.Width(c.Feature))
		maxAbs = math.Max(maxAbs, math.Abs(c.Value))
	}
	label := lipgloss.NewStyle().Width(labelWidth + 2)

	var b strings.Builder
	for _, c := range contribs {
		n := 0
		if maxAbs > 0 {
			n = int(math.Round(math.Abs(c.Value) / maxAbs * float64(barWidth)))
		}
		style, sign := increaseStyle, "+"
		if c.Value < 0 {
			style, sign = decreaseStyle, "-"
		}
		bar := style.Render(strings.Repeat("█", n))
		fmt.Fprintf(&b, "%s%s %s\n", label.Render(c.Feature), bar,
			valueStyle.Render(fmt.Sprintf("%s%.4f", sign, math.Abs(c.Value))))
	}
	return b.String()
}
