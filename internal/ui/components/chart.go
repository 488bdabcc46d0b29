// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/codepulse/internal/ui/styles"
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	// Ensure minimum dimensions
	width = max(width, 20)
	height = max(height, 3)

	// asciigraph cannot plot a single point
	if len(data) == 1 {
		data = []float64{data[0], data[0]}
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(1),
		asciigraph.Caption(caption),
	)
}

// RenderBarChart creates a horizontal bar chart. Labels wider than maxLabel
// cells are truncated with an ellipsis.
func RenderBarChart(values []float64, labels []string, width, maxLabel int) string {
	if len(values) == 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	labelWidth := 0
	fitted := make([]string, len(values))
	for i := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		if maxLabel > 0 && ansi.StringWidth(label) > maxLabel {
			label = ansi.Truncate(label, maxLabel, "…")
		}
		fitted[i] = label
		labelWidth = max(labelWidth, ansi.StringWidth(label))
	}

	barWidth := max(width-labelWidth-10, 10) // Leave room for label and value

	lines := make([]string, 0, len(values))
	for i, v := range values {
		pad := strings.Repeat(" ", labelWidth-ansi.StringWidth(fitted[i]))
		barLen := max(int((v/maxVal)*float64(barWidth)), 0)

		bar := lipgloss.NewStyle().Foreground(styles.Secondary).Render(strings.Repeat("█", barLen))
		lines = append(lines, fmt.Sprintf("%s%s │%s %.1f", pad, fitted[i], bar, v))
	}

	return strings.Join(lines, "\n")
}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	// Sample values to fit width
	step := max(float64(len(values))/float64(width), 1)

	var result strings.Builder
	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		val := values[int(float64(i)*step)]
		normalized := int((val / maxVal) * float64(len(sparkChars)-1))
		normalized = min(max(normalized, 0), len(sparkChars)-1)
		result.WriteRune(sparkChars[normalized])
	}

	return result.String()
}
