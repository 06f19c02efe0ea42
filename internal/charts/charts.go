// Package charts renders the preflight probe readout as terminal bar
// charts.
package charts

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"lmxcli/internal/service"
)

// ChartGenerator handles the generation of charts for probe results
type ChartGenerator struct {
	width  int
	height int
}

// NewChartGenerator creates a new chart generator with specified dimensions
func NewChartGenerator(width, height int) *ChartGenerator {
	return &ChartGenerator{
		width:  width,
		height: height,
	}
}

// LegendEntry represents a single entry in the chart legend
type LegendEntry struct {
	Label string
	Value float64
	Unit  string
	Color string
}

var barColors = []string{"10", "9", "11", "12", "13", "14", "15", "6"}

// generateLegend creates a formatted legend showing the numerical values
func (cg *ChartGenerator) generateLegend(entries []LegendEntry, title string) string {
	if len(entries) == 0 {
		return ""
	}

	var legend strings.Builder
	legend.WriteString(fmt.Sprintf("\n%s:\n", title))
	legend.WriteString(strings.Repeat("─", cg.width) + "\n")

	maxLabelLen := 0
	for _, entry := range entries {
		if len(entry.Label) > maxLabelLen {
			maxLabelLen = len(entry.Label)
		}
	}

	for _, entry := range entries {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(entry.Color))
		indicator := colorStyle.Render("■")

		var valueStr string
		if entry.Value < 10 {
			valueStr = fmt.Sprintf("%.2f", entry.Value)
		} else {
			valueStr = fmt.Sprintf("%.1f", entry.Value)
		}

		paddedLabel := fmt.Sprintf("%-*s", maxLabelLen, entry.Label)
		legend.WriteString(fmt.Sprintf("  %s %s: %s %s\n", indicator, paddedLabel, valueStr, entry.Unit))
	}

	return legend.String()
}

// GenerateLatencyChart creates a bar chart of per-attempt round-trip times
func (cg *ChartGenerator) GenerateLatencyChart(results []service.ProbeResult) string {
	var barData []barchart.BarData
	var legendEntries []LegendEntry

	for i, res := range results {
		if !res.Success {
			continue
		}
		latencyMs := float64(res.Latency.Nanoseconds()) / 1e6
		color := barColors[i%len(barColors)]
		label := fmt.Sprintf("#%d", res.Attempt)

		barData = append(barData, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{
				{Name: "Latency", Value: latencyMs, Style: lipgloss.NewStyle().Foreground(lipgloss.Color(color))},
			},
		})
		legendEntries = append(legendEntries, LegendEntry{
			Label: label,
			Value: latencyMs,
			Unit:  "ms",
			Color: color,
		})
	}

	if len(barData) == 0 {
		return "No successful probes to chart"
	}

	bc := barchart.New(cg.width, cg.height)
	bc.PushAll(barData)
	bc.Draw()

	result := fmt.Sprintf("Round-trip latency (ms)\n%s\n%s",
		strings.Repeat("─", cg.width), bc.View())
	result += cg.generateLegend(legendEntries, "Latency per attempt")

	return result
}

// GenerateTTFTChart creates a bar chart of time to first token for
// streaming probes
func (cg *ChartGenerator) GenerateTTFTChart(results []service.ProbeResult) string {
	var barData []barchart.BarData
	var legendEntries []LegendEntry

	for i, res := range results {
		if !res.Success || res.TimeToFirstToken <= 0 {
			continue
		}
		ttftMs := float64(res.TimeToFirstToken.Nanoseconds()) / 1e6
		color := barColors[i%len(barColors)]
		label := fmt.Sprintf("#%d", res.Attempt)

		barData = append(barData, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{
				{Name: "TTFT", Value: ttftMs, Style: lipgloss.NewStyle().Foreground(lipgloss.Color(color))},
			},
		})
		legendEntries = append(legendEntries, LegendEntry{
			Label: label,
			Value: ttftMs,
			Unit:  "ms",
			Color: color,
		})
	}

	if len(barData) == 0 {
		return "No streaming data available for TTFT chart"
	}

	bc := barchart.New(cg.width, cg.height)
	bc.PushAll(barData)
	bc.Draw()

	result := fmt.Sprintf("Time to first token (ms)\n%s\n%s",
		strings.Repeat("─", cg.width), bc.View())
	result += cg.generateLegend(legendEntries, "TTFT per attempt")

	return result
}

// GenerateAllCharts renders every chart applicable to the probe series.
func (cg *ChartGenerator) GenerateAllCharts(results []service.ProbeResult, streaming bool) string {
	out := cg.GenerateLatencyChart(results) + "\n\n"
	if streaming {
		out += cg.GenerateTTFTChart(results) + "\n\n"
	}
	return out
}
