// Package chart prepares chart specifications for the browser renderer.
package chart

import (
	"fmt"
	"sort"

	"github.com/starford/lookviz/internal/models"
)

// Bar is one horizontal bar of the coverage chart.
type Bar struct {
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Text      string  `json:"text"`
	LinkCount int     `json:"link_count"`
	Color     string  `json:"color"`
}

// BarChart is the per-filter coverage chart.
type BarChart struct {
	Title  string `json:"title"`
	XTitle string `json:"x_title"`
	YTitle string `json:"y_title"`
	Height int    `json:"height"`
	Bars   []Bar  `json:"bars"`
}

// Slice is one segment of a pie chart.
type Slice struct {
	Label string `json:"label"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// PieChart is a donut chart with a subtitle.
type PieChart struct {
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle"`
	Slices   []Slice `json:"slices"`
}

// Coverage returns bars sorted by ascending coverage. Ties keep filter order.
func Coverage(analyses []models.FilterAnalysis) BarChart {
	sorted := make([]models.FilterAnalysis, len(analyses))
	copy(sorted, analyses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CoveragePercentage < sorted[j].CoveragePercentage
	})

	bars := make([]Bar, 0, len(sorted))
	for _, a := range sorted {
		bars = append(bars, Bar{
			Label:     a.FilterTitle,
			Value:     a.CoveragePercentage,
			Text:      fmt.Sprintf("%.1f%%", a.CoveragePercentage),
			LinkCount: a.LinkCount,
			Color:     a.Status.Color(),
		})
	}

	return BarChart{
		Title:  "Filter Coverage Analysis",
		XTitle: "Coverage Percentage",
		YTitle: "Filter Name",
		Height: max(600, len(analyses)*25),
		Bars:   bars,
	}
}

// Pies returns the tile and explore coverage charts for a filter. Tile
// counts come from the analysis, so tiles sharing a title count once each.
func Pies(d models.FilterDetail) []PieChart {
	total := d.Analysis.TotalVisualizations
	linked := d.Analysis.LinkCount
	covered := len(d.CoveredExplores)
	return []PieChart{
		{
			Title:    "Visualization Coverage",
			Subtitle: fmt.Sprintf("%d out of %d", linked, total),
			Slices: []Slice{
				{Label: "Linked", Value: linked, Color: "#4CAF50"},
				{Label: "Unlinked", Value: total - linked, Color: "#FF9800"},
			},
		},
		{
			Title:    "Explore Coverage",
			Subtitle: fmt.Sprintf("%d out of %d", covered, d.TotalExplores),
			Slices: []Slice{
				{Label: "Covered", Value: covered, Color: "#2196F3"},
				{Label: "Not Covered", Value: d.TotalExplores - covered, Color: "#FFC107"},
			},
		},
	}
}
