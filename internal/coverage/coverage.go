// Package coverage computes how dashboard filters are wired to tiles.
//
// Every function here is a pure function of its inputs: it never mutates the
// dashboard and never fails. Results are recomputed from scratch on each call.
package coverage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starford/lookviz/internal/models"
)

// LowCoverageThreshold is the average coverage below which a dashboard is
// flagged by Issues.
const LowCoverageThreshold = 75.0

// Analyze returns one FilterAnalysis per filter, in filter order. A tile is
// linked to a filter iff the filter title is a key of the tile's listen map.
func Analyze(d *models.Dashboard) []models.FilterAnalysis {
	out := make([]models.FilterAnalysis, 0, len(d.Filters))
	total := len(d.Visualizations)

	for _, f := range d.Filters {
		linked := []string{}
		for _, tile := range d.Visualizations {
			if tile.Listens(f.Title) {
				linked = append(linked, tile.Title)
			}
		}

		pct := Percentage(len(linked), total)
		status := models.StatusFor(pct)

		deps := f.ListensToFilters
		if deps == nil {
			deps = []string{}
		}

		out = append(out, models.FilterAnalysis{
			FilterTitle:          f.Title,
			FilterType:           f.Type,
			Field:                f.Field,
			LinkedVisualizations: linked,
			CoveragePercentage:   pct,
			LinkCount:            len(linked),
			TotalVisualizations:  total,
			Status:               status,
			StatusColor:          status.Color(),
			ListensToFilters:     deps,
		})
	}
	return out
}

// Percentage returns 100*part/total, or 0 when total is zero.
func Percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// Summarize reduces per-filter results to dashboard-level counts.
func Summarize(d *models.Dashboard, analyses []models.FilterAnalysis) models.SummaryMetrics {
	m := models.SummaryMetrics{
		TotalFilters:        len(analyses),
		TotalVisualizations: len(d.Visualizations),
	}
	var sum float64
	for _, a := range analyses {
		switch a.Status {
		case models.StatusComplete:
			m.CompleteLinks++
		case models.StatusPartial:
			m.PartialLinks++
		case models.StatusMissing:
			m.MissingLinks++
		}
		sum += a.CoveragePercentage
	}
	if len(analyses) > 0 {
		m.AvgCoverage = sum / float64(len(analyses))
	}
	return m
}

// Explores groups tiles by explore, in first-seen order. A tile counts as
// filtered when it listens to at least one filter.
func Explores(d *models.Dashboard) []models.ExploreStats {
	var order []string
	byExplore := map[string]*models.ExploreStats{}
	filtered := map[string]map[string]struct{}{}

	for _, tile := range d.Visualizations {
		s, ok := byExplore[tile.Explore]
		if !ok {
			s = &models.ExploreStats{Explore: tile.Explore, Tiles: []string{}}
			byExplore[tile.Explore] = s
			filtered[tile.Explore] = map[string]struct{}{}
			order = append(order, tile.Explore)
		}
		s.TotalTiles++
		s.Tiles = append(s.Tiles, tile.Title)
		if len(tile.Listen) > 0 {
			// Unique by title, matching how tiles are identified elsewhere.
			filtered[tile.Explore][tile.Title] = struct{}{}
		}
	}

	out := make([]models.ExploreStats, 0, len(order))
	for _, name := range order {
		s := byExplore[name]
		s.TileHasFilter = len(filtered[name])
		s.TileHasNoFilter = s.TotalTiles - s.TileHasFilter
		s.CoveragePercentage = Percentage(s.TileHasFilter, s.TotalTiles)
		out = append(out, *s)
	}
	return out
}

// Find returns the first analysis with the given title. Duplicate titles
// resolve to the earliest entry.
func Find(analyses []models.FilterAnalysis, title string) (models.FilterAnalysis, bool) {
	for _, a := range analyses {
		if a.FilterTitle == title {
			return a, true
		}
	}
	return models.FilterAnalysis{}, false
}

// findTile returns the first tile with the given title.
func findTile(d *models.Dashboard, title string) (models.Tile, bool) {
	for _, t := range d.Visualizations {
		if t.Title == title {
			return t, true
		}
	}
	return models.Tile{}, false
}

// Detail builds the drill-down view for one analysed filter.
func Detail(d *models.Dashboard, a models.FilterAnalysis) models.FilterDetail {
	linkedSet := make(map[string]struct{}, len(a.LinkedVisualizations))
	linked := make([]models.TileRef, 0, len(a.LinkedVisualizations))
	covered := map[string]struct{}{}

	for _, title := range a.LinkedVisualizations {
		linkedSet[title] = struct{}{}
		ref := models.TileRef{Title: title}
		if tile, ok := findTile(d, title); ok {
			ref.Explore = tile.Explore
			if tile.Explore != "" {
				covered[tile.Explore] = struct{}{}
			}
		}
		linked = append(linked, ref)
	}

	all := map[string]struct{}{}
	unlinked := []models.TileRef{}
	for _, tile := range d.Visualizations {
		if tile.Explore != "" {
			all[tile.Explore] = struct{}{}
		}
		if _, ok := linkedSet[tile.Title]; ok {
			continue
		}
		ref := models.TileRef{Title: tile.Title}
		if first, ok := findTile(d, tile.Title); ok {
			ref.Explore = first.Explore
		}
		unlinked = append(unlinked, ref)
	}

	coveredList := make([]string, 0, len(covered))
	for e := range covered {
		coveredList = append(coveredList, e)
	}
	sort.Strings(coveredList)

	note := models.CoverageNoteLow
	switch {
	case a.CoveragePercentage == 100:
		note = models.CoverageNoteComplete
	case a.CoveragePercentage > 50:
		note = models.CoverageNotePartial
	}

	return models.FilterDetail{
		Analysis:        a,
		Linked:          linked,
		Unlinked:        unlinked,
		CoveredExplores: coveredList,
		TotalExplores:   len(all),
		CoverageNote:    note,
	}
}

// Issues lists the problems worth reporting for a dashboard.
func Issues(m models.SummaryMetrics, analyses []models.FilterAnalysis) []string {
	var out []string
	if m.MissingLinks > 0 {
		var missing []string
		for _, a := range analyses {
			if a.Status == models.StatusMissing {
				missing = append(missing, a.FilterTitle)
			}
		}
		if len(missing) > 3 {
			missing = missing[:3]
		}
		out = append(out, fmt.Sprintf("%d filters not linked to any visualization: %s",
			m.MissingLinks, strings.Join(missing, ", ")))
	}
	if m.PartialLinks > 0 {
		out = append(out, fmt.Sprintf("%d filters have partial coverage", m.PartialLinks))
	}
	if m.TotalFilters > 0 && m.AvgCoverage < LowCoverageThreshold {
		out = append(out, fmt.Sprintf("Overall coverage below recommended threshold (%.0f%%)", LowCoverageThreshold))
	}
	if m.MissingLinks == 0 && m.PartialLinks == 0 {
		out = append(out, "No issues found! All filters are properly linked.")
	}
	return out
}

// Build runs the full analysis pipeline for a dashboard.
func Build(d *models.Dashboard) *models.Report {
	analyses := Analyze(d)
	metrics := Summarize(d, analyses)
	return &models.Report{
		Dashboard:      d,
		FilterAnalysis: analyses,
		SummaryMetrics: metrics,
		Explores:       Explores(d),
		Issues:         Issues(metrics, analyses),
	}
}
