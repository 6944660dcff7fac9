// Package export serializes analysis results as JSON, CSV, Markdown or a
// terminal table. Exporters only read the report they are given.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/starford/lookviz/internal/apperr"
	"github.com/starford/lookviz/internal/models"
)

// Format names an export representation.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatTable    Format = "table"
)

// CSVHeader is the column order of CSV exports.
var CSVHeader = []string{
	"filter_title",
	"filter_type",
	"field",
	"linked_visualizations",
	"coverage_percentage",
	"link_count",
	"total_visualizations",
	"status",
	"listens_to_filters",
}

// ParseFormat accepts a format name case-insensitively; "md" aliases markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "table":
		return FormatTable, nil
	}
	return "", fmt.Errorf("export: format %q: %w", s, apperr.ErrUnsupportedFormat)
}

// Filename is the suggested download name for a format.
func Filename(f Format) string {
	switch f {
	case FormatCSV:
		return "filter_analysis.csv"
	case FormatMarkdown:
		return "filter_analysis.md"
	case FormatTable:
		return "filter_analysis.txt"
	default:
		return "filter_analysis.json"
	}
}

// ContentType is the MIME type for a format.
func ContentType(f Format) string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatTable:
		return "text/plain; charset=utf-8"
	default:
		return "application/json; charset=utf-8"
	}
}

// Write renders the report in the given format.
func Write(w io.Writer, f Format, r *models.Report) error {
	switch f {
	case FormatJSON:
		return JSON(w, r)
	case FormatCSV:
		return CSV(w, r.FilterAnalysis)
	case FormatMarkdown:
		return Markdown(w, r)
	case FormatTable:
		return Table(w, r)
	}
	return fmt.Errorf("export: format %q: %w", f, apperr.ErrUnsupportedFormat)
}

type jsonDocument struct {
	Dashboard      *models.Dashboard       `json:"dashboard"`
	FilterAnalysis []models.FilterAnalysis `json:"filter_analysis"`
	SummaryMetrics models.SummaryMetrics   `json:"summary_metrics"`
}

// JSON writes {dashboard, filter_analysis, summary_metrics} with two-space indent.
func JSON(w io.Writer, r *models.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonDocument{
		Dashboard:      r.Dashboard,
		FilterAnalysis: nonNil(r.FilterAnalysis),
		SummaryMetrics: r.SummaryMetrics,
	})
}

// CSV writes one row per filter. List columns are joined with "; ".
func CSV(w io.Writer, analyses []models.FilterAnalysis) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, a := range analyses {
		row := []string{
			a.FilterTitle,
			a.FilterType,
			a.Field,
			strings.Join(a.LinkedVisualizations, "; "),
			strconv.FormatFloat(a.CoveragePercentage, 'f', -1, 64),
			strconv.Itoa(a.LinkCount),
			strconv.Itoa(a.TotalVisualizations),
			string(a.Status),
			strings.Join(a.ListensToFilters, "; "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Markdown writes the human-readable analysis report.
func Markdown(w io.Writer, r *models.Report) error {
	m := r.SummaryMetrics
	var b strings.Builder
	b.WriteString("# LookML Filter Link Analysis Report\n\n")
	fmt.Fprintf(&b, "## Dashboard: %s\n\n", r.Dashboard.Name)
	b.WriteString("### Summary\n")
	fmt.Fprintf(&b, "- **Total Filters**: %d\n", m.TotalFilters)
	fmt.Fprintf(&b, "- **Total Visualizations**: %d\n", m.TotalVisualizations)
	fmt.Fprintf(&b, "- **Average Coverage**: %.1f%%\n", m.AvgCoverage)
	fmt.Fprintf(&b, "- **Complete Links**: %d\n", m.CompleteLinks)
	fmt.Fprintf(&b, "- **Partial Links**: %d\n", m.PartialLinks)
	fmt.Fprintf(&b, "- **Missing Links**: %d\n", m.MissingLinks)
	b.WriteString("\n### Filter Details\n")
	for _, a := range r.FilterAnalysis {
		fmt.Fprintf(&b, "\n#### %s\n", a.FilterTitle)
		fmt.Fprintf(&b, "- **Type**: %s\n", a.FilterType)
		fmt.Fprintf(&b, "- **Coverage**: %.1f%%\n", a.CoveragePercentage)
		fmt.Fprintf(&b, "- **Status**: %s\n", a.Status.Title())
		fmt.Fprintf(&b, "- **Links**: %d visualizations\n", a.LinkCount)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Table writes a summary line, a per-filter table and the issue list.
func Table(w io.Writer, r *models.Report) error {
	m := r.SummaryMetrics
	if _, err := fmt.Fprintf(w, "Dashboard: %s\nFilters: %d  Visualizations: %d  Avg coverage: %.1f%%\n",
		r.Dashboard.Name, m.TotalFilters, m.TotalVisualizations, m.AvgCoverage); err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Filter", "Type", "Coverage", "Links", "Status"})
	for _, a := range r.FilterAnalysis {
		t.AppendRow(table.Row{
			a.FilterTitle,
			a.FilterType,
			fmt.Sprintf("%.1f%%", a.CoveragePercentage),
			fmt.Sprintf("%d/%d", a.LinkCount, a.TotalVisualizations),
			a.Status.Title(),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d/%d/%d", m.CompleteLinks, m.PartialLinks, m.MissingLinks)})
	t.Render()

	for _, issue := range r.Issues {
		if _, err := fmt.Fprintf(w, "- %s\n", issue); err != nil {
			return err
		}
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
