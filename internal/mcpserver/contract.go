package mcpserver

// DashboardFormat describes the LookML dashboard fields the analyzer reads
// and how filter linkage is decided.
const DashboardFormat = `# lookviz Dashboard Format

lookviz reads LookML dashboards written as YAML (` + "`" + `.lookml` + "`" + `, ` + "`" + `.yaml` + "`" + `, ` + "`" + `.yml` + "`" + `).
The document is a list; only its first entry is analyzed.

## Structure

` + "```" + `yaml
- dashboard: sales_overview      # name; falls back to title, then "Unknown Dashboard"
  title: Sales Overview
  filters:
  - name: region
    title: Region                  # JOIN KEY: tiles reference filters by title
    type: field_filter
    field: orders.region
    listens_to_filters: [Date]     # filter-to-filter dependencies
  elements:
  - title: Revenue by Month        # falls back to single_value_title
    type: looker_line
    explore: orders
    listen:
      Region: orders.region        # key = filter title, value = tile field
` + "```" + `

## Rules

1. A filter is **linked** to a tile when the filter's ` + "`" + `title` + "`" + ` is a key of the
   tile's ` + "`" + `listen` + "`" + ` map. Filter names are never used for matching.
2. Elements of type ` + "`" + `text` + "`" + `, ` + "`" + `single_value` + "`" + ` and ` + "`" + `single_number` + "`" + ` are not tiles
   and never count towards coverage.
3. **Coverage** of a filter is linked tiles / all tiles × 100 (0 when there are no tiles).
   Status is **complete** at 100, **partial** above 0 and **missing** at 0.
4. Duplicate filter or tile titles are allowed; lookups use the first match.
5. Missing keys default to empty values; malformed entries are skipped.

## Tools

- ` + "`" + `list_dashboards` + "`" + ` – files available for analysis.
- ` + "`" + `analyze_dashboard` + "`" + ` – full report (filter_analysis, summary_metrics, explores, issues).
- ` + "`" + `filter_detail` + "`" + ` – linked/unlinked tiles and explore coverage of one filter.
- ` + "`" + `export_report` + "`" + ` – json, csv, markdown or table rendering.
- ` + "`" + `import_dashboard` + "`" + ` – store a new dashboard from content or a URL.
`
