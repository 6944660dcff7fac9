package models

// Status classifies how well a filter is wired to the dashboard tiles.
type Status string

const (
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
	StatusMissing  Status = "missing"
)

// StatusFor classifies a coverage percentage.
func StatusFor(coverage float64) Status {
	switch {
	case coverage == 100:
		return StatusComplete
	case coverage > 0:
		return StatusPartial
	default:
		return StatusMissing
	}
}

// Color returns the display colour used by charts and graph nodes.
func (s Status) Color() string {
	switch s {
	case StatusComplete:
		return "#4caf50"
	case StatusPartial:
		return "#ff9800"
	default:
		return "#ff6b6b"
	}
}

// Title returns the capitalised status name.
func (s Status) Title() string {
	switch s {
	case StatusComplete:
		return "Complete"
	case StatusPartial:
		return "Partial"
	case StatusMissing:
		return "Missing"
	}
	return string(s)
}

// FilterAnalysis is the derived linkage record for one filter.
type FilterAnalysis struct {
	FilterTitle          string   `json:"filter_title"`
	FilterType           string   `json:"filter_type"`
	Field                string   `json:"field"`
	LinkedVisualizations []string `json:"linked_visualizations"`
	CoveragePercentage   float64  `json:"coverage_percentage"`
	LinkCount            int      `json:"link_count"`
	TotalVisualizations  int      `json:"total_visualizations"`
	Status               Status   `json:"status"`
	StatusColor          string   `json:"status_color"`
	ListensToFilters     []string `json:"listens_to_filters"`
}

// SummaryMetrics rolls per-filter results up to the dashboard level.
type SummaryMetrics struct {
	TotalFilters        int     `json:"total_filters"`
	TotalVisualizations int     `json:"total_visualizations"`
	CompleteLinks       int     `json:"complete_links"`
	PartialLinks        int     `json:"partial_links"`
	MissingLinks        int     `json:"missing_links"`
	AvgCoverage         float64 `json:"avg_coverage"`
}

// ExploreStats groups tiles by the explore they query.
type ExploreStats struct {
	Explore            string   `json:"explore"`
	TotalTiles         int      `json:"total_tiles"`
	TileHasFilter      int      `json:"tile_has_filter"`
	TileHasNoFilter    int      `json:"tile_has_no_filter"`
	Tiles              []string `json:"tiles"`
	CoveragePercentage float64  `json:"coverage_percentage"`
}

// TileRef identifies a tile together with its explore.
type TileRef struct {
	Title   string `json:"title"`
	Explore string `json:"explore"`
}

// Coverage notes attached to a FilterDetail.
const (
	CoverageNoteComplete = "complete"
	CoverageNotePartial  = "partial"
	CoverageNoteLow      = "low"
)

// FilterDetail is the drill-down view of a single filter.
type FilterDetail struct {
	Analysis        FilterAnalysis `json:"analysis"`
	Linked          []TileRef      `json:"linked"`
	Unlinked        []TileRef      `json:"unlinked"`
	CoveredExplores []string       `json:"covered_explores"`
	TotalExplores   int            `json:"total_explores"`
	CoverageNote    string         `json:"coverage_note"`
}

// Report bundles everything derived from one dashboard load.
type Report struct {
	Dashboard      *Dashboard       `json:"dashboard"`
	FilterAnalysis []FilterAnalysis `json:"filter_analysis"`
	SummaryMetrics SummaryMetrics   `json:"summary_metrics"`
	Explores       []ExploreStats   `json:"explores,omitempty"`
	Issues         []string         `json:"issues,omitempty"`
	Checksum       string           `json:"checksum,omitempty"`
}
