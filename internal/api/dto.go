package api

import (
	"github.com/starford/lookviz/internal/chart"
	"github.com/starford/lookviz/internal/models"
)

// SelectDashboardRequest is the request body for PUT /api/session/dashboard.
type SelectDashboardRequest struct {
	Path string `json:"path" example:"sales.dashboard.lookml" validate:"required"`
}

// SessionResponse describes the caller's current dashboard.
type SessionResponse struct {
	Path    string                 `json:"path"`
	Name    string                 `json:"name,omitempty"`
	Summary *models.SummaryMetrics `json:"summary_metrics,omitempty"`
}

// DashboardListResponse wraps the dashboard directory listing.
type DashboardListResponse struct {
	Dashboards []models.DashboardFile `json:"dashboards" validate:"required"`
	Current    string                 `json:"current"`
}

// FilterDetailResponse is the drill-down of one filter with its pie charts.
type FilterDetailResponse struct {
	Detail *models.FilterDetail `json:"detail" validate:"required"`
	Charts []chart.PieChart     `json:"charts" validate:"required"`
}
