package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lookviz/internal/dashboardsvc"
)

// RouterConfig carries the HTTP-facing settings of the API.
type RouterConfig struct {
	AuthEnabled    bool
	Token          string
	MaxUploadBytes int64
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *dashboardsvc.Service, sessions *Sessions, cfg RouterConfig) chi.Router {
	h := NewHandler(svc, sessions)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	// Dashboard directory.
	r.Get("/dashboards", h.ListDashboards)
	r.Post("/dashboards", h.UploadDashboard(cfg.MaxUploadBytes))
	r.Delete("/dashboards/*", h.DeleteDashboard)

	// Current dashboard.
	r.Get("/session/dashboard", h.CurrentDashboard)
	r.Put("/session/dashboard", h.SelectDashboard)

	// Analysis views.
	r.Get("/report", h.Report)
	r.Get("/filters/{title}", h.FilterDetail)
	r.Get("/graph", h.Graph)
	r.Get("/chart/coverage", h.CoverageChart)
	r.Get("/export", h.Export)

	r.Get("/history", h.History)

	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}

	return r
}
