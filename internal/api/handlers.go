package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lookviz/internal/apperr"
	"github.com/starford/lookviz/internal/chart"
	"github.com/starford/lookviz/internal/dashboardsvc"
	"github.com/starford/lookviz/internal/export"
	"github.com/starford/lookviz/internal/graph"
)

// Handler holds API route handlers.
type Handler struct {
	svc      *dashboardsvc.Service
	sessions *Sessions
}

// NewHandler creates a new Handler.
func NewHandler(svc *dashboardsvc.Service, sessions *Sessions) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

// dashboardPath returns the ?path= override or the session's current
// dashboard.
func (h *Handler) dashboardPath(r *http.Request) (string, error) {
	if p := r.URL.Query().Get("path"); p != "" {
		return p, nil
	}
	if p := h.sessions.Current(r); p != "" {
		return p, nil
	}
	return "", apperr.ErrNoDashboard
}

// wildcardPath extracts the path captured by a trailing "/*" route.
// Supports encoded slashes (e.g. team%2Fsales.lookml).
func wildcardPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListDashboards handles GET /api/dashboards.
//
//	@Summary		List dashboard files in the dashboards directory
//	@Tags			dashboards
//	@Produce		json
//	@Success		200	{object}	DashboardListResponse
//	@Security		BearerAuth
//	@Router			/dashboards [get]
func (h *Handler) ListDashboards(w http.ResponseWriter, r *http.Request) {
	files, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, "list dashboards", err)
		return
	}
	writeJSON(w, http.StatusOK, DashboardListResponse{
		Dashboards: files,
		Current:    h.sessions.Current(r),
	})
}

// DeleteDashboard handles DELETE /api/dashboards/*.
//
//	@Summary		Delete a dashboard file
//	@Tags			dashboards
//	@Param			path	path	string	true	"Dashboard path"
//	@Success		204		"Dashboard deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/dashboards/{path} [delete]
func (h *Handler) DeleteDashboard(w http.ResponseWriter, r *http.Request) {
	p := wildcardPath(r)
	if err := h.svc.Delete(r.Context(), p); err != nil {
		writeError(w, r, "delete dashboard", err)
		return
	}
	if h.sessions.Current(r) == p {
		_ = h.sessions.SetCurrent(w, r, "")
	}
	w.WriteHeader(http.StatusNoContent)
}

// CurrentDashboard handles GET /api/session/dashboard.
//
//	@Summary		Get the session's current dashboard
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	SessionResponse
//	@Failure		404	{object}	errResponse
//	@Failure		422	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session/dashboard [get]
func (h *Handler) CurrentDashboard(w http.ResponseWriter, r *http.Request) {
	p := h.sessions.Current(r)
	if p == "" {
		writeJSON(w, http.StatusOK, SessionResponse{})
		return
	}
	report, err := h.svc.Load(r.Context(), p)
	if err != nil {
		writeError(w, r, "current dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{
		Path:    p,
		Name:    report.Dashboard.Name,
		Summary: &report.SummaryMetrics,
	})
}

// SelectDashboard handles PUT /api/session/dashboard.
//
//	@Summary		Select the dashboard analyzed by subsequent requests
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SelectDashboardRequest	true	"Dashboard to select"
//	@Success		200		{object}	SessionResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session/dashboard [put]
func (h *Handler) SelectDashboard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SelectDashboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	report, err := h.svc.Load(r.Context(), req.Path)
	if err != nil {
		writeError(w, r, "select dashboard", err)
		return
	}
	if err := h.sessions.SetCurrent(w, r, req.Path); err != nil {
		writeError(w, r, "save session", err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{
		Path:    req.Path,
		Name:    report.Dashboard.Name,
		Summary: &report.SummaryMetrics,
	})
}

// Report handles GET /api/report.
//
//	@Summary		Analyze the current dashboard
//	@Tags			analysis
//	@Produce		json
//	@Param			path	query		string	false	"Dashboard path (defaults to the session's current dashboard)"
//	@Success		200		{object}	models.Report
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/report [get]
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	p, err := h.dashboardPath(r)
	if err != nil {
		writeError(w, r, "report", err)
		return
	}
	report, err := h.svc.Load(r.Context(), p)
	if err != nil {
		writeError(w, r, "report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// FilterDetail handles GET /api/filters/{title}.
//
//	@Summary		Drill down into one filter
//	@Tags			analysis
//	@Produce		json
//	@Param			title	path		string	true	"Filter title"
//	@Param			path	query		string	false	"Dashboard path"
//	@Success		200		{object}	FilterDetailResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/filters/{title} [get]
func (h *Handler) FilterDetail(w http.ResponseWriter, r *http.Request) {
	p, err := h.dashboardPath(r)
	if err != nil {
		writeError(w, r, "filter detail", err)
		return
	}
	title := chi.URLParam(r, "title")
	if decoded, err := url.PathUnescape(title); err == nil {
		title = decoded
	}
	detail, err := h.svc.FilterDetail(r.Context(), p, title)
	if err != nil {
		writeError(w, r, "filter detail", err)
		return
	}
	writeJSON(w, http.StatusOK, FilterDetailResponse{Detail: detail, Charts: chart.Pies(*detail)})
}

// Graph handles GET /api/graph.
//
//	@Summary		Filter/tile network of the current dashboard
//	@Tags			analysis
//	@Produce		json,text/vnd.graphviz,image/svg+xml
//	@Param			format			query		string	false	"json, dot or svg"	Enums(json, dot, svg)
//	@Param			min_coverage	query		number	false	"Hide filters below this coverage"
//	@Param			max_links		query		int		false	"Hide filters with more links"
//	@Param			show_filters	query		bool	false	"Include filter nodes"
//	@Param			show_tiles		query		bool	false	"Include tile nodes"
//	@Param			q				query		string	false	"Filter title/field substring"
//	@Param			layout			query		string	false	"Physics layout"
//	@Param			detailed		query		bool	false	"Table-style labels"
//	@Success		200				{object}	graph.Graph
//	@Failure		400				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	p, err := h.dashboardPath(r)
	if err != nil {
		writeError(w, r, "graph", err)
		return
	}
	opts, err := graphOptions(r.URL.Query())
	if err != nil {
		writeError(w, r, "graph", err)
		return
	}
	g, err := h.svc.Graph(r.Context(), p, opts)
	if err != nil {
		writeError(w, r, "graph", err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, g)
	case "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		_, _ = w.Write([]byte(graph.ToDOT(g)))
	case "svg":
		svg, err := graph.RenderSVG(r.Context(), graph.ToDOT(g))
		if err != nil {
			writeError(w, r, "render svg", err)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(svg)
	default:
		writeError(w, r, "graph", fmt.Errorf("graph format %q: %w", format, apperr.ErrUnsupportedFormat))
	}
}

// graphOptions parses graph query parameters over DefaultOptions.
func graphOptions(q url.Values) (graph.Options, error) {
	opts := graph.DefaultOptions()
	var err error
	if v := q.Get("min_coverage"); v != "" {
		if opts.MinCoverage, err = strconv.ParseFloat(v, 64); err != nil {
			return opts, fmt.Errorf("min_coverage %q: %w", v, apperr.ErrInvalidArgument)
		}
	}
	if v := q.Get("max_links"); v != "" {
		if opts.MaxLinks, err = strconv.Atoi(v); err != nil {
			return opts, fmt.Errorf("max_links %q: %w", v, apperr.ErrInvalidArgument)
		}
	}
	for name, dst := range map[string]*bool{
		"show_filters": &opts.ShowFilters,
		"show_tiles":   &opts.ShowTiles,
		"detailed":     &opts.Detailed,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		if *dst, err = strconv.ParseBool(v); err != nil {
			return opts, fmt.Errorf("%s %q: %w", name, v, apperr.ErrInvalidArgument)
		}
	}
	opts.NameFilter = q.Get("q")
	if opts.Layout, err = graph.ParseLayout(q.Get("layout")); err != nil {
		return opts, err
	}
	return opts, nil
}

// CoverageChart handles GET /api/chart/coverage.
//
//	@Summary		Coverage bar chart of the current dashboard
//	@Tags			analysis
//	@Produce		json
//	@Success		200	{object}	chart.BarChart
//	@Security		BearerAuth
//	@Router			/chart/coverage [get]
func (h *Handler) CoverageChart(w http.ResponseWriter, r *http.Request) {
	p, err := h.dashboardPath(r)
	if err != nil {
		writeError(w, r, "coverage chart", err)
		return
	}
	report, err := h.svc.Load(r.Context(), p)
	if err != nil {
		writeError(w, r, "coverage chart", err)
		return
	}
	writeJSON(w, http.StatusOK, chart.Coverage(report.FilterAnalysis))
}

// Export handles GET /api/export.
//
//	@Summary		Download the current analysis
//	@Tags			analysis
//	@Produce		json,text/csv,text/markdown
//	@Param			format	query	string	false	"Export format"	Enums(json, csv, markdown, table)
//	@Success		200
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	p, err := h.dashboardPath(r)
	if err != nil {
		writeError(w, r, "export", err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = string(export.FormatJSON)
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		writeError(w, r, "export", err)
		return
	}

	var buf bytes.Buffer
	if err := h.svc.Export(r.Context(), p, f, &buf); err != nil {
		writeError(w, r, "export", err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType(f))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(f)))
	_, _ = w.Write(buf.Bytes())
}

// History handles GET /api/history.
//
//	@Summary		Recorded analysis runs, newest first
//	@Tags			history
//	@Produce		json
//	@Param			limit	query		int	false	"Max runs"
//	@Success		200		{array}		history.Run
//	@Security		BearerAuth
//	@Router			/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.svc.History(r.Context(), limit)
	if err != nil {
		writeError(w, r, "history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}
