// Package dashboardsvc coordinates the dashboard directory, the analysis
// pipeline and the run history.
package dashboardsvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/starford/lookviz/internal/apperr"
	"github.com/starford/lookviz/internal/checksum"
	"github.com/starford/lookviz/internal/coverage"
	"github.com/starford/lookviz/internal/export"
	"github.com/starford/lookviz/internal/graph"
	"github.com/starford/lookviz/internal/history"
	"github.com/starford/lookviz/internal/lookml"
	"github.com/starford/lookviz/internal/models"
	"github.com/starford/lookviz/internal/storage"
)

const kindAnalyzed = "analyzed"

// Notifier receives dashboard change notifications.
type Notifier interface {
	PublishDashboardEvent(kind, path string, summary *models.SummaryMetrics)
}

// Service loads and analyzes dashboards stored below a root directory.
// runs and events are optional.
type Service struct {
	store  storage.Provider
	runs   history.Store
	events Notifier
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithHistory records every analysis whose source changed since the last
// recorded run.
func WithHistory(runs history.Store) Option {
	return func(s *Service) { s.runs = runs }
}

// WithNotifier publishes dashboard events after analyses and deletions.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.events = n }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a dashboard service.
func New(store storage.Provider, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the dashboard files available for analysis.
func (s *Service) List(_ context.Context) ([]models.DashboardFile, error) {
	return s.store.List("")
}

// Load reads, parses and analyzes the dashboard at p.
func (s *Service) Load(_ context.Context, p string) (*models.Report, error) {
	if err := checkName(p); err != nil {
		return nil, err
	}
	data, err := s.store.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("dashboard %s: %w", p, apperr.ErrNotFound)
		}
		return nil, &apperr.LoadError{Path: p, Err: err}
	}
	return s.analyze(p, data)
}

// Save validates data as a dashboard, stores it under name and returns its
// report. Invalid sources are rejected before anything is written.
func (s *Service) Save(_ context.Context, name string, data []byte) (*models.Report, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if _, err := lookml.Parse(data, name); err != nil {
		return nil, err
	}
	if err := s.store.Write(name, data); err != nil {
		return nil, fmt.Errorf("save dashboard %s: %w", name, err)
	}
	return s.analyze(name, data)
}

// Delete removes the dashboard file at p.
func (s *Service) Delete(_ context.Context, p string) error {
	if err := checkName(p); err != nil {
		return err
	}
	if err := s.store.Delete(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("dashboard %s: %w", p, apperr.ErrNotFound)
		}
		return err
	}
	s.publish(history.EventDeleted, p, nil)
	return nil
}

// FilterDetail returns the drill-down view of the filter titled title.
func (s *Service) FilterDetail(ctx context.Context, p, title string) (*models.FilterDetail, error) {
	report, err := s.Load(ctx, p)
	if err != nil {
		return nil, err
	}
	return DetailOf(report, title)
}

// Graph builds the filter/tile network for the dashboard at p.
func (s *Service) Graph(ctx context.Context, p string, opts graph.Options) (*graph.Graph, error) {
	report, err := s.Load(ctx, p)
	if err != nil {
		return nil, err
	}
	return graph.Build(report.Dashboard, report.FilterAnalysis, opts), nil
}

// Export writes the dashboard report at p to w in format f.
func (s *Service) Export(ctx context.Context, p string, f export.Format, w io.Writer) error {
	report, err := s.Load(ctx, p)
	if err != nil {
		return err
	}
	return export.Write(w, f, report)
}

// History returns recorded runs, newest first.
func (s *Service) History(_ context.Context, limit int) ([]history.Run, error) {
	if s.runs == nil {
		return []history.Run{}, nil
	}
	return s.runs.ListRuns(limit)
}

// HandleFileEvent re-analyzes a dashboard after a directory change and
// publishes the result. It is meant to be passed to history.Watch.
func (s *Service) HandleFileEvent(kind, p string) {
	if kind == history.EventDeleted {
		s.publish(kind, p, nil)
		return
	}
	report, err := s.Load(context.Background(), p)
	if err != nil {
		s.logger.Warn("re-analyze failed", slog.String("path", p), slog.String("error", err.Error()))
		return
	}
	s.publish(kind, p, &report.SummaryMetrics)
}

// DetailOf looks up title in report and builds its FilterDetail.
func DetailOf(report *models.Report, title string) (*models.FilterDetail, error) {
	a, ok := coverage.Find(report.FilterAnalysis, title)
	if !ok {
		return nil, fmt.Errorf("filter %q: %w", title, apperr.ErrNotFound)
	}
	d := coverage.Detail(report.Dashboard, a)
	return &d, nil
}

func (s *Service) analyze(p string, data []byte) (*models.Report, error) {
	d, err := lookml.Parse(data, p)
	if err != nil {
		return nil, err
	}
	report := coverage.Build(d)
	report.Checksum = checksum.Sum(data)
	s.record(p, report)
	return report, nil
}

// record stores a run when the source differs from the last recorded one.
func (s *Service) record(p string, report *models.Report) {
	if s.runs == nil {
		return
	}
	if last, err := s.runs.LatestByPath(p); err == nil && last.Checksum == report.Checksum {
		return
	}
	run, err := s.runs.RecordRun(history.RunFromReport(p, report))
	if err != nil {
		s.logger.Warn("record run failed", slog.String("path", p), slog.String("error", err.Error()))
		return
	}
	s.logger.Debug("run recorded", slog.String("id", run.ID), slog.String("path", p))
	s.publish(kindAnalyzed, p, &report.SummaryMetrics)
}

func (s *Service) publish(kind, p string, summary *models.SummaryMetrics) {
	if s.events != nil {
		s.events.PublishDashboardEvent(kind, p, summary)
	}
}

// checkName rejects empty names and files the loader does not read.
func checkName(p string) error {
	if strings.TrimSpace(p) == "" {
		return apperr.ErrNoDashboard
	}
	if !lookml.SupportedExt(path.Base(p)) {
		return fmt.Errorf("%s: %w (want one of %s)", p, apperr.ErrUnsupportedFormat, strings.Join(lookml.Extensions, ", "))
	}
	return nil
}
