package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/lookviz/internal/apperr"
	"github.com/starford/lookviz/internal/models"
)

const defaultListLimit = 50

// Run is one recorded analysis of a dashboard file.
type Run struct {
	ID        string                `json:"id"`
	Path      string                `json:"path"`
	Name      string                `json:"name"`
	Checksum  string                `json:"checksum"`
	Summary   models.SummaryMetrics `json:"summary_metrics"`
	CreatedAt time.Time             `json:"created_at"`
}

// RunFromReport builds a Run for the dashboard behind report.
func RunFromReport(path string, report *models.Report) Run {
	r := Run{Path: path, Checksum: report.Checksum, Summary: report.SummaryMetrics}
	if report.Dashboard != nil {
		r.Name = report.Dashboard.Name
	}
	return r
}

// RecordRun inserts r, assigning an ID and timestamp when they are unset.
func (db *DB) RecordRun(r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s := r.Summary
	_, err := db.conn.Exec(`
		INSERT INTO runs (id, path, name, checksum, total_filters, total_visualizations,
			complete_links, partial_links, missing_links, avg_coverage, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Path, r.Name, r.Checksum, s.TotalFilters, s.TotalVisualizations,
		s.CompleteLinks, s.PartialLinks, s.MissingLinks, s.AvgCoverage, r.CreatedAt)
	if err != nil {
		return Run{}, fmt.Errorf("history: insert run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := db.conn.Query(`
		SELECT id, path, name, checksum, total_filters, total_visualizations,
			complete_links, partial_links, missing_links, avg_coverage, created_at
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestByPath returns the newest run recorded for path.
func (db *DB) LatestByPath(path string) (*Run, error) {
	row := db.conn.QueryRow(`
		SELECT id, path, name, checksum, total_filters, total_visualizations,
			complete_links, partial_links, missing_links, avg_coverage, created_at
		FROM runs
		WHERE path = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, path)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("history: %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var r Run
	s := &r.Summary
	err := sc.Scan(&r.ID, &r.Path, &r.Name, &r.Checksum, &s.TotalFilters, &s.TotalVisualizations,
		&s.CompleteLinks, &s.PartialLinks, &s.MissingLinks, &s.AvgCoverage, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return r, err
	}
	if err != nil {
		return r, fmt.Errorf("history: scan run: %w", err)
	}
	return r, nil
}
