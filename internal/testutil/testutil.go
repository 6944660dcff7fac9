// Package testutil provides shared test helpers for dashboard directories
// and run history databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/lookviz/internal/history"
	"github.com/starford/lookviz/internal/storage"
)

// SalesDashboard has one complete (Region), one partial (Date) and one
// missing (Status) filter over two tiles. Its average coverage is 50.
const SalesDashboard = `
- dashboard: sales_overview
  title: Sales Overview
  filters:
  - name: region
    title: Region
    type: field_filter
    field: orders.region
  - name: date
    title: Date
    type: date_filter
    field: orders.created_date
  - name: status
    title: Status
    type: field_filter
    field: orders.status
  elements:
  - title: Revenue by Month
    name: revenue
    type: looker_line
    explore: orders
    listen:
      Region: orders.region
      Date: orders.created_date
  - title: Notes
    name: notes
    type: text
  - title: Users
    name: users
    type: looker_grid
    explore: users
    listen:
      Region: users.region
`

// TestHistory creates a temporary run history that is automatically closed.
func TestHistory(t *testing.T) *history.DB {
	t.Helper()
	db, err := history.Open(filepath.Join(t.TempDir(), "lookviz-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestDashboards creates a temporary dashboards directory holding files and
// returns it with a storage.FS rooted there.
func TestDashboards(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		abs := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
