// Package models defines the domain types for lookviz.
package models

import "time"

// Filter is a dashboard-level control. Title is the join key used by tile
// listen mappings, not Name.
type Filter struct {
	Name                string   `json:"name"`
	Title               string   `json:"title"`
	Type                string   `json:"type"`
	Field               string   `json:"field"`
	ListensToFilters    []string `json:"listens_to_filters"`
	Model               string   `json:"model"`
	Explore             string   `json:"explore"`
	DefaultValue        string   `json:"default_value"`
	AllowMultipleValues bool     `json:"allow_multiple_values"`
	Required            bool     `json:"required"`
}

// Tile is a data-bound dashboard element. Listen maps filter title to the
// field the tile applies that filter to.
type Tile struct {
	Title   string            `json:"title"`
	Name    string            `json:"name"`
	Type    string            `json:"type"`
	Explore string            `json:"explore"`
	Listen  map[string]string `json:"listen"`
	Fields  []string          `json:"fields"`
	Row     int               `json:"row"`
	Col     int               `json:"col"`
	Width   int               `json:"width"`
	Height  int               `json:"height"`
}

// Listens reports whether the tile listens to the filter with the given title.
func (t Tile) Listens(filterTitle string) bool {
	_, ok := t.Listen[filterTitle]
	return ok
}

// Dashboard is a parsed dashboard. It is not mutated after loading.
type Dashboard struct {
	Name           string   `json:"name"`
	FilePath       string   `json:"file_path"`
	Filters        []Filter `json:"filters"`
	Visualizations []Tile   `json:"visualizations"`
}

// DashboardFile is a lightweight entry returned by directory listings.
type DashboardFile struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
