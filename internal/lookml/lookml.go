// Package lookml turns LookML dashboard YAML into typed dashboard records.
//
// The loader is lenient: any key that is missing or has an unexpected type
// falls back to a zero default instead of failing. Only unreadable files and
// undecodable YAML are reported as errors.
package lookml

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/lookviz/internal/apperr"
	"github.com/starford/lookviz/internal/models"
)

// UnknownDashboard is the name used when the source names no dashboard.
const UnknownDashboard = "Unknown Dashboard"

// excludedTypes are presentational tile types that never bind to filters.
var excludedTypes = map[string]struct{}{
	"text":          {},
	"single_value":  {},
	"single_number": {},
}

// Extensions lists the file extensions accepted as dashboard sources.
var Extensions = []string{".lookml", ".yaml", ".yml"}

// SupportedExt reports whether name has a dashboard source extension.
func SupportedExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Excluded reports whether tiles of the given type are dropped during loading.
func Excluded(tileType string) bool {
	_, ok := excludedTypes[tileType]
	return ok
}

// LoadFile reads and parses the dashboard at path.
func LoadFile(path string) (*models.Dashboard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &apperr.LoadError{Path: path, Err: err}
	}
	return Parse(data, path)
}

// Parse decodes dashboard source text. filePath is recorded on the result
// and used in error messages only.
func Parse(data []byte, filePath string) (*models.Dashboard, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &apperr.LoadError{Path: filePath, Err: err}
	}

	d := &models.Dashboard{
		Name:           UnknownDashboard,
		FilePath:       filePath,
		Filters:        []models.Filter{},
		Visualizations: []models.Tile{},
	}

	seq, ok := doc.([]any)
	if !ok || len(seq) == 0 {
		return d, nil
	}
	root, ok := asMap(seq[0])
	if !ok {
		return d, nil
	}

	d.Name = dashboardName(root)

	for _, raw := range asList(root["filters"]) {
		m, ok := asMap(raw)
		if !ok {
			continue
		}
		d.Filters = append(d.Filters, parseFilter(m))
	}

	for _, raw := range asList(root["elements"]) {
		m, ok := asMap(raw)
		if !ok {
			continue
		}
		if Excluded(str(m["type"])) {
			continue
		}
		d.Visualizations = append(d.Visualizations, parseTile(m))
	}

	return d, nil
}

// dashboardName prefers "dashboard", then "title", then UnknownDashboard.
func dashboardName(m map[string]any) string {
	for _, key := range []string{"dashboard", "title"} {
		if s := str(m[key]); s != "" {
			return s
		}
	}
	return UnknownDashboard
}

func parseFilter(m map[string]any) models.Filter {
	return models.Filter{
		Name:                str(m["name"]),
		Title:               str(m["title"]),
		Type:                str(m["type"]),
		Field:               str(m["field"]),
		ListensToFilters:    strList(m["listens_to_filters"]),
		Model:               str(m["model"]),
		Explore:             str(m["explore"]),
		DefaultValue:        str(m["default_value"]),
		AllowMultipleValues: boolean(m["allow_multiple_values"]),
		Required:            boolean(m["required"]),
	}
}

func parseTile(m map[string]any) models.Tile {
	title := str(m["title"])
	if title == "" {
		title = str(m["single_value_title"])
	}
	return models.Tile{
		Title:   title,
		Name:    str(m["name"]),
		Type:    str(m["type"]),
		Explore: str(m["explore"]),
		Listen:  strMap(m["listen"]),
		Fields:  strList(m["fields"]),
		Row:     integer(m["row"]),
		Col:     integer(m["col"]),
		Width:   integer(m["width"]),
		Height:  integer(m["height"]),
	}
}

// asMap accepts both key shapes yaml.v3 can produce for a mapping.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[str(k)] = val
		}
		return out, true
	}
	return nil, false
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

// str renders scalars as text; nil and composite values become "".
func str(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(s)
	case time.Time:
		if s.Hour() == 0 && s.Minute() == 0 && s.Second() == 0 && s.Nanosecond() == 0 {
			return s.Format(time.DateOnly)
		}
		return s.Format(time.RFC3339)
	}
	return ""
}

func strList(v any) []string {
	out := []string{}
	for _, item := range asList(v) {
		if s := str(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func strMap(v any) map[string]string {
	out := map[string]string{}
	m, ok := asMap(v)
	if !ok {
		return out
	}
	for k, val := range m {
		out[k] = str(val)
	}
	return out
}

func boolean(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		return err == nil && parsed
	}
	return false
}

func integer(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err == nil {
			return i
		}
	}
	return 0
}
