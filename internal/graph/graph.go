// Package graph builds the filter/tile network exposed to graph renderers.
//
// Nodes are keyed by kind and title so a filter and a tile that share a title
// stay distinct. Edges are only emitted between visible nodes; an edge whose
// endpoint was filtered out is dropped rather than left dangling.
package graph

import (
	"fmt"
	"strings"

	"github.com/starford/lookviz/internal/models"
)

// NodeKind distinguishes filter nodes from tile nodes.
type NodeKind string

const (
	KindFilter NodeKind = "filter"
	KindTile   NodeKind = "visualization"
)

// EdgeKind distinguishes filter→tile links from filter→filter dependencies.
type EdgeKind string

const (
	EdgeLink       EdgeKind = "link"
	EdgeDependency EdgeKind = "dependency"
)

const (
	tileColor       = "#2196f3"
	linkColor       = "#667eea"
	dependencyColor = "#96ceb4"
)

// Node is a graph vertex with the attributes renderers need.
type Node struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Group NodeKind `json:"group"`
	Title string   `json:"title"`
	Color string   `json:"color"`
	Size  int      `json:"size"`
	Shape string   `json:"shape,omitempty"`

	Type string `json:"type"`

	// Filter attributes.
	Coverage  float64       `json:"coverage,omitempty"`
	Status    models.Status `json:"status,omitempty"`
	LinkCount int           `json:"link_count,omitempty"`
	Field     string        `json:"field,omitempty"`

	// Tile attributes.
	Explore     string `json:"explore,omitempty"`
	FilterCount int    `json:"filter_count,omitempty"`
	Row         int    `json:"row,omitempty"`
	Col         int    `json:"col,omitempty"`
}

// Edge is a directed connection between two node IDs.
type Edge struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Kind  EdgeKind `json:"kind"`
	Color string   `json:"color"`
	Width int      `json:"width"`
	Title string   `json:"title"`
}

// Graph is the renderer-neutral network.
type Graph struct {
	Nodes   []Node         `json:"nodes"`
	Edges   []Edge         `json:"edges"`
	Layout  Layout         `json:"layout"`
	Physics map[string]any `json:"physics"`
}

// Options narrows and styles the graph.
type Options struct {
	MinCoverage float64
	MaxLinks    int
	ShowFilters bool
	ShowTiles   bool
	// NameFilter keeps filters whose title or field contains it (case-insensitive).
	NameFilter  string
	Layout      Layout
	MinNodeSize int
	MaxNodeSize int
	// Detailed renders table-style labels.
	Detailed bool
}

// DefaultOptions shows everything with the barnesHut layout.
func DefaultOptions() Options {
	return Options{
		MinCoverage: 0,
		MaxLinks:    100,
		ShowFilters: true,
		ShowTiles:   true,
		Layout:      LayoutBarnesHut,
		MinNodeSize: 10,
		MaxNodeSize: 50,
	}
}

// FilterID returns the node ID of a filter.
func FilterID(title string) string { return "filter:" + title }

// TileID returns the node ID of a tile.
func TileID(title string) string { return "tile:" + title }

// Visible returns the analyses that pass the coverage, link and name filters.
func Visible(analyses []models.FilterAnalysis, opts Options) []models.FilterAnalysis {
	needle := strings.ToLower(strings.TrimSpace(opts.NameFilter))
	out := make([]models.FilterAnalysis, 0, len(analyses))
	for _, a := range analyses {
		if a.CoveragePercentage < opts.MinCoverage || a.LinkCount > opts.MaxLinks {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(a.FilterTitle), needle) &&
			!strings.Contains(strings.ToLower(a.Field), needle) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Build assembles nodes and edges for the dashboard.
func Build(d *models.Dashboard, analyses []models.FilterAnalysis, opts Options) *Graph {
	if opts.Layout == "" {
		opts.Layout = LayoutBarnesHut
	}
	g := &Graph{
		Nodes:   []Node{},
		Edges:   []Edge{},
		Layout:  opts.Layout,
		Physics: Physics(opts.Layout),
	}
	detailed := opts.Detailed || opts.Layout == LayoutERD

	visible := Visible(analyses, opts)
	visibleSet := make(map[string]struct{}, len(visible))
	for _, a := range visible {
		visibleSet[a.FilterTitle] = struct{}{}
	}

	seen := map[string]struct{}{}
	addNode := func(n Node) {
		if _, dup := seen[n.ID]; dup {
			return
		}
		seen[n.ID] = struct{}{}
		g.Nodes = append(g.Nodes, n)
	}

	if opts.ShowFilters {
		for _, a := range visible {
			n := Node{
				ID:        FilterID(a.FilterTitle),
				Label:     a.FilterTitle,
				Group:     KindFilter,
				Title:     filterTooltip(a),
				Color:     a.Status.Color(),
				Size:      clamp(a.LinkCount*2, opts.MinNodeSize, opts.MaxNodeSize),
				Type:      a.FilterType,
				Coverage:  a.CoveragePercentage,
				Status:    a.Status,
				LinkCount: a.LinkCount,
				Field:     a.Field,
			}
			if detailed {
				n.Label = filterTable(a)
				n.Shape = "box"
				n.Size = 40
			}
			addNode(n)
		}
	}

	if opts.ShowTiles {
		for _, t := range d.Visualizations {
			n := Node{
				ID:          TileID(t.Title),
				Label:       t.Title,
				Group:       KindTile,
				Title:       tileTooltip(t),
				Color:       tileColor,
				Size:        clamp(len(t.Listen)*2, opts.MinNodeSize, opts.MaxNodeSize),
				Type:        t.Type,
				Explore:     t.Explore,
				FilterCount: len(t.Listen),
				Row:         t.Row,
				Col:         t.Col,
			}
			if detailed {
				n.Label = tileTable(t)
				n.Shape = "box"
				n.Size = 40
			}
			addNode(n)
		}
	}

	edgeSeen := map[[2]string]struct{}{}
	addEdge := func(e Edge) {
		key := [2]string{e.From, e.To}
		if _, dup := edgeSeen[key]; dup {
			return
		}
		edgeSeen[key] = struct{}{}
		g.Edges = append(g.Edges, e)
	}

	if opts.ShowFilters && opts.ShowTiles {
		for _, t := range d.Visualizations {
			for _, a := range visible {
				if !t.Listens(a.FilterTitle) {
					continue
				}
				addEdge(Edge{
					From:  FilterID(a.FilterTitle),
					To:    TileID(t.Title),
					Kind:  EdgeLink,
					Color: linkColor,
					Width: 2,
					Title: fmt.Sprintf("Filter Link: %s → %s", a.FilterTitle, t.Title),
				})
			}
		}
	}

	if opts.ShowFilters {
		for _, a := range visible {
			for _, dep := range a.ListensToFilters {
				if _, ok := visibleSet[dep]; !ok {
					continue
				}
				addEdge(Edge{
					From:  FilterID(dep),
					To:    FilterID(a.FilterTitle),
					Kind:  EdgeDependency,
					Color: dependencyColor,
					Width: 1,
					Title: fmt.Sprintf("Filter Dependency: %s → %s", dep, a.FilterTitle),
				})
			}
		}
	}

	return g
}

// HasEdge reports whether the graph contains an edge between the two node IDs.
func (g *Graph) HasEdge(from, to string) bool {
	for _, e := range g.Edges {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

func filterTooltip(a models.FilterAnalysis) string {
	return fmt.Sprintf("Filter: %s\nType: %s\nField: %s\nCoverage: %.1f%%\nLinks: %d\nStatus: %s",
		a.FilterTitle, a.FilterType, a.Field, a.CoveragePercentage, a.LinkCount, a.Status.Title())
}

func tileTooltip(t models.Tile) string {
	return fmt.Sprintf("Visualization: %s\nType: %s\nExplore: %s\nFilters: %d\nPosition: Row %d, Col %d",
		t.Title, t.Type, t.Explore, len(t.Listen), t.Row, t.Col)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func filterTable(a models.FilterAnalysis) string {
	return strings.Join([]string{
		"FILTER: " + a.FilterTitle,
		"Type: " + a.FilterType,
		"Field: " + truncate(a.Field, 20),
		fmt.Sprintf("Coverage: %.1f%%", a.CoveragePercentage),
		fmt.Sprintf("Links: %d", a.LinkCount),
		"Status: " + strings.ToUpper(string(a.Status)),
	}, "\n")
}

func tileTable(t models.Tile) string {
	return strings.Join([]string{
		"VIZ: " + truncate(t.Title, 25),
		"Type: " + t.Type,
		"Explore: " + truncate(t.Explore, 18),
		fmt.Sprintf("Filters: %d", len(t.Listen)),
		fmt.Sprintf("Pos: %d,%d", t.Row, t.Col),
	}, "\n")
}
