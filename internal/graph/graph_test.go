package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lookviz/internal/coverage"
	"github.com/starford/lookviz/internal/models"
)

func dependencyDashboard() *models.Dashboard {
	return &models.Dashboard{
		Filters: []models.Filter{
			{Title: "A", Type: "field_filter", Field: "orders.region", ListensToFilters: []string{}},
			{Title: "B", Type: "date_filter", Field: "orders.date", ListensToFilters: []string{}},
			{Title: "C", Type: "field_filter", Field: "orders.city", ListensToFilters: []string{"A", "Ghost"}},
		},
		Visualizations: []models.Tile{
			{Title: "t1", Type: "looker_line", Explore: "orders", Listen: map[string]string{"A": "x", "C": "y"}},
			{Title: "t2", Type: "looker_bar", Explore: "orders", Listen: map[string]string{"A": "x", "B": "z"}},
		},
	}
}

func build(t *testing.T, opts Options) *Graph {
	t.Helper()
	d := dependencyDashboard()
	return Build(d, coverage.Analyze(d), opts)
}

func TestBuild_NodesAndEdges(t *testing.T) {
	g := build(t, DefaultOptions())

	assert.Len(t, g.Nodes, 5)
	a, ok := g.Node(FilterID("A"))
	require.True(t, ok)
	assert.Equal(t, KindFilter, a.Group)
	assert.Equal(t, 2, a.LinkCount)
	assert.Equal(t, models.StatusComplete, a.Status)
	assert.Equal(t, 10, a.Size) // clamped up to MinNodeSize

	t1, ok := g.Node(TileID("t1"))
	require.True(t, ok)
	assert.Equal(t, "orders", t1.Explore)
	assert.Equal(t, 2, t1.FilterCount)

	assert.True(t, g.HasEdge(FilterID("A"), TileID("t1")))
	assert.True(t, g.HasEdge(FilterID("A"), TileID("t2")))
	assert.True(t, g.HasEdge(FilterID("C"), TileID("t1")))
	assert.True(t, g.HasEdge(FilterID("B"), TileID("t2")))
	assert.Len(t, g.Edges, 5)
}

func TestBuild_DependencyEdge(t *testing.T) {
	g := build(t, DefaultOptions())
	assert.True(t, g.HasEdge(FilterID("A"), FilterID("C")))
	// Ghost is not a filter on the dashboard.
	assert.False(t, g.HasEdge(FilterID("Ghost"), FilterID("C")))
}

func TestBuild_HiddenDependencyNotDangling(t *testing.T) {
	opts := DefaultOptions()
	opts.NameFilter = "city" // keeps only C
	g := build(t, opts)

	_, ok := g.Node(FilterID("A"))
	assert.False(t, ok)
	assert.False(t, g.HasEdge(FilterID("A"), FilterID("C")))
	assertNoDangling(t, g)
}

func TestBuild_MinCoverageAndMaxLinks(t *testing.T) {
	opts := DefaultOptions()
	opts.MinCoverage = 100
	g := build(t, opts)
	_, ok := g.Node(FilterID("B"))
	assert.False(t, ok)
	_, ok = g.Node(FilterID("A"))
	assert.True(t, ok)

	opts = DefaultOptions()
	opts.MaxLinks = 1
	g = build(t, opts)
	_, ok = g.Node(FilterID("A"))
	assert.False(t, ok)
	assertNoDangling(t, g)
}

func TestBuild_ShowToggles(t *testing.T) {
	opts := DefaultOptions()
	opts.ShowTiles = false
	g := build(t, opts)
	for _, n := range g.Nodes {
		assert.Equal(t, KindFilter, n.Group)
	}
	for _, e := range g.Edges {
		assert.Equal(t, EdgeDependency, e.Kind)
	}

	opts = DefaultOptions()
	opts.ShowFilters = false
	g = build(t, opts)
	assert.Len(t, g.Nodes, 2)
	assert.Empty(t, g.Edges)
}

func TestBuild_DetailedLabels(t *testing.T) {
	opts := DefaultOptions()
	opts.Layout = LayoutERD
	g := build(t, opts)
	a, _ := g.Node(FilterID("A"))
	assert.Equal(t, "box", a.Shape)
	assert.Contains(t, a.Label, "FILTER: A")
	assert.Contains(t, a.Label, "Status: COMPLETE")
	assert.Contains(t, g.Physics, "hierarchicalRepulsion")
}

func TestBuild_EmptyDashboard(t *testing.T) {
	d := &models.Dashboard{}
	g := Build(d, coverage.Analyze(d), DefaultOptions())
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
	assert.NotNil(t, g.Nodes)
}

func assertNoDangling(t *testing.T, g *Graph) {
	t.Helper()
	for _, e := range g.Edges {
		_, from := g.Node(e.From)
		_, to := g.Node(e.To)
		assert.True(t, from && to, "dangling edge %s -> %s", e.From, e.To)
	}
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout("")
	require.NoError(t, err)
	assert.Equal(t, LayoutBarnesHut, l)

	l, err = ParseLayout("forceAtlas2Based")
	require.NoError(t, err)
	assert.Equal(t, LayoutForceAtlas2, l)
	assert.Contains(t, Physics(l), "forceAtlas2Based")

	_, err = ParseLayout("spiral")
	assert.Error(t, err)
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(build(t, DefaultOptions()))
	assert.True(t, strings.HasPrefix(dot, "digraph filters {"))
	assert.Contains(t, dot, `"filter:A" -> "tile:t1"`)
	assert.Contains(t, dot, `"filter:A" -> "filter:C" [color="#96ceb4", penwidth=1, style=dashed]`)
	assert.True(t, strings.HasSuffix(dot, "}\n"))
}

func TestDotQuote(t *testing.T) {
	cases := map[string]string{
		"plain":       `"plain"`,
		`say "hi"`:    `"say \"hi\""`,
		`C:\dir`:      `"C:\\dir"`,
		"two\nlines":  `"two\nlines"`,
		"crlf\r\nend": `"crlf\nend"`,
		"tab\there":   "\"tab\there\"",
		"Région ✓":    `"Région ✓"`,
	}
	for in, want := range cases {
		assert.Equal(t, want, dotQuote(in), "input %q", in)
	}
}

func TestToDOT_SpecialTitles(t *testing.T) {
	d := &models.Dashboard{
		Filters: []models.Filter{{Title: "Region\tname \"eu\"", ListensToFilters: []string{}}},
		Visualizations: []models.Tile{
			{Title: "Café", Listen: map[string]string{"Region\tname \"eu\"": "x"}},
		},
	}
	g := Build(d, coverage.Analyze(d), DefaultOptions())
	dot := ToDOT(g)

	assert.Contains(t, dot, "\"filter:Region\tname \\\"eu\\\"\" -> \"tile:Café\"")
	assert.NotContains(t, dot, `\t`)
	assert.NotContains(t, dot, `\u`)

	svg, err := RenderSVG(context.Background(), dot)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(build(t, DefaultOptions())))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
}
