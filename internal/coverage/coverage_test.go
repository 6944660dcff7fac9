package coverage

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lookviz/internal/models"
)

func filter(title string, deps ...string) models.Filter {
	if deps == nil {
		deps = []string{}
	}
	return models.Filter{Title: title, Type: "field_filter", Field: "f." + title, ListensToFilters: deps}
}

func tile(title, explore string, listen map[string]string) models.Tile {
	if listen == nil {
		listen = map[string]string{}
	}
	return models.Tile{Title: title, Type: "looker_line", Explore: explore, Listen: listen}
}

func twoByTwo() *models.Dashboard {
	return &models.Dashboard{
		Name:    "d",
		Filters: []models.Filter{filter("A"), filter("B")},
		Visualizations: []models.Tile{
			tile("tile1", "orders", map[string]string{"A": "f1"}),
			tile("tile2", "orders", map[string]string{"A": "f1", "B": "f2"}),
		},
	}
}

func TestAnalyze_CompleteAndPartial(t *testing.T) {
	got := Analyze(twoByTwo())
	require.Len(t, got, 2)

	a := got[0]
	assert.Equal(t, "A", a.FilterTitle)
	assert.Equal(t, 2, a.LinkCount)
	assert.Equal(t, 100.0, a.CoveragePercentage)
	assert.Equal(t, models.StatusComplete, a.Status)
	assert.Equal(t, []string{"tile1", "tile2"}, a.LinkedVisualizations)

	b := got[1]
	assert.Equal(t, 1, b.LinkCount)
	assert.Equal(t, 50.0, b.CoveragePercentage)
	assert.Equal(t, models.StatusPartial, b.Status)
	assert.Equal(t, models.StatusPartial.Color(), b.StatusColor)
	assert.Equal(t, 2, b.TotalVisualizations)
}

func TestAnalyze_NoTiles(t *testing.T) {
	d := &models.Dashboard{Filters: []models.Filter{filter("A")}}
	got := Analyze(d)
	require.Len(t, got, 1)
	assert.Equal(t, 0.0, got[0].CoveragePercentage)
	assert.Equal(t, models.StatusMissing, got[0].Status)
	assert.Equal(t, 0, got[0].TotalVisualizations)
	assert.Empty(t, got[0].LinkedVisualizations)
}

func TestAnalyze_NoFilters(t *testing.T) {
	d := &models.Dashboard{Visualizations: []models.Tile{tile("t", "e", nil)}}
	got := Analyze(d)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	m := Summarize(d, got)
	assert.Equal(t, 0.0, m.AvgCoverage)
	assert.Equal(t, 0, m.TotalFilters)
	assert.Equal(t, 1, m.TotalVisualizations)
}

func TestAnalyze_EmptyDashboard(t *testing.T) {
	d := &models.Dashboard{}
	got := Analyze(d)
	assert.Empty(t, got)
	assert.Equal(t, models.SummaryMetrics{}, Summarize(d, got))
}

func TestAnalyze_FieldNameIrrelevant(t *testing.T) {
	d := &models.Dashboard{
		Filters:        []models.Filter{filter("A")},
		Visualizations: []models.Tile{tile("t", "e", map[string]string{"A": "something.else"})},
	}
	assert.Equal(t, 1, Analyze(d)[0].LinkCount)
}

func TestAnalyze_PreservesFilterOrder(t *testing.T) {
	d := &models.Dashboard{
		Filters: []models.Filter{filter("Z"), filter("A"), filter("M")},
	}
	got := Analyze(d)
	titles := []string{got[0].FilterTitle, got[1].FilterTitle, got[2].FilterTitle}
	assert.Equal(t, []string{"Z", "A", "M"}, titles)
}

func TestAnalyze_Idempotent(t *testing.T) {
	d := randomDashboard(rand.New(rand.NewSource(7)), 12, 20)
	first := Analyze(d)
	second := Analyze(d)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("re-analysis differs (-first +second):\n%s", diff)
	}
}

func TestAnalyze_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		d := randomDashboard(rng, rng.Intn(8), rng.Intn(8))
		analyses := Analyze(d)
		m := Summarize(d, analyses)

		assert.Equal(t, len(analyses), m.CompleteLinks+m.PartialLinks+m.MissingLinks)
		for _, a := range analyses {
			assert.Equal(t, len(a.LinkedVisualizations), a.LinkCount)
			assert.GreaterOrEqual(t, a.CoveragePercentage, 0.0)
			assert.LessOrEqual(t, a.CoveragePercentage, 100.0)
			if a.TotalVisualizations == 0 {
				assert.Equal(t, 0.0, a.CoveragePercentage)
			} else {
				assert.InDelta(t, 100*float64(a.LinkCount)/float64(a.TotalVisualizations), a.CoveragePercentage, 1e-9)
			}
			assert.Equal(t, models.StatusFor(a.CoveragePercentage), a.Status)
		}
	}
}

func randomDashboard(rng *rand.Rand, filters, tiles int) *models.Dashboard {
	d := &models.Dashboard{Filters: []models.Filter{}, Visualizations: []models.Tile{}}
	for i := 0; i < filters; i++ {
		d.Filters = append(d.Filters, filter(string(rune('A'+i))))
	}
	for j := 0; j < tiles; j++ {
		listen := map[string]string{}
		for _, f := range d.Filters {
			if rng.Intn(2) == 0 {
				listen[f.Title] = "x"
			}
		}
		d.Visualizations = append(d.Visualizations, tile(string(rune('a'+j)), "e", listen))
	}
	return d
}

func TestSummarize(t *testing.T) {
	d := twoByTwo()
	d.Filters = append(d.Filters, filter("C"))
	m := Summarize(d, Analyze(d))
	assert.Equal(t, models.SummaryMetrics{
		TotalFilters:        3,
		TotalVisualizations: 2,
		CompleteLinks:       1,
		PartialLinks:        1,
		MissingLinks:        1,
		AvgCoverage:         50,
	}, m)
}

func TestExplores(t *testing.T) {
	d := &models.Dashboard{
		Visualizations: []models.Tile{
			tile("t1", "orders", map[string]string{"A": "x"}),
			tile("t2", "users", nil),
			tile("t3", "orders", nil),
			tile("t4", "orders", map[string]string{"B": "y"}),
		},
	}
	got := Explores(d)
	require.Len(t, got, 2)

	assert.Equal(t, "orders", got[0].Explore)
	assert.Equal(t, 3, got[0].TotalTiles)
	assert.Equal(t, 2, got[0].TileHasFilter)
	assert.Equal(t, 1, got[0].TileHasNoFilter)
	assert.Equal(t, []string{"t1", "t3", "t4"}, got[0].Tiles)
	assert.InDelta(t, 66.666, got[0].CoveragePercentage, 0.01)

	assert.Equal(t, "users", got[1].Explore)
	assert.Equal(t, 0, got[1].TileHasFilter)
	assert.Equal(t, 0.0, got[1].CoveragePercentage)
}

func TestDetail(t *testing.T) {
	d := &models.Dashboard{
		Filters: []models.Filter{filter("A")},
		Visualizations: []models.Tile{
			tile("t1", "orders", map[string]string{"A": "x"}),
			tile("t2", "users", nil),
			tile("t3", "", nil),
		},
	}
	a := Analyze(d)[0]
	det := Detail(d, a)

	assert.Equal(t, []models.TileRef{{Title: "t1", Explore: "orders"}}, det.Linked)
	assert.Equal(t, []models.TileRef{{Title: "t2", Explore: "users"}, {Title: "t3"}}, det.Unlinked)
	assert.Equal(t, []string{"orders"}, det.CoveredExplores)
	assert.Equal(t, 2, det.TotalExplores)
	assert.Equal(t, models.CoverageNoteLow, det.CoverageNote)
}

func TestDetail_CoverageNotes(t *testing.T) {
	d := twoByTwo()
	analyses := Analyze(d)
	assert.Equal(t, models.CoverageNoteComplete, Detail(d, analyses[0]).CoverageNote)
	// 50% is not above the partial threshold.
	assert.Equal(t, models.CoverageNoteLow, Detail(d, analyses[1]).CoverageNote)
}

func TestFind_FirstMatch(t *testing.T) {
	analyses := []models.FilterAnalysis{
		{FilterTitle: "A", FilterType: "first"},
		{FilterTitle: "A", FilterType: "second"},
	}
	got, ok := Find(analyses, "A")
	require.True(t, ok)
	assert.Equal(t, "first", got.FilterType)

	_, ok = Find(analyses, "missing")
	assert.False(t, ok)
}

func TestIssues(t *testing.T) {
	d := twoByTwo()
	d.Filters = append(d.Filters, filter("C"))
	analyses := Analyze(d)
	issues := Issues(Summarize(d, analyses), analyses)
	assert.Equal(t, []string{
		"1 filters not linked to any visualization: C",
		"1 filters have partial coverage",
		"Overall coverage below recommended threshold (75%)",
	}, issues)

	clean := &models.Dashboard{
		Filters:        []models.Filter{filter("A")},
		Visualizations: []models.Tile{tile("t", "e", map[string]string{"A": "x"})},
	}
	ca := Analyze(clean)
	assert.Equal(t, []string{"No issues found! All filters are properly linked."}, Issues(Summarize(clean, ca), ca))
}

func TestBuild(t *testing.T) {
	r := Build(twoByTwo())
	assert.Len(t, r.FilterAnalysis, 2)
	assert.Equal(t, 2, r.SummaryMetrics.TotalFilters)
	assert.Equal(t, 75.0, r.SummaryMetrics.AvgCoverage)
	assert.Len(t, r.Explores, 1)
	assert.NotEmpty(t, r.Issues)
}
