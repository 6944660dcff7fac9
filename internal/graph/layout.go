package graph

import (
	"fmt"

	"github.com/starford/lookviz/internal/apperr"
)

// Layout selects a physics preset for the browser renderer.
type Layout string

const (
	LayoutBarnesHut    Layout = "barnesHut"
	LayoutForceAtlas2  Layout = "forceAtlas2Based"
	LayoutHierarchical Layout = "hierarchical"
	LayoutERD          Layout = "erd"
)

// ParseLayout validates a layout name. Empty selects barnesHut.
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case "":
		return LayoutBarnesHut, nil
	case LayoutBarnesHut, LayoutForceAtlas2, LayoutHierarchical, LayoutERD:
		return Layout(s), nil
	}
	return "", fmt.Errorf("graph: layout %q: %w", s, apperr.ErrUnsupportedFormat)
}

// Physics returns the vis-network physics options for a layout. The map is
// passed to the renderer as-is; nothing in Go interprets it.
func Physics(l Layout) map[string]any {
	switch l {
	case LayoutForceAtlas2:
		return map[string]any{
			"enabled":       true,
			"stabilization": map[string]any{"iterations": 100},
			"forceAtlas2Based": map[string]any{
				"gravitationalConstant": -50,
				"centralGravity":        0.01,
				"springLength":          100,
				"springConstant":        0.08,
				"damping":               0.4,
			},
		}
	case LayoutHierarchical:
		return map[string]any{
			"enabled": true,
			"hierarchicalRepulsion": map[string]any{
				"centralGravity": 0.0,
				"springLength":   100,
				"springConstant": 0.01,
				"nodeDistance":   120,
				"damping":        0.09,
			},
		}
	case LayoutERD:
		return map[string]any{
			"enabled":       true,
			"stabilization": map[string]any{"iterations": 500},
			"hierarchicalRepulsion": map[string]any{
				"centralGravity": 0.0,
				"springLength":   400,
				"springConstant": 0.001,
				"nodeDistance":   400,
				"damping":        0.1,
			},
		}
	default:
		return map[string]any{
			"enabled":       true,
			"stabilization": map[string]any{"iterations": 100},
			"barnesHut": map[string]any{
				"gravitationalConstant": -2000,
				"centralGravity":        0.1,
				"springLength":          200,
				"springConstant":        0.05,
				"damping":               0.09,
			},
		}
	}
}
