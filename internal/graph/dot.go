package graph

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
)

// ToDOT converts the graph to Graphviz DOT. Filters are ranked above the
// tiles they feed.
func ToDOT(g *Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph filters {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=12];\n")
	buf.WriteString("  edge [arrowsize=0.7];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		attrs := []string{
			"label="+dotQuote(n.Label),
			"fillcolor="+dotQuote(n.Color),
			"tooltip="+dotQuote(n.Title),
		}
		if n.Group == KindFilter {
			attrs = append(attrs, "fontcolor=\"white\"")
		} else {
			attrs = append(attrs, "shape=note", "fontcolor=\"white\"")
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", dotQuote(n.ID), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		attrs := []string{"color=" + dotQuote(e.Color), fmt.Sprintf("penwidth=%d", e.Width)}
		if e.Kind == EdgeDependency {
			attrs = append(attrs, "style=dashed")
		}
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n", dotQuote(e.From), dotQuote(e.To), strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

var dotEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", "",
)

// dotQuote returns s as a DOT double-quoted string. Only backslash, quote
// and line breaks are escaped; other runes are emitted as UTF-8.
func dotQuote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

// RenderSVG renders DOT source to SVG with the embedded Graphviz runtime.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("graph: init graphviz: %w", err)
	}
	defer gv.Close()

	parsed, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("graph: parse DOT: %w", err)
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, parsed, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("graph: render: %w", err)
	}
	return buf.Bytes(), nil
}
