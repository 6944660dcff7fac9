package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/starford/lookviz/internal/coverage"
	"github.com/starford/lookviz/internal/export"
	"github.com/starford/lookviz/internal/graph"
	"github.com/starford/lookviz/internal/lookml"
	"github.com/starford/lookviz/internal/models"
)

// GraphFormat selects how the graph command renders.
type GraphFormat string

const (
	GraphJSON GraphFormat = "json"
	GraphDOT  GraphFormat = "dot"
	GraphSVG  GraphFormat = "svg"
)

// Analyze prints the coverage table of a single dashboard file.
func Analyze(ctx context.Context, file string, opts ...Option) error {
	return Export(ctx, file, export.FormatTable, "", opts...)
}

// Export writes the analysis of file in the given format. An empty dest
// writes to the configured output.
func Export(_ context.Context, file string, format export.Format, dest string, opts ...Option) error {
	app := applyOutput(opts)
	report, err := analyzeFile(file)
	if err != nil {
		return err
	}
	return withDest(app.out, dest, func(w io.Writer) error {
		return export.Write(w, format, report)
	})
}

// Graph writes the filter network of file as JSON, DOT or SVG.
func Graph(ctx context.Context, file string, format GraphFormat, gopts graph.Options, dest string, opts ...Option) error {
	app := applyOutput(opts)
	report, err := analyzeFile(file)
	if err != nil {
		return err
	}
	g := graph.Build(report.Dashboard, report.FilterAnalysis, gopts)

	return withDest(app.out, dest, func(w io.Writer) error {
		switch format {
		case GraphJSON, "":
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(g)
		case GraphDOT:
			_, err := io.WriteString(w, graph.ToDOT(g))
			return err
		case GraphSVG:
			svg, err := graph.RenderSVG(ctx, graph.ToDOT(g))
			if err != nil {
				return err
			}
			_, err = w.Write(svg)
			return err
		}
		return fmt.Errorf("graph format %q is not one of json, dot, svg", format)
	})
}

func applyOutput(opts []Option) *application {
	app := &application{out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

func analyzeFile(file string) (*models.Report, error) {
	d, err := lookml.LoadFile(file)
	if err != nil {
		return nil, err
	}
	return coverage.Build(d), nil
}

func withDest(out io.Writer, dest string, fn func(io.Writer) error) (err error) {
	if dest == "" {
		return fn(out)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}
