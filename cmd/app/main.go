package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/lookviz/internal"
	"github.com/starford/lookviz/internal/export"
	"github.com/starford/lookviz/internal/graph"
	pkgconfig "github.com/starford/lookviz/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadWithDefaults(configPath, "", cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found {
		slog.Debug("config file not found, using defaults", slog.String("path", configPath))
	}
	return cfg, nil
}

// cliLogger writes human-readable logs to stderr for one-shot commands.
func cliLogger(cmd *cli.Command) *slog.Logger {
	level := log.InfoLevel
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	return slog.New(log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	}))
}

func fileArg(cmd *cli.Command) (string, error) {
	if cmd.NArg() != 1 {
		return "", fmt.Errorf("%s: expected exactly one dashboard file", cmd.Name)
	}
	return cmd.Args().First(), nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

func analyze(ctx context.Context, cmd *cli.Command) error {
	file, err := fileArg(cmd)
	if err != nil {
		return err
	}
	logger := cliLogger(cmd)
	logger.Debug("analyzing dashboard", slog.String("file", file))
	return internal.Analyze(ctx, file)
}

func exportReport(ctx context.Context, cmd *cli.Command) error {
	file, err := fileArg(cmd)
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	out := cmd.String("out")
	if err := internal.Export(ctx, file, format, out); err != nil {
		return err
	}
	if out != "" {
		cliLogger(cmd).Info("report written", slog.String("path", out), slog.String("format", string(format)))
	}
	return nil
}

func renderGraph(ctx context.Context, cmd *cli.Command) error {
	file, err := fileArg(cmd)
	if err != nil {
		return err
	}
	layout, err := graph.ParseLayout(cmd.String("layout"))
	if err != nil {
		return err
	}
	opts := graph.DefaultOptions()
	opts.Layout = layout
	opts.MinCoverage = cmd.Float("min-coverage")
	opts.MaxLinks = int(cmd.Int("max-links"))
	opts.NameFilter = cmd.String("q")
	opts.Detailed = cmd.Bool("detailed")

	out := cmd.String("out")
	if err := internal.Graph(ctx, file, internal.GraphFormat(cmd.String("format")), opts, out); err != nil {
		return err
	}
	if out != "" {
		cliLogger(cmd).Info("graph written", slog.String("path", out))
	}
	return nil
}

func outFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "out",
		Aliases: []string{"o"},
		Usage:   "Write to this file instead of stdout",
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "lookviz",
		Usage:   "Analyze filter-to-visualization linkage in LookML dashboards",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging for one-shot commands",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the web analyzer and REST API",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the analyzer tools over MCP on stdin/stdout",
				Action: mcp,
			},
			{
				Name:      "analyze",
				Usage:     "Print the coverage table and issues for a dashboard file",
				ArgsUsage: "FILE",
				Action:    analyze,
			},
			{
				Name:      "export",
				Usage:     "Export the analysis of a dashboard file",
				ArgsUsage: "FILE",
				Action:    exportReport,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "json, csv, markdown or table",
						Value:   "json",
					},
					outFlag(),
				},
			},
			{
				Name:      "graph",
				Usage:     "Render the filter network of a dashboard file",
				ArgsUsage: "FILE",
				Action:    renderGraph,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "json, dot or svg",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:  "layout",
						Usage: "barnesHut, forceAtlas2Based, hierarchical or erd",
						Value: string(graph.LayoutBarnesHut),
					},
					&cli.FloatFlag{
						Name:  "min-coverage",
						Usage: "Hide filters below this coverage percentage",
					},
					&cli.IntFlag{
						Name:  "max-links",
						Usage: "Hide filters with more links than this",
						Value: 100,
					},
					&cli.StringFlag{
						Name:  "q",
						Usage: "Keep filters whose title or field contains this text",
					},
					&cli.BoolFlag{
						Name:  "detailed",
						Usage: "Use table-style node labels",
					},
					outFlag(),
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
