// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes lookviz analysis tools for LLM integration via stdio transport.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/lookviz/internal/apperr"
	"github.com/starford/lookviz/internal/dashboardsvc"
	"github.com/starford/lookviz/internal/export"
)

const formatResourceURI = "lookviz://dashboard-format"

// Server wraps the MCP server with lookviz tools.
type Server struct {
	mcp *server.MCPServer
	svc *dashboardsvc.Service
}

// New creates a new MCP server with all lookviz tools registered.
func New(svc *dashboardsvc.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"lookviz",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_dashboards",
		mcp.WithDescription("List the LookML dashboard files available for analysis."),
	), s.listDashboards)

	s.mcp.AddTool(mcp.NewTool("analyze_dashboard",
		mcp.WithDescription("Analyze which dashboard filters are linked to which tiles. "+
			"Returns per-filter coverage, summary metrics, explore statistics and issues as JSON."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the dashboard file (e.g. sales.dashboard.lookml)")),
	), s.analyzeDashboard)

	s.mcp.AddTool(mcp.NewTool("filter_detail",
		mcp.WithDescription("Drill down into one filter: linked and unlinked tiles and explore coverage."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the dashboard file")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Filter title as it appears in tile listen mappings")),
	), s.filterDetail)

	s.mcp.AddTool(mcp.NewTool("export_report",
		mcp.WithDescription("Render the dashboard analysis as json, csv, markdown or a text table."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the dashboard file")),
		mcp.WithString("format", mcp.Description("Export format"), mcp.Enum("json", "csv", "markdown", "table")),
	), s.exportReport)

	s.mcp.AddTool(mcp.NewTool("import_dashboard",
		mcp.WithDescription("Store a LookML dashboard in the dashboards directory and analyze it. "+
			"Provide either inline content or a url (http(s) or base64 data URI). "+
			"Read the format via get_dashboard_format or the "+formatResourceURI+" resource first."),
		mcp.WithString("content", mcp.Description("Inline LookML dashboard YAML")),
		mcp.WithString("url", mcp.Description("http(s) URL or data:text/yaml;base64,... URI to fetch the dashboard from")),
		mcp.WithString("filename", mcp.Description("Target filename (.lookml, .yaml or .yml); derived from the URL when empty")),
	), s.importDashboard)

	s.mcp.AddTool(mcp.NewTool("get_dashboard_format",
		mcp.WithDescription("Returns the LookML dashboard fields lookviz reads and how linkage is decided."),
	), s.getDashboardFormat)

	s.mcp.AddResource(
		mcp.NewResource(formatResourceURI, "Dashboard Format",
			mcp.WithResourceDescription("LookML dashboard fields read by the analyzer."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDashboardFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError converts a service error into a tool error result.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found: " + err.Error())
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listDashboards(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.svc.List(ctx)
	if err != nil {
		return toolError(err), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText("no dashboards found"), nil
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) analyzeDashboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := s.svc.Load(ctx, path)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(report), nil
}

func (s *Server) filterDetail(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.FilterDetail(ctx, path, title)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(detail), nil
}

func (s *Server) exportReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := export.ParseFormat(req.GetString("format", string(export.FormatMarkdown)))
	if err != nil {
		return toolError(err), nil
	}
	var buf bytes.Buffer
	if err := s.svc.Export(ctx, path, f, &buf); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) getDashboardFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DashboardFormat), nil
}

func (s *Server) readDashboardFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatResourceURI,
			MIMEType: "text/markdown",
			Text:     DashboardFormat,
		},
	}, nil
}

func (s *Server) saveDashboard(ctx context.Context, name string, data []byte) (*mcp.CallToolResult, error) {
	report, err := s.svc.Save(ctx, name, data)
	if err != nil {
		return toolError(err), nil
	}
	m := report.SummaryMetrics
	return mcp.NewToolResultText(fmt.Sprintf(
		"saved: %s\ndashboard: %s\nfilters: %d, tiles: %d, avg coverage: %.1f%% (complete %d, partial %d, missing %d)",
		name, report.Dashboard.Name, m.TotalFilters, m.TotalVisualizations, m.AvgCoverage,
		m.CompleteLinks, m.PartialLinks, m.MissingLinks)), nil
}
