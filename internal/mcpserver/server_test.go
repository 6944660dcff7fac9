package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/lookviz/internal/dashboardsvc"
	"github.com/starford/lookviz/internal/models"
	"github.com/starford/lookviz/internal/storage"
	"github.com/starford/lookviz/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()
	_, store := testutil.TestDashboards(t, map[string]string{
		"sales.dashboard.lookml": testutil.SalesDashboard,
	})
	svc := dashboardsvc.New(store, dashboardsvc.WithHistory(testutil.TestHistory(t)))
	return New(svc, "test"), store
}

// callTool dispatches directly to the tool handlers; mcp-go has no
// in-process call helper.
func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_dashboards":
		result, err = srv.listDashboards(ctx, req)
	case "analyze_dashboard":
		result, err = srv.analyzeDashboard(ctx, req)
	case "filter_detail":
		result, err = srv.filterDetail(ctx, req)
	case "export_report":
		result, err = srv.exportReport(ctx, req)
	case "import_dashboard":
		result, err = srv.importDashboard(ctx, req)
	case "get_dashboard_format":
		result, err = srv.getDashboardFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestToolsRegistered(t *testing.T) {
	srv, _ := testServer(t)
	tools := srv.MCPServer().ListTools()
	for _, name := range []string{
		"list_dashboards", "analyze_dashboard", "filter_detail",
		"export_report", "import_dashboard", "get_dashboard_format",
	} {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %s not registered", name)
		}
	}
}

func TestListDashboards(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("team/ops.yml", []byte("[]"))

	text := resultText(callTool(t, srv, "list_dashboards", map[string]any{}))
	if text != "sales.dashboard.lookml\nteam/ops.yml" {
		t.Errorf("list = %q", text)
	}
}

func TestAnalyzeDashboard(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "analyze_dashboard", map[string]any{"path": "sales.dashboard.lookml"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	var report models.Report
	if err := json.Unmarshal([]byte(resultText(r)), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.SummaryMetrics.TotalFilters != 3 || report.SummaryMetrics.AvgCoverage != 50 {
		t.Errorf("summary = %+v", report.SummaryMetrics)
	}
}

func TestAnalyzeDashboard_Errors(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("broken.yml", []byte("- dashboard: [unclosed\n"))

	r := callTool(t, srv, "analyze_dashboard", map[string]any{"path": "nope.lookml"})
	if !r.IsError || !strings.HasPrefix(resultText(r), "not found") {
		t.Errorf("missing dashboard: %q", resultText(r))
	}
	r = callTool(t, srv, "analyze_dashboard", map[string]any{"path": "broken.yml"})
	if !r.IsError || !strings.Contains(resultText(r), "broken.yml") {
		t.Errorf("broken dashboard: %q", resultText(r))
	}
	r = callTool(t, srv, "analyze_dashboard", map[string]any{})
	if !r.IsError {
		t.Error("expected error without path")
	}
}

func TestFilterDetail(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "filter_detail", map[string]any{"path": "sales.dashboard.lookml", "title": "Region"})
	var detail models.FilterDetail
	if err := json.Unmarshal([]byte(resultText(r)), &detail); err != nil {
		t.Fatalf("decode: %v (%s)", err, resultText(r))
	}
	if detail.CoverageNote != models.CoverageNoteComplete || len(detail.Linked) != 2 {
		t.Errorf("detail = %+v", detail)
	}

	r = callTool(t, srv, "filter_detail", map[string]any{"path": "sales.dashboard.lookml", "title": "Nope"})
	if !r.IsError {
		t.Error("expected error for unknown filter")
	}
}

func TestExportReport(t *testing.T) {
	srv, _ := testServer(t)

	text := resultText(callTool(t, srv, "export_report", map[string]any{"path": "sales.dashboard.lookml"}))
	if !strings.HasPrefix(text, "# LookML Filter Link Analysis Report") {
		t.Errorf("default export should be markdown, got %q", text)
	}
	text = resultText(callTool(t, srv, "export_report", map[string]any{"path": "sales.dashboard.lookml", "format": "csv"}))
	if !strings.HasPrefix(text, "filter_title,") {
		t.Errorf("csv export = %q", text)
	}
	r := callTool(t, srv, "export_report", map[string]any{"path": "sales.dashboard.lookml", "format": "pdf"})
	if !r.IsError {
		t.Error("expected error for unsupported format")
	}
}

func TestImportDashboard_Content(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "import_dashboard", map[string]any{
		"content":  testutil.SalesDashboard,
		"filename": "copy.lookml",
	})
	if r.IsError {
		t.Fatalf("import: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "avg coverage: 50.0%") {
		t.Errorf("import result = %q", resultText(r))
	}
	if _, err := store.Read("copy.lookml"); err != nil {
		t.Errorf("imported file not stored: %v", err)
	}
}

func TestImportDashboard_DataURI(t *testing.T) {
	srv, store := testServer(t)
	uri := "data:text/yaml;base64," + base64.StdEncoding.EncodeToString([]byte("- dashboard: tiny\n"))

	r := callTool(t, srv, "import_dashboard", map[string]any{"url": uri})
	if r.IsError {
		t.Fatalf("import: %s", resultText(r))
	}
	files, _ := store.List("")
	if len(files) != 2 {
		t.Errorf("expected generated file next to the sales dashboard, got %+v", files)
	}
}

func TestImportDashboard_Rejected(t *testing.T) {
	srv, _ := testServer(t)

	cases := []map[string]any{
		{},
		{"content": "[]", "url": "https://example.com/a.lookml"},
		{"content": "[]", "filename": "notes.txt"},
		{"content": "filters: [", "filename": "bad.lookml"},
		{"url": "data:image/png;base64,AAAA"},
		{"url": "ftp://example.com/a.lookml"},
		{"url": "http://127.0.0.1/a.lookml"},
	}
	for _, args := range cases {
		if r := callTool(t, srv, "import_dashboard", args); !r.IsError {
			t.Errorf("expected error for %v, got %q", args, resultText(r))
		}
	}
}

func TestCheckBlockedHost(t *testing.T) {
	cases := []struct {
		host    string
		blocked bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"10.0.0.5", true},
		{"172.16.0.1", true},
		{"192.168.1.1", true},
		{"169.254.169.254", true},
		{"169.254.10.10", true},
		{"fd00::1", true},
		{"[fd00::1]", true},
		{"fe80::1", true},
		{"0.0.0.0", true},
		{"metadata.google.internal", true},
		{"93.184.216.34", false},
		{"2606:4700::1111", false},
	}
	for _, tc := range cases {
		err := checkBlockedHost(tc.host)
		if tc.blocked && err == nil {
			t.Errorf("checkBlockedHost(%q) = nil, want error", tc.host)
		}
		if !tc.blocked && err != nil {
			t.Errorf("checkBlockedHost(%q) = %v, want nil", tc.host, err)
		}
	}
}

func TestImportDashboard_PrivateURL(t *testing.T) {
	srv, _ := testServer(t)

	for _, u := range []string{
		"http://10.0.0.5/a.lookml",
		"http://192.168.1.1/a.lookml",
		"http://[fd00::1]/a.lookml",
	} {
		r := callTool(t, srv, "import_dashboard", map[string]any{"url": u})
		if !r.IsError || !strings.Contains(resultText(r), "blocked host") {
			t.Errorf("import from %s: got %q, want blocked host error", u, resultText(r))
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd.yml": "passwd.yml",
		"my dash.lookml":       "my_dash.lookml",
		".hidden.yml":          "hidden.yml",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
	if got := filenameFromURL("https://example.com/dash/sales.lookml?x=1"); got != "sales.lookml" {
		t.Errorf("filenameFromURL = %q", got)
	}
	if got := filenameFromURL(""); !strings.HasSuffix(got, ".dashboard.lookml") {
		t.Errorf("fallback filename = %q", got)
	}
}

func TestDashboardFormatResource(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readDashboardFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != formatResourceURI || !strings.Contains(tc.Text, "JOIN KEY") {
		t.Errorf("resource = %+v", contents[0])
	}
	if text := resultText(callTool(t, srv, "get_dashboard_format", nil)); text != DashboardFormat {
		t.Error("tool and resource should return the same contract")
	}
}
