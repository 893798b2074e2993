package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/jobboard/internal/storage"
)

// --- helpers ---

func newTestMCPDeps(t *testing.T) (MCPDeps, *storage.FileStore) {
	t.Helper()
	repo := storage.NewFileStore(t.TempDir())
	return MCPDeps{Service: newTestService(t, repo), Version: "test"}, repo
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// --- tests ---

func TestNewMCPServer_RegistersTools(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	s := NewMCPServer(deps)

	tools := s.ListTools()
	for _, name := range []string{"list_entities", "list_records", "get_record", "create_record", "update_record", "delete_record"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %q not registered", name)
		}
	}
}

func TestMCPTool_ListEntities(t *testing.T) {
	deps, _ := newTestMCPDeps(t)

	result, err := mcpListEntities(deps)(context.Background(), makeCallToolRequest("list_entities", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var entities []struct {
		Name       string `json:"name"`
		Collection string `json:"collection"`
	}
	if err := json.Unmarshal([]byte(toolText(t, result)), &entities); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(entities) != 5 {
		t.Fatalf("expected 5 entities, got %d", len(entities))
	}
	if entities[2].Name != "active-works" || entities[2].Collection != "active-works.json" {
		t.Errorf("entities[2] = %+v", entities[2])
	}
}

func TestMCPTool_CreateAndGet(t *testing.T) {
	deps, repo := newTestMCPDeps(t)

	req := makeCallToolRequest("create_record", map[string]interface{}{
		"entity": "jobs",
		"data":   map[string]interface{}{"title": "Go dev", "logo_url": "go.png"},
	})
	result, err := mcpCreateRecord(deps)(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	stored := repo.Load(context.Background(), "jobs.json")
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(stored))
	}
	if stored[0]["logo"] != "go.png" {
		t.Errorf("stored logo = %v", stored[0]["logo"])
	}

	req = makeCallToolRequest("get_record", map[string]interface{}{
		"entity": "jobs",
		"id":     float64(1),
	})
	result, err = mcpGetRecord(deps)(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(toolText(t, result)), &rec); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if rec["logo_url"] != "go.png" || rec["status"] != "active" {
		t.Errorf("record = %v", rec)
	}
}

func TestMCPTool_UpdateRecord(t *testing.T) {
	deps, repo := newTestMCPDeps(t)
	seed(t, repo, "active-works.json", storage.Record{"id": 1, "isActive": true})

	req := makeCallToolRequest("update_record", map[string]interface{}{
		"entity": "active-works",
		"id":     float64(1),
		"data":   map[string]interface{}{"is_active": false},
	})
	result, err := mcpUpdateRecord(deps)(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(toolText(t, result)), &rec); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if rec["isActive"] != false || rec["is_active"] != false {
		t.Errorf("record = %v", rec)
	}
}

func TestMCPTool_DeleteRecord(t *testing.T) {
	deps, repo := newTestMCPDeps(t)
	seed(t, repo, "news.json", storage.Record{"id": 4, "name": "x"})
	handler := mcpDeleteRecord(deps)

	req := makeCallToolRequest("delete_record", map[string]interface{}{
		"entity": "news",
		"id":     float64(4),
	})
	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	result, err = handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error deleting a missing record")
	}
	if !strings.Contains(toolText(t, result), "not found") {
		t.Errorf("text = %q, want it to mention 'not found'", toolText(t, result))
	}
}

func TestMCPTool_UnknownEntity(t *testing.T) {
	deps, _ := newTestMCPDeps(t)

	req := makeCallToolRequest("list_records", map[string]interface{}{"entity": "widgets"})
	result, err := mcpListRecords(deps)(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error for unknown entity")
	}
	if !strings.Contains(toolText(t, result), "widgets") {
		t.Errorf("text = %q", toolText(t, result))
	}
}

func TestMCPTool_MissingArguments(t *testing.T) {
	deps, _ := newTestMCPDeps(t)

	tests := []struct {
		name string
		args map[string]interface{}
		call func(MCPDeps) server.ToolHandlerFunc
	}{
		{"no entity", map[string]interface{}{}, mcpListRecords},
		{"no id", map[string]interface{}{"entity": "jobs"}, mcpGetRecord},
		{"bad data", map[string]interface{}{"entity": "jobs", "data": "text"}, mcpCreateRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.call(deps)(context.Background(), makeCallToolRequest("x", tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.IsError {
				t.Errorf("expected error result, got %s", toolText(t, result))
			}
		})
	}
}
