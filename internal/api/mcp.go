package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/jobboard/internal/crud"
	"github.com/kalambet/jobboard/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Service *crud.Service
	Version string
}

// NewMCPServer creates an MCP server exposing the entity record operations as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"jobboard",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions("jobboard: job listings, active works, news and articles stored as JSON record collections."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("list_entities",
			mcp.WithDescription("List the record collections that can be queried."),
		),
		mcpListEntities(deps),
	)

	s.AddTool(
		mcp.NewTool("list_records",
			mcp.WithDescription("Return every record of an entity in API shape."),
			mcp.WithString("entity", mcp.Description("Entity name, e.g. jobs"), mcp.Required()),
		),
		mcpListRecords(deps),
	)

	s.AddTool(
		mcp.NewTool("get_record",
			mcp.WithDescription("Return one record by id."),
			mcp.WithString("entity", mcp.Description("Entity name"), mcp.Required()),
			mcp.WithNumber("id", mcp.Description("Record id"), mcp.Required()),
		),
		mcpGetRecord(deps),
	)

	s.AddTool(
		mcp.NewTool("create_record",
			mcp.WithDescription("Create a record. The id is assigned by the server."),
			mcp.WithString("entity", mcp.Description("Entity name"), mcp.Required()),
			mcp.WithObject("data", mcp.Description("Record fields in API shape"), mcp.Required()),
		),
		mcpCreateRecord(deps),
	)

	s.AddTool(
		mcp.NewTool("update_record",
			mcp.WithDescription("Merge fields into an existing record. The id never changes."),
			mcp.WithString("entity", mcp.Description("Entity name"), mcp.Required()),
			mcp.WithNumber("id", mcp.Description("Record id"), mcp.Required()),
			mcp.WithObject("data", mcp.Description("Fields to set, in API shape"), mcp.Required()),
		),
		mcpUpdateRecord(deps),
	)

	s.AddTool(
		mcp.NewTool("delete_record",
			mcp.WithDescription("Delete a record by id."),
			mcp.WithString("entity", mcp.Description("Entity name"), mcp.Required()),
			mcp.WithNumber("id", mcp.Description("Record id"), mcp.Required()),
		),
		mcpDeleteRecord(deps),
	)

	return s
}

func mcpListEntities(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		type entityInfo struct {
			Name       string `json:"name"`
			Collection string `json:"collection"`
		}
		entities := deps.Service.Entities()
		out := make([]entityInfo, len(entities))
		for i, e := range entities {
			out[i] = entityInfo{Name: e.Name, Collection: e.Collection}
		}
		return mcpJSON(out), nil
	}
}

func mcpListRecords(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, errResult := mcpBinder(deps, req)
		if errResult != nil {
			return errResult, nil
		}
		return mcpJSON(b.List(ctx)), nil
	}
}

func mcpGetRecord(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, errResult := mcpBinder(deps, req)
		if errResult != nil {
			return errResult, nil
		}
		id, err := req.RequireInt("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		rec, err := b.Get(ctx, int64(id))
		if err != nil {
			return mcpRecordError(err, id), nil
		}
		return mcpJSON(rec), nil
	}
}

func mcpCreateRecord(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, errResult := mcpBinder(deps, req)
		if errResult != nil {
			return errResult, nil
		}
		data, ok := mcpData(req)
		if !ok {
			return mcpError("data must be an object"), nil
		}

		rec, err := b.Create(ctx, data)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to save: %v", err)), nil
		}
		return mcpJSON(rec), nil
	}
}

func mcpUpdateRecord(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, errResult := mcpBinder(deps, req)
		if errResult != nil {
			return errResult, nil
		}
		id, err := req.RequireInt("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		data, ok := mcpData(req)
		if !ok {
			return mcpError("data must be an object"), nil
		}

		rec, err := b.Update(ctx, int64(id), data)
		if err != nil {
			return mcpRecordError(err, id), nil
		}
		return mcpJSON(b.Entity().ToExternal(rec)), nil
	}
}

func mcpDeleteRecord(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, errResult := mcpBinder(deps, req)
		if errResult != nil {
			return errResult, nil
		}
		id, err := req.RequireInt("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		if err := b.Delete(ctx, int64(id)); err != nil {
			return mcpRecordError(err, id), nil
		}
		return mcpText(fmt.Sprintf("Deleted %s record %d", b.Entity().Name, id)), nil
	}
}

func mcpBinder(deps MCPDeps, req mcp.CallToolRequest) (*crud.Binder, *mcp.CallToolResult) {
	name, err := req.RequireString("entity")
	if err != nil {
		return nil, mcpError("entity is required")
	}
	b, ok := deps.Service.Binder(name)
	if !ok {
		return nil, mcpError(fmt.Sprintf("unknown entity %q", name))
	}
	return b, nil
}

func mcpData(req mcp.CallToolRequest) (storage.Record, bool) {
	data, ok := req.GetArguments()["data"].(map[string]any)
	if !ok {
		return nil, false
	}
	return storage.Record(data), true
}

func mcpRecordError(err error, id int) *mcp.CallToolResult {
	if errors.Is(err, crud.ErrNotFound) {
		return mcpError(fmt.Sprintf("record %d not found", id))
	}
	return mcpError(fmt.Sprintf("failed to save: %v", err))
}

func mcpJSON(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcpText(string(b))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
