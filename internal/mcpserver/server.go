// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes daily canvas tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dailycanvas/internal/apperr"
	"github.com/starford/dailycanvas/internal/canvasservice"
	"github.com/starford/dailycanvas/internal/command"
)

// ContractURI is the resource URI of the canvas format contract.
const ContractURI = "dailycanvas://canvas-format"

// Server wraps the MCP server with daily canvas tools.
type Server struct {
	mcp *server.MCPServer
	svc *canvasservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *canvasservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Daily Canvas",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("open_today",
		mcp.WithDescription("Open today's daily canvas, creating it with yesterday's pinned items if needed."),
	), s.command(command.OpenToday))

	s.mcp.AddTool(mcp.NewTool("select_items",
		mcp.WithDescription("Replace the selection on the active canvas."),
		mcp.WithString("ids", mcp.Required(), mcp.Description("Comma-separated item ids")),
	), s.selectItems)

	s.mcp.AddTool(mcp.NewTool("pin_selection",
		mcp.WithDescription("Pin the selected items so they carry over into the next daily canvas. "+
			"Only applies on the latest daily canvas with a non-empty selection."),
	), s.command(command.PinSelection))

	s.mcp.AddTool(mcp.NewTool("unpin_selection",
		mcp.WithDescription("Unpin the selected items on the latest daily canvas."),
	), s.command(command.UnpinSelection))

	s.mcp.AddTool(mcp.NewTool("add_linked_note",
		mcp.WithDescription("Add a node linking the active daily canvas to its daily note."),
	), s.command(command.AddLinkedNote))

	s.mcp.AddTool(mcp.NewTool("list_pins",
		mcp.WithDescription("List pinned item ids and the latest rotation key."),
	), s.listPins)

	s.mcp.AddTool(mcp.NewTool("read_active_canvas",
		mcp.WithDescription("Read the items, selection, and pin state of the active canvas."),
	), s.readActiveCanvas)

	s.mcp.AddTool(mcp.NewTool("search_items",
		mcp.WithDescription("Full-text search through the items of every canvas in the vault."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchItems)

	s.mcp.AddTool(mcp.NewTool("get_canvas_contract",
		mcp.WithDescription("Returns how daily canvases, pins, and carryover work. "+
			"Call this before pinning so you know which canvas pins apply to."),
	), s.getCanvasContract)

	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Daily Canvas Contract",
			mcp.WithResourceDescription("Daily canvas file layout, pin semantics, and carryover rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// command returns a handler that runs the command id. A refused command
// is reported as plain text, not as a tool error.
func (s *Server) command(id string) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := s.svc.Execute(ctx, id)
		if errors.Is(err, apperr.ErrInapplicable) {
			return mcp.NewToolResultText("not applicable"), nil
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(res), nil
	}
}

func (s *Server) selectItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ids := []string{}
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	c, err := s.svc.Select(ctx, ids)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(c), nil
}

func (s *Server) listPins(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Settings(ctx)), nil
}

func (s *Server) readActiveCanvas(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := s.svc.ActiveCanvas(ctx)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("no canvas is open; call open_today first"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(c), nil
}

func (s *Server) searchItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) getCanvasContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CanvasContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     CanvasContract,
		},
	}, nil
}
