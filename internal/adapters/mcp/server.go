// Package mcpadapter exposes the catalog and query services as MCP tools over stdio.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
	"github.com/kirillkom/docsearch-summarizer/internal/core/ports"
)

const (
	serverName    = "docsearch-summarizer"
	serverVersion = "1.0.0"
)

type Server struct {
	catalog ports.CatalogService
	query   ports.QueryService
	mcp     *server.MCPServer
}

func NewServer(catalog ports.CatalogService, query ports.QueryService) *Server {
	s := &Server{
		catalog: catalog,
		query:   query,
		mcp:     server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List documents indexed in the search catalog with their bucket, path and title."),
		mcp.WithString("prefix", mcp.Description("Only return documents whose full name starts with this prefix.")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Answer a question from the indexed documents and return cited sources."),
		mcp.WithString("question", mcp.Required(), mcp.Description("Natural language question.")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("sample_queries",
		mcp.WithDescription("Return example questions that work well against the catalog."),
	), s.sampleQueries)

	return s
}

// ServeStdio blocks until stdin is closed.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.catalog.List(ctx)
	if err != nil {
		return toolError("list_documents", err), nil
	}

	prefix := strings.TrimSpace(req.GetString("prefix", ""))
	filtered := make([]domain.CatalogEntry, 0, len(entries))
	for _, e := range entries {
		if prefix == "" || strings.HasPrefix(e.FullName, prefix) {
			filtered = append(filtered, e)
		}
	}
	return jsonResult(map[string]any{"documents": filtered, "total": len(filtered)})
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("question is required"), nil
	}

	// Tool calls are stateless, so no session trigger is tracked.
	result, err := s.query.Answer(ctx, "", question)
	if err != nil {
		return toolError("search_documents", err), nil
	}
	return jsonResult(result)
}

func (s *Server) sampleQueries(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"queries": s.query.SampleQueries()})
}

func toolError(tool string, err error) *mcp.CallToolResult {
	slog.Warn("mcp_tool_failed", "tool", tool, "error", err)
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
