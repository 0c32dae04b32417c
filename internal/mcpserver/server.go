// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes vault metrics tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vaultmetrics/internal/apperr"
	"github.com/starford/vaultmetrics/internal/models"
	"github.com/starford/vaultmetrics/internal/service"
)

const formatURI = "vaultmetrics://metrics-format"

// Server wraps the MCP server with vault metrics tools.
type Server struct {
	mcp *server.MCPServer
	svc *service.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *service.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"vaultmetrics",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_vault_metrics",
		mcp.WithDescription("Compute the full metrics snapshot of the vault: per-note metrics, "+
			"the wikilink graph and the duplicate-name count. Read the field reference via "+
			"get_metrics_format or the "+formatURI+" resource."),
	), s.getVaultMetrics)

	s.mcp.AddTool(mcp.NewTool("get_note_metrics",
		mcp.WithDescription("Compute the metrics record of a single note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.getNoteMetrics)

	s.mcp.AddTool(mcp.NewTool("count_duplicate_notes",
		mcp.WithDescription("Count display names shared by two or more notes and list the notes carrying them."),
	), s.countDuplicateNotes)

	s.mcp.AddTool(mcp.NewTool("compute_metrics",
		mcp.WithDescription("Compute a snapshot for notes supplied inline instead of read from the vault."),
		mcp.WithString("request", mcp.Required(),
			mcp.Description(`JSON payload: {"notes":[{"full_text":"...","path":"/root/a.md"}],"path_to_vault":"/root"}`)),
	), s.computeMetrics)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes or notes in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_metrics_format",
		mcp.WithDescription("Returns the reference of every field in the metrics snapshot."),
	), s.getMetricsFormat)

	// Resource: snapshot field reference.
	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Metrics Format",
			mcp.WithResourceDescription("Field reference of the vault metrics snapshot."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMetricsFormatResource,
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

func (s *Server) getVaultMetrics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.svc.Generate(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(doc), nil
}

func (s *Server) getNoteMetrics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m, err := s.svc.NoteMetrics(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(m, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) countDuplicateNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dups, err := s.svc.Duplicates(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"count":      len(dups),
		"duplicates": dups,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) computeMetrics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("request")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var payload models.Request
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid request JSON: %v", err)), nil
	}
	doc, err := s.svc.Compute(ctx, payload)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(doc), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = strings.Trim(f, "/")
	}

	inputs, err := s.svc.Inputs(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	prefix := s.svc.Root() + "/"
	var paths []string
	for _, in := range inputs {
		rel := strings.TrimPrefix(in.Path, prefix)
		if folder != "" && !strings.HasPrefix(rel, folder+"/") {
			continue
		}
		paths = append(paths, rel)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getMetricsFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MetricsFormat), nil
}

func (s *Server) readMetricsFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     MetricsFormat,
		},
	}, nil
}
