// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes link conversion tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vaultlink/internal/apperr"
	"github.com/starford/vaultlink/internal/buffer"
	"github.com/starford/vaultlink/internal/convert"
	"github.com/starford/vaultlink/internal/linkservice"
	"github.com/starford/vaultlink/internal/storage"
	"github.com/starford/vaultlink/internal/uri"
)

const linkFormatURI = "vaultlink://link-format"

// Server wraps the MCP server with the conversion tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	svc   *linkservice.Service
}

// New creates a new MCP server with all tools registered.
func New(store storage.Provider, svc *linkservice.Service) *Server {
	s := &Server{store: store, svc: svc}

	s.mcp = server.NewMCPServer(
		"vaultlink",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("convert_to_internal",
		mcp.WithDescription("Replace vault URIs in the given text with [[internal links]]. "+
			"URIs that do not resolve are left unchanged."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Markdown text to convert")),
	), s.convertToInternal)

	s.mcp.AddTool(mcp.NewTool("convert_to_external",
		mcp.WithDescription("Replace [[internal links]] in the given text with [text](uri) links."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Markdown text to convert")),
	), s.convertToExternal)

	s.mcp.AddTool(mcp.NewTool("convert_note",
		mcp.WithDescription("Convert links inside a vault note and save it. "+
			"Pass start and end to limit the pass to a byte range."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
		mcp.WithString("direction", mcp.Required(), mcp.Enum("internal", "external"),
			mcp.Description("internal: URIs to [[links]]; external: [[links]] to URIs")),
		mcp.WithNumber("start", mcp.Description("Optional start byte offset of the range")),
		mcp.WithNumber("end", mcp.Description("Optional end byte offset of the range")),
	), s.convertNote)

	s.mcp.AddTool(mcp.NewTool("resolve_document",
		mcp.WithDescription("Find the document a name or stable id refers to."),
		mcp.WithString("file", mcp.Description("Document name or vault path without .md")),
		mcp.WithString("id", mcp.Description("Stable id stored in the configured frontmatter field")),
	), s.resolveDocument)

	s.mcp.AddTool(mcp.NewTool("stamp_note",
		mcp.WithDescription("Give a note a stable id in its frontmatter if it has none, and return the id."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
	), s.stampNote)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List indexed documents with their names and stable ids."),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("get_link_format",
		mcp.WithDescription("Returns the internal link and URI notations and the conversion rules."),
	), s.getLinkFormat)

	// Resource: link format contract.
	s.mcp.AddResource(
		mcp.NewResource(linkFormatURI, "Link Format",
			mcp.WithResourceDescription("Internal link and URI notations handled by the converter."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLinkFormatResource,
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

func (s *Server) convertToInternal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.convertText(ctx, req, convert.ToInternal)
}

func (s *Server) convertToExternal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.convertText(ctx, req, convert.ToExternal)
}

func (s *Server) convertText(ctx context.Context, req mcp.CallToolRequest, dir convert.Direction) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ConvertText(ctx, text, dir)
	if err != nil && !errors.Is(err, apperr.ErrNoConvertibleSpans) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(res.Text), nil
}

func (s *Server) convertNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawDir, err := req.RequireString("direction")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dir, err := convert.ParseDirection(rawDir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sel *buffer.Range
	args := req.GetArguments()
	_, hasStart := args["start"]
	_, hasEnd := args["end"]
	if hasStart || hasEnd {
		if !hasStart || !hasEnd {
			return mcp.NewToolResultError("start and end must be given together"), nil
		}
		sel = &buffer.Range{Start: req.GetInt("start", 0), End: req.GetInt("end", 0)}
	}

	res, err := s.svc.ConvertNote(ctx, path, dir, sel, "")
	switch {
	case errors.Is(err, apperr.ErrNoConvertibleSpans):
		return mcp.NewToolResultText(dir.NothingMessage()), nil
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s %d converted, %d left unchanged in %s",
		dir.DoneMessage(), res.Converted, res.Skipped, path)), nil
}

func (s *Server) resolveDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, value := uri.ByName, req.GetString("file", "")
	if value == "" {
		kind, value = uri.ByStableID, req.GetString("id", "")
	}
	if value == "" {
		return mcp.NewToolResultError("one of file or id is required"), nil
	}
	doc, err := s.svc.Resolve(ctx, kind, value)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no document for %q", value)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, _ := s.svc.StableID(doc)
	out, _ := json.MarshalIndent(map[string]string{
		"name":      doc.Name,
		"path":      doc.Path,
		"stable_id": id,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) stampNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, _, err := s.svc.Stamp(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(id), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.Documents(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		line := it.Path
		if it.StableID != "" {
			line += "\t" + it.StableID
		}
		lines = append(lines, line)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getLinkFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LinkFormatContract), nil
}

func (s *Server) readLinkFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      linkFormatURI,
			MIMEType: "text/markdown",
			Text:     LinkFormatContract,
		},
	}, nil
}
