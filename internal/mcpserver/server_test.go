package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/vaultlink/internal/linkservice"
	"github.com/starford/vaultlink/internal/policy"
	"github.com/starford/vaultlink/internal/storage"
	"github.com/starford/vaultlink/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	testutil.WriteNotes(t, store, db, map[string]string{
		"projects/Project Plan.md": "---\nuuid: \"123\"\n---\n# Plan\n",
		"Inbox.md":                 "Read [[Project Plan#Goals]] first.\n",
	})
	policies, err := policy.NewStore(policy.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	svc := linkservice.NewService(store, db, policies, "Notes", testutil.Logger())
	return New(store, svc), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process "call tool" helper, so handlers are called directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "convert_to_internal":
		result, err = srv.convertToInternal(ctx, req)
	case "convert_to_external":
		result, err = srv.convertToExternal(ctx, req)
	case "convert_note":
		result, err = srv.convertNote(ctx, req)
	case "resolve_document":
		result, err = srv.resolveDocument(ctx, req)
	case "stamp_note":
		result, err = srv.stampNote(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "get_link_format":
		result, err = srv.getLinkFormat(ctx, req)
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

func TestConvertTextTools(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "convert_to_internal", map[string]any{"text": "obsidian://adv-uri?vault=Notes&uuid=123"})
	if r.IsError || resultText(r) != "[[Project Plan]]" {
		t.Errorf("to internal = %q (error=%v)", resultText(r), r.IsError)
	}

	r = callTool(t, srv, "convert_to_external", map[string]any{"text": "[[Project Plan]]"})
	want := "[Project Plan](obsidian://open?vault=Notes&file=projects%2FProject%20Plan)"
	if resultText(r) != want {
		t.Errorf("to external = %q, want %q", resultText(r), want)
	}

	// Nothing to convert returns the text unchanged, not an error.
	r = callTool(t, srv, "convert_to_internal", map[string]any{"text": "plain"})
	if r.IsError || resultText(r) != "plain" {
		t.Errorf("pass-through = %q (error=%v)", resultText(r), r.IsError)
	}

	r = callTool(t, srv, "convert_to_internal", map[string]any{})
	if !r.IsError {
		t.Error("missing text should be an error")
	}
}

func TestConvertNoteTool(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "convert_note", map[string]any{"path": "Inbox.md", "direction": "external"})
	if r.IsError {
		t.Fatalf("convert_note: %s", resultText(r))
	}
	data, _ := store.Read("Inbox.md")
	want := "Read [Project Plan](obsidian://open?vault=Notes&file=projects%2FProject%20Plan&heading=Goals) first.\n"
	if string(data) != want {
		t.Errorf("file = %q\nwant   %q", data, want)
	}

	r = callTool(t, srv, "convert_note", map[string]any{"path": "Inbox.md", "direction": "external"})
	if r.IsError || resultText(r) != "No internal links to convert found." {
		t.Errorf("second pass = %q", resultText(r))
	}
}

func TestConvertNoteTool_Range(t *testing.T) {
	srv, store := testServer(t)

	// The range covers "Read " only.
	r := callTool(t, srv, "convert_note", map[string]any{"path": "Inbox.md", "direction": "external", "start": 0, "end": 5})
	if r.IsError || resultText(r) != "No internal links to convert found." {
		t.Errorf("range = %q", resultText(r))
	}
	data, _ := store.Read("Inbox.md")
	if string(data) != "Read [[Project Plan#Goals]] first.\n" {
		t.Errorf("file changed: %q", data)
	}

	r = callTool(t, srv, "convert_note", map[string]any{"path": "Inbox.md", "direction": "external", "start": 0})
	if !r.IsError {
		t.Error("start without end should be an error")
	}
}

func TestConvertNoteTool_Errors(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "convert_note", map[string]any{"path": "missing.md", "direction": "internal"})
	if !r.IsError || !strings.Contains(resultText(r), "not found") {
		t.Errorf("missing note = %q", resultText(r))
	}
	r = callTool(t, srv, "convert_note", map[string]any{"path": "Inbox.md", "direction": "sideways"})
	if !r.IsError {
		t.Error("bad direction should be an error")
	}
}

func TestResolveDocumentTool(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "resolve_document", map[string]any{"id": "123"})
	if r.IsError || !strings.Contains(resultText(r), `"path": "projects/Project Plan.md"`) {
		t.Errorf("by id = %q", resultText(r))
	}
	r = callTool(t, srv, "resolve_document", map[string]any{"file": "project plan"})
	if r.IsError || !strings.Contains(resultText(r), `"stable_id": "123"`) {
		t.Errorf("by name = %q", resultText(r))
	}
	r = callTool(t, srv, "resolve_document", map[string]any{"file": "Nothing"})
	if !r.IsError {
		t.Error("unknown name should be an error")
	}
}

func TestStampAndListTools(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "stamp_note", map[string]any{"path": "Inbox.md"})
	if r.IsError || resultText(r) == "" {
		t.Fatalf("stamp = %q", resultText(r))
	}
	id := resultText(r)

	r = callTool(t, srv, "list_documents", nil)
	if !strings.Contains(resultText(r), "Inbox.md\t"+id) {
		t.Errorf("list = %q", resultText(r))
	}
}

func TestReadNoteAndFormat(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "read_note", map[string]any{"path": "Inbox.md"})
	if !strings.Contains(resultText(r), "[[Project Plan#Goals]]") {
		t.Errorf("read = %q", resultText(r))
	}
	r = callTool(t, srv, "read_note", map[string]any{"path": "missing.md"})
	if !r.IsError {
		t.Error("missing note should be an error")
	}
	r = callTool(t, srv, "get_link_format", nil)
	if resultText(r) != LinkFormatContract {
		t.Error("link format mismatch")
	}
}
