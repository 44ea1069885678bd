// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the notecal date index for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notecal/internal/noteservice"
	"github.com/starford/notecal/internal/parser"
	"github.com/starford/notecal/internal/storage"
)

// NoteFormatURI is the resource URI of the note format contract.
const NoteFormatURI = "notecal://note-format"

// Server wraps the MCP server with notecal tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *noteservice.Service
	store storage.Provider
}

// New creates a new MCP server with all notecal tools registered.
func New(svc *noteservice.Service, store storage.Provider, version string) *Server {
	s := &Server{svc: svc, store: store}

	s.mcp = server.NewMCPServer(
		"notecal",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_dates",
		mcp.WithDescription("List the calendar dates that have notes, with the number of notes per date."),
		mcp.WithString("month", mcp.Description("Optional month to restrict to, as YYYY-MM")),
	), s.listDates)

	s.mcp.AddTool(mcp.NewTool("notes_for_date",
		mcp.WithDescription("List the notes filed under a date, sorted by title."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date as YYYY-MM-DD")),
	), s.notesForDate)

	s.mcp.AddTool(mcp.NewTool("resolve_date",
		mcp.WithDescription("Resolve the date notecal would file a document under, from its full text."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full Markdown text including frontmatter")),
	), s.resolveDate)

	s.mcp.AddTool(mcp.NewTool("create_note_for_date",
		mcp.WithDescription("Create a new dated note from the template. "+
			"Without a date the selected date, the highlighted date, or today is used. "+
			"Read the notecal://note-format resource for the frontmatter rules."),
		mcp.WithString("date", mcp.Description("Optional date as YYYY-MM-DD")),
	), s.createNoteForDate)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path, or path relative to the workspace root")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List every Markdown note in the workspace or in one folder, dated or not."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the notecal note format contract: how a note's date is found."),
	), s.getNoteContract)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource(NoteFormatURI, "Note Format Contract",
			mcp.WithResourceDescription("How notecal reads dates from Markdown frontmatter."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listDates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.Dates(req.GetString("month", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(list)
}

func (s *Server) notesForDate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := s.svc.NotesForDate(date)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(notes)
}

func (s *Server) resolveDate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := parser.ResolveDocument(content, s.svc.DateFields())
	if !res.OK() {
		return mcp.NewToolResultText(fmt.Sprintf("no date (%s)", res.Status)), nil
	}
	return mcp.NewToolResultText(res.Date), nil
}

func (s *Server) createNoteForDate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	note, err := s.svc.CreateNoteForDate(ctx, req.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(note)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := s.svc.ReadNote(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metas, err := s.store.List(req.GetString("folder", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	paths := make([]string, 0, len(metas))
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      NoteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
