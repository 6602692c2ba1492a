package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"notesclient/internal/notes"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates an MCP server whose tools drive the same notes client
// as the web UI. Tools act with whatever session the UI signed in.
func NewServer(client *notes.Client, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"Notes Client",
		version,
		server.WithToolCapabilities(true),
	)

	// Tool: list_notes - Refresh and return every note
	s.AddTool(
		mcp.NewTool("list_notes",
			mcp.WithDescription("Fetch all notes of the signed-in user from the notes service. Requires a user to be logged in through the web UI."),
		),
		handleListNotes(client),
	)

	// Tool: create_note - Create a note
	s.AddTool(
		mcp.NewTool("create_note",
			mcp.WithDescription("Create a note with a title and content."),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("Note title"),
			),
			mcp.WithString("content",
				mcp.Required(),
				mcp.Description("Note body"),
			),
		),
		handleCreateNote(client),
	)

	// Tool: update_note - Replace a note's title and content
	s.AddTool(
		mcp.NewTool("update_note",
			mcp.WithDescription("Replace the title and content of an existing note."),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("The note ID"),
			),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("New title"),
			),
			mcp.WithString("content",
				mcp.Required(),
				mcp.Description("New content"),
			),
		),
		handleUpdateNote(client),
	)

	// Tool: delete_note - Delete a note
	s.AddTool(
		mcp.NewTool("delete_note",
			mcp.WithDescription("Delete a note by ID. This cannot be undone."),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("The note ID"),
			),
			mcp.WithString("confirm",
				mcp.Required(),
				mcp.Description("Must be set to 'yes' to confirm deletion"),
			),
		),
		handleDeleteNote(client),
	)

	return s
}

// NoteResult represents a note in tool responses
type NoteResult struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func handleListNotes(client *notes.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if msg := client.ListNotes(ctx); msg.IsError {
			return mcp.NewToolResultError(msg.Text), nil
		}

		state := client.Snapshot()
		if !state.Authenticated {
			return mcp.NewToolResultError("not logged in"), nil
		}

		results := notesToResults(state.Notes)
		data, _ := json.MarshalIndent(results, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleCreateNote(client *notes.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := req.RequireString("title")
		if err != nil {
			return mcp.NewToolResultError("title is required"), nil
		}
		content, err := req.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError("content is required"), nil
		}

		return messageResult(client.CreateNote(ctx, title, content)), nil
	}
}

func handleUpdateNote(client *notes.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := noteID(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		title, err := req.RequireString("title")
		if err != nil {
			return mcp.NewToolResultError("title is required"), nil
		}
		content, err := req.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError("content is required"), nil
		}

		return messageResult(client.UpdateNote(ctx, id, title, content)), nil
	}
}

func handleDeleteNote(client *notes.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := noteID(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if req.GetString("confirm", "") != "yes" {
			return mcp.NewToolResultError("deletion not confirmed: set confirm to 'yes'"), nil
		}

		return messageResult(client.DeleteNote(ctx, id, true)), nil
	}
}

// Helper functions

func messageResult(msg notes.Message) *mcp.CallToolResult {
	if msg.IsError {
		return mcp.NewToolResultError(msg.Text)
	}
	return mcp.NewToolResultText(msg.Text)
}

func noteID(req mcp.CallToolRequest) (int64, error) {
	id := req.GetInt("id", 0)
	if id <= 0 {
		return 0, fmt.Errorf("id must be a positive integer")
	}
	return int64(id), nil
}

func notesToResults(items []notes.Item) []NoteResult {
	results := make([]NoteResult, len(items))
	for i, item := range items {
		n := item.Note
		results[i] = NoteResult{
			ID:        n.ID,
			Title:     n.Title,
			Content:   n.Content,
			CreatedAt: n.CreatedAt.Time,
		}
		if n.UpdatedAt != nil {
			t := n.UpdatedAt.Time
			results[i].UpdatedAt = &t
		}
	}
	return results
}
