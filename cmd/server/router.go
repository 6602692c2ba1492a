package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"notesclient/internal/config"
	mcpserver "notesclient/internal/mcp"
	"notesclient/internal/notes"

	"github.com/mark3labs/mcp-go/server"
)

// newRouter mounts every endpoint and guards the state-changing ones
// against cross-origin browser requests.
func newRouter(cfg config.Config, noteClient *notes.Client, logger *slog.Logger) (http.Handler, error) {
	var md *notes.Markdown
	if cfg.Markdown {
		md = notes.NewMarkdown()
	}
	noteHandler := notes.NewHandler(noteClient, md, logger)

	mux := http.NewServeMux()

	// Static files
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to get static fs: %w", err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))

	// Web UI
	noteHandler.Routes(mux)

	// MCP endpoint (HTTP transport)
	if cfg.MCP {
		mcpHTTP := server.NewStreamableHTTPServer(mcpserver.NewServer(noteClient, version))
		mux.Handle("POST /mcp", mcpHTTP)
		mux.Handle("GET /mcp", mcpHTTP)
		mux.Handle("DELETE /mcp", mcpHTTP)
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Browsers send Sec-Fetch-Site or Origin; a POST from another site is
	// rejected with 403. Non-browser clients send neither and pass.
	return http.NewCrossOriginProtection().Handler(mux), nil
}
