package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notesclient/internal/api"
	"notesclient/internal/config"
	"notesclient/internal/notes"
	"notesclient/internal/session"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

//go:embed static
var staticFS embed.FS

type options struct {
	configPath string
	envFile    string
	apiURL     string
	host       string
	port       string
	logLevel   string
	markdown   bool
	mcp        bool
}

func main() {
	var opts options

	cmd := &cobra.Command{
		Use:   "notes-client",
		Short: "Web client for a notes service",
		Long: `notes-client serves a small web UI for a remote notes service.
It signs in with HTTP Basic credentials held in memory, lists the user's
notes and creates, edits and deletes them through the service's REST API.`,
		Example: `notes-client --api-url http://localhost:8080/api --port 7521`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "YAML config file")
	f.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	f.StringVar(&opts.apiURL, "api-url", "", "notes service base URL (env NOTES_API_URL)")
	f.StringVar(&opts.host, "host", "", "interface for the web UI, 127.0.0.1 unless set (env NOTES_HOST)")
	f.StringVar(&opts.port, "port", "", "HTTP port for the web UI (env PORT)")
	f.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
	f.BoolVar(&opts.markdown, "markdown", false, "render note content as markdown (env NOTES_MARKDOWN)")
	f.BoolVar(&opts.mcp, "mcp", true, "serve MCP tools at /mcp (env NOTES_MCP)")

	if err := fang.Execute(
		context.Background(),
		cmd,
		fang.WithVersion(version),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, opts options) error {
	// Config
	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	if f.Changed("api-url") {
		cfg.APIURL = opts.apiURL
	}
	if f.Changed("host") {
		cfg.Host = opts.host
	}
	if f.Changed("port") {
		cfg.Port = opts.port
	}
	if f.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if f.Changed("markdown") {
		cfg.Markdown = opts.markdown
	}
	if f.Changed("mcp") {
		cfg.MCP = opts.mcp
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := cfg.Level()

	// Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	// Wire dependencies
	apiClient := api.New(cfg.APIURL, nil, logger.With("component", "api"))
	noteClient := notes.NewClient(apiClient, &session.Session{}, logger.With("component", "notes"))

	router, err := newRouter(cfg, noteClient, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		// No WriteTimeout: a page action waits for the notes service for
		// as long as that takes.
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()

		logger.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("server starting", "addr", cfg.Addr(), "api", cfg.APIURL, "version", version)
	endpoints := []any{"web", "http://" + cfg.Addr()}
	if cfg.MCP {
		endpoints = append(endpoints, "mcp", "http://"+cfg.Addr()+"/mcp")
	}
	logger.Info("endpoints available", endpoints...)

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
