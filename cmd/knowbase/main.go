// CLAUDE:SUMMARY Entry point for the knowbase service — chi admin API, bcrypt admin auth, background monitor, optional MCP stdio.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/knowbase/dbopen"
	"github.com/hazyhaar/knowbase/knowledge"
	"github.com/hazyhaar/knowbase/shield"
)

func main() {
	port := env("PORT", "8086")
	dbPath := env("KNOWBASE_DB", "db/knowbase.db")
	uploadDir := env("UPLOAD_DIR", "uploads")
	configPath := env("CONFIG_FILE", "")
	mcpTransport := env("MCP_TRANSPORT", "")
	logLevel := env("LOG_LEVEL", "info")

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		slog.Error("ADMIN_PASSWORD is required")
		os.Exit(1)
	}
	adminHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("hash admin password", "error", err)
		os.Exit(1)
	}

	// Logging.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Config file is optional; env DB path wins when both are set.
	cfg := &knowledge.Config{}
	if configPath != "" {
		cfg, err = knowledge.LoadConfigFile(configPath)
		if err != nil {
			slog.Error("load config", "path", configPath, "error", err)
			os.Exit(1)
		}
	}
	cfg.DBPath = dbPath

	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		slog.Error("create upload dir", "error", err)
		os.Exit(1)
	}

	db, err := dbopen.Open(cfg.DBPath, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	svc, err := knowledge.New(db, cfg, logger)
	if err != nil {
		slog.Error("knowledge service", "error", err)
		os.Exit(1)
	}

	// Optional MCP over stdio. All logging goes to stdout as JSON, which
	// would corrupt the protocol stream, so stdio mode is exclusive: no
	// HTTP server, logs rerouted to stderr.
	if mcpTransport == "stdio" {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
		slog.SetDefault(logger)

		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "knowbase",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)
		svc.Pipeline().RegisterMCP(mcpSrv)

		svc.Start(ctx)
		slog.Info("MCP stdio starting")
		if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			slog.Error("MCP stdio", "error", err)
			os.Exit(1)
		}
		return
	}

	// Start the ingestion monitor.
	svc.Start(ctx)

	// Router.
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack() {
		r.Use(mw)
	}
	limiter := shield.NewRateLimiter([]shield.RateLimitRule{
		{Prefix: "/api/", MaxRequests: 120, WindowSeconds: 60},
	}, "/health")
	limiter.StartGC(ctx.Done())
	r.Use(limiter.Middleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	api := &apiServer{svc: svc, uploadDir: uploadDir, adminHash: adminHash}
	r.Route("/api", api.routes)

	// HTTP server.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
