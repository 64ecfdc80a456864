package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/tracereplay/internal/config"
	"github.com/rpggio/tracereplay/internal/domain/activity"
	"github.com/rpggio/tracereplay/internal/domain/session"
	"github.com/rpggio/tracereplay/internal/mcp"
	"github.com/rpggio/tracereplay/internal/sqlite"
	"github.com/rpggio/tracereplay/internal/trace"
	"github.com/rpggio/tracereplay/internal/transport"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == config.ModeStdio {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		file, err := openLogFile(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = file
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("preparing database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		return err
	}

	source, err := newArtifactSource(cfg.Artifacts)
	if err != nil {
		return err
	}

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), logger)
	replaySvc := session.NewService(source, activitySvc, cfg.SessionConfig(), logger)
	defer replaySvc.Shutdown()

	resolver := sqlite.NewAPIKeyRepository(db)
	if err := resolver.Seed(context.Background(), cfg.Auth.Tokens); err != nil {
		return fmt.Errorf("seeding api keys: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cfg.Transport.Mode {
	case config.ModeStdio:
		return runStdioMode(ctx, logger, newMCPServer(cfg, replaySvc, resolver, logger))
	case config.ModeHTTP:
		server := newMCPServer(cfg, replaySvc, resolver, logger)
		handler := sdkmcp.NewStreamableHTTPHandler(
			func(*http.Request) *sdkmcp.Server { return server },
			&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
		)
		router := http.NewServeMux()
		router.Handle("/mcp", handler)
		router.Handle("/mcp/", handler)
		router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		return serveHTTP(ctx, logger, cfg.Addr(), router)
	default:
		auth := transport.StaticTenant(mcp.DefaultTenant)
		if cfg.AuthRequired() {
			auth = transport.AuthMiddleware(resolver)
		}
		router := transport.NewServer(mcp.NewHandler(replaySvc), auth, logger)
		return serveHTTP(ctx, logger, cfg.Addr(), router)
	}
}

func newMCPServer(cfg config.Config, replay mcp.ReplayService, resolver mcp.TenantResolver, logger *slog.Logger) *sdkmcp.Server {
	return mcp.NewServer(mcp.Config{
		Replay:        replay,
		Resolver:      resolver,
		AuthEnabled:   cfg.AuthRequired(),
		TransportMode: cfg.Transport.Mode,
		Version:       version,
		Logger:        logger,
	})
}

func newArtifactSource(cfg config.ArtifactsConfig) (session.ArtifactSource, error) {
	if cfg.BaseURL != "" {
		return trace.NewHTTPSource(cfg.BaseURL, &http.Client{Timeout: 30 * time.Second})
	}
	return trace.OpenDir(cfg.Dir), nil
}

func runStdioMode(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")
	// Run blocks until stdin closes or ctx is cancelled.
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func serveHTTP(ctx context.Context, logger *slog.Logger, addr string, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
