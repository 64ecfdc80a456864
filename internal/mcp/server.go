package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/tracereplay/internal/domain/activity"
	"github.com/rpggio/tracereplay/internal/domain/scan"
	"github.com/rpggio/tracereplay/internal/domain/session"
	"github.com/rpggio/tracereplay/internal/report"
)

// ReplayService defines the replay session operations needed by MCP.
type ReplayService interface {
	Open(ctx context.Context, tenantID, sessionID string) (session.Snapshot, error)
	ListSessions(ctx context.Context, tenantID string) []session.SessionInfo
	Close(ctx context.Context, tenantID, sessionID string) error
	ListTraces(ctx context.Context, tenantID, sessionID string) ([]string, error)
	SelectTrace(ctx context.Context, tenantID, sessionID, name string) (session.Outcome, error)
	RunAll(ctx context.Context, tenantID, sessionID string, wait bool) (session.Outcome, error)
	RunPulse(ctx context.Context, tenantID, sessionID string) (session.Outcome, error)
	Activate(ctx context.Context, tenantID, sessionID string) (session.Outcome, error)
	Reset(ctx context.Context, tenantID, sessionID string) (session.Outcome, error)
	Cancel(ctx context.Context, tenantID, sessionID string) (session.Snapshot, error)
	View(ctx context.Context, tenantID, sessionID string) (session.Snapshot, error)
	StartScan(ctx context.Context, tenantID, sessionID, target string) (scan.Scan, error)
	GetScan(ctx context.Context, tenantID, sessionID, scanID string) (scan.Scan, error)
	BuildReport(ctx context.Context, tenantID, sessionID string) (report.Preview, error)
	Report(ctx context.Context, tenantID, sessionID string) (report.Preview, error)
	Activity(ctx context.Context, tenantID, sessionID string, limit int) ([]activity.ActivityEntry, error)
}

// Config contains server configuration.
type Config struct {
	Replay        ReplayService
	Resolver      TenantResolver
	AuthEnabled   bool
	TransportMode string // "stdio", "http" or "jsonrpc"
	Version       string
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "tracereplay",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is local only and never authenticates.
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		server.AddReceivingMiddleware(noAuthMiddleware(DefaultTenant))
	}
	server.AddReceivingMiddleware(sessionMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, NewHandler(cfg.Replay))

	return server
}
