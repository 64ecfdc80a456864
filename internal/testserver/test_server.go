package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/tracereplay/internal/domain/activity"
	"github.com/rpggio/tracereplay/internal/domain/session"
	"github.com/rpggio/tracereplay/internal/mcp"
	"github.com/rpggio/tracereplay/internal/sqlite"
	"github.com/rpggio/tracereplay/internal/trace"
	"github.com/rpggio/tracereplay/internal/transport"
	"github.com/stretchr/testify/require"
)

// RunEvents is the default trace fixture. Pulse 2 is empty and e0 carries no
// pulse, so a full run merges e1, e3 and e4.
const RunEvents = `{"run_id":"run_events","events":[
 {"event_id":"e0","run_id":"run_events","pulse_id":null,"ts":"2026-02-10T09:59:00Z","type":"run_started","from":"","to":"Orchestrator","title":"Run started"},
 {"event_id":"e1","run_id":"run_events","pulse_id":"pulse_1","ts":"2026-02-10T10:00:00Z","type":"agent_message","from":"Risk Agent","to":"Council","title":"Risk brief"},
 {"event_id":"e3","run_id":"run_events","pulse_id":"pulse_3","ts":"2026-02-10T10:02:00Z","type":"governance_vote","from":"Council","to":"Orchestrator","title":"Council vote","payload":{"rationale":"within limits","votes":[{"member":"risk","vote":"approve"},{"member":"ops","vote":"approve"}]}},
 {"event_id":"e4","run_id":"run_events","pulse_id":"pulse_3","ts":"2026-02-10T10:01:30Z","type":"decision_finalized","from":"Orchestrator","to":"Executor","title":"Decision"},
 {"event_id":"e1","run_id":"run_events","pulse_id":"pulse_3","ts":"2026-02-10T10:03:00Z","type":"agent_message","from":"Risk Agent","to":"Council","title":"Duplicate brief"}
]}`

// RunAlt is a second, single-event trace.
const RunAlt = `[{"event_id":"a1","pulse_id":"pulse_1","ts":"2026-02-11T10:00:00Z","type":"agent_message","from":"Ops","to":"Council","title":"Ops note"}]`

// Report is the security report fixture.
const Report = "# Security Report\n\n## Findings\n- **Critical**: Reentrancy exposure in `withdraw`\n- High: unprotected withdrawal\n"

// TotalPulses is the pulse count the test server replays.
const TotalPulses = 3

// Artifacts returns the artifact fixtures as a filesystem.
func Artifacts() fstest.MapFS {
	return fstest.MapFS{
		trace.ManifestFile: {Data: []byte(`["run_events.json","run_alt.json"]`)},
		"run_events.json":  {Data: []byte(RunEvents)},
		"run_alt.json":     {Data: []byte(RunAlt)},
		trace.ReportFile:   {Data: []byte(Report)},
	}
}

// TestServer serves one replay stack over both the JSON-RPC transport and
// streamable MCP HTTP.
type TestServer struct {
	Server   *httptest.Server
	MCP      *httptest.Server
	DB       *sqlite.DB
	Replay   *session.Service
	Token    string
	TenantID string
}

// New starts a test server authenticating token as tenantID.
func New(t *testing.T, token, tenantID string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	apiKeys := sqlite.NewAPIKeyRepository(db)
	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)
	replaySvc := session.NewService(trace.NewDirSource(Artifacts()), activitySvc, session.Config{
		TotalPulses: TotalPulses,
		StepPause:   25 * time.Millisecond,
		ScanDelay:   20 * time.Millisecond,
	}, nil)

	server := httptest.NewServer(transport.NewServer(mcp.NewHandler(replaySvc), transport.AuthMiddleware(apiKeys), nil))

	mcpServer := mcp.NewServer(mcp.Config{
		Replay:        replaySvc,
		Resolver:      apiKeys,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	mcpHTTP := httptest.NewServer(sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer }, nil,
	))

	ts := &TestServer{
		Server:   server,
		MCP:      mcpHTTP,
		DB:       db,
		Replay:   replaySvc,
		Token:    token,
		TenantID: tenantID,
	}

	require.NoError(t, ts.AddAPIKey(token, tenantID))

	t.Cleanup(func() {
		server.Close()
		mcpHTTP.Close()
		replaySvc.Shutdown()
		_ = db.Close()
	})

	return ts
}

// AddAPIKey registers another bearer token.
func (ts *TestServer) AddAPIKey(token, tenantID string) error {
	return sqlite.NewAPIKeyRepository(ts.DB).Add(context.Background(), token, tenantID)
}
