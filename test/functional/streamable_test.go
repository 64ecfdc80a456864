package functional_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/tracereplay/internal/testserver"
	"github.com/stretchr/testify/require"
)

// bearerTransport adds a bearer token to every request.
type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(req)
}

func connectStreamable(t *testing.T, ts *testserver.TestServer, token string) (*sdkmcp.ClientSession, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.MCP.URL,
		HTTPClient: &http.Client{Transport: bearerTransport{token: token, base: http.DefaultTransport}},
	}, nil)
	if err == nil {
		t.Cleanup(func() { _ = session.Close() })
	}
	return session, err
}

func TestStreamable_ToolsRequireAuth(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")

	session, err := connectStreamable(t, ts, "wrong")
	require.NoError(t, err, "initialize is not authenticated")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "get_view"})
	require.ErrorContains(t, err, "unauthorized")
}

func TestStreamable_ReplayOverMCP(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")
	session, err := connectStreamable(t, ts, ts.Token)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "run_all",
		Arguments: map[string]any{"wait": true},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	out := decode[snapshot](t, result.StructuredContent)
	require.True(t, out.Accepted)
	require.Equal(t, "completed", out.State)
	require.Len(t, out.Events, 3)

	// The MCP session id selects the replay session; other transports do
	// not see it.
	other := call[snapshot](t, ts, "unrelated", "get_view", nil)
	require.Empty(t, other.Events)

	result, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "get_workflow"})
	require.NoError(t, err)
	workflow := decode[struct {
		State      string `json:"state"`
		EventCount int    `json:"event_count"`
	}](t, result.StructuredContent)
	require.Equal(t, "completed", workflow.State)
	require.Equal(t, 3, workflow.EventCount)
}

func decode[T any](t *testing.T, value any) T {
	t.Helper()
	data, err := json.Marshal(value)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}
