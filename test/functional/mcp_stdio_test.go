package functional_test

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/tracereplay/internal/testserver"
	"github.com/stretchr/testify/require"
)

// stdioSession wraps an MCP client session for stdio transport testing
type stdioSession struct {
	session *sdkmcp.ClientSession
	cancel  context.CancelFunc
}

func newStdioSession(t *testing.T) *stdioSession {
	t.Helper()
	return newStdioSessionWithEnv(t, nil)
}

// writeArtifacts copies the fixture artifacts to a temporary directory.
func writeArtifacts(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, file := range testserver.Artifacts() {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), file.Data, 0o600))
	}
	return dir
}

func newStdioSessionWithEnv(t *testing.T, extraEnv []string) *stdioSession {
	t.Helper()

	// Find the binary
	binaryPath := "./bin/tracereplay"
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		binaryPath = "../../bin/tracereplay"
		if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
			t.Skip("Server binary not found. Run 'make build' first.")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	cmd := exec.CommandContext(ctx, binaryPath)
	cmd.Env = append(os.Environ(),
		"TRACEREPLAY_TRANSPORT_MODE=stdio",
		"TRACEREPLAY_DB_PATH=:memory:",
		"TRACEREPLAY_ARTIFACTS_DIR="+writeArtifacts(t),
		"TRACEREPLAY_REPLAY_TOTAL_PULSES=3",
		"TRACEREPLAY_REPLAY_STEP_PAUSE=0s",
		"TRACEREPLAY_SCAN_DELAY=0s",
	)
	if len(extraEnv) > 0 {
		cmd.Env = append(cmd.Env, extraEnv...)
	}

	transport := &sdkmcp.CommandTransport{Command: cmd}

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		cancel()
		t.Fatalf("Failed to connect: %v", err)
	}

	t.Cleanup(func() {
		session.Close()
		cancel()
	})

	return &stdioSession{session: session, cancel: cancel}
}

func (s *stdioSession) callTool(t *testing.T, name string, args map[string]any) json.RawMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := s.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err, "CallTool %s failed", name)
	require.False(t, result.IsError, "Tool %s returned error", name)
	require.NotEmpty(t, result.Content, "Tool %s returned no content", name)

	// Extract text content
	for _, content := range result.Content {
		if textContent, ok := content.(*sdkmcp.TextContent); ok {
			return json.RawMessage(textContent.Text)
		}
	}
	t.Fatalf("Tool %s returned no text content", name)
	return nil
}

func TestStdioFunctional_ReplayWorkflow(t *testing.T) {
	s := newStdioSession(t)

	var open snapshot
	require.NoError(t, json.Unmarshal(s.callTool(t, "open_session", nil), &open))
	require.Equal(t, "run_events.json", open.Trace)

	var done snapshot
	require.NoError(t, json.Unmarshal(s.callTool(t, "run_all", map[string]any{"wait": true}), &done))
	require.Equal(t, "completed", done.State)
	require.Len(t, done.Events, 3)

	var step snapshot
	require.NoError(t, json.Unmarshal(s.callTool(t, "run_pulse", nil), &step))
	require.False(t, step.Accepted, "stepping past the last pulse is ignored")
	require.Equal(t, 3, step.PulseIndex)

	var reset snapshot
	require.NoError(t, json.Unmarshal(s.callTool(t, "reset_workflow", nil), &reset))
	require.Empty(t, reset.Events)
}

func TestStdioFunctional_ScanAndReport(t *testing.T) {
	s := newStdioSession(t)

	_ = s.callTool(t, "start_scan", map[string]any{"target": "Vault.sol"})

	var scan struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(s.callTool(t, "get_scan", nil), &scan))
	require.Equal(t, "completed", scan.Status)

	var report struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(s.callTool(t, "build_report", nil), &report))
	require.Contains(t, report.Text, "Reentrancy exposure")
}

func TestStdioFunctional_MCPProtocolCompliance(t *testing.T) {
	s := newStdioSession(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tools, err := s.session.ListTools(ctx, nil)
	require.NoError(t, err)

	toolMap := make(map[string]*sdkmcp.Tool, len(tools.Tools))
	for _, tool := range tools.Tools {
		toolMap[tool.Name] = tool
	}

	for _, name := range []string{"run_all", "run_pulse", "reset_workflow", "get_view", "start_scan", "build_report"} {
		require.Contains(t, toolMap, name)
		require.NotEmpty(t, toolMap[name].Description)
		require.NotNil(t, toolMap[name].InputSchema)
	}
}

func TestStdioFunctional_LogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tracereplay.log")
	s := newStdioSessionWithEnv(t, []string{
		"TRACEREPLAY_LOG_PATH=" + logPath,
		"TRACEREPLAY_LOG_LEVEL=debug",
	})

	_ = s.callTool(t, "get_view", nil)

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(logPath)
		if err != nil {
			return false
		}
		text := string(data)
		return strings.Contains(text, `msg="mcp traffic"`) &&
			strings.Contains(text, "stage=request") &&
			strings.Contains(text, "stage=response")
	}, 5*time.Second, 100*time.Millisecond)
}

func TestStdioFunctional_Activity(t *testing.T) {
	s := newStdioSession(t)

	_ = s.callTool(t, "run_all", map[string]any{"wait": true})

	var recent struct {
		Entries []struct {
			Type    string `json:"type"`
			Summary string `json:"summary"`
			Line    string `json:"line"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(s.callTool(t, "get_recent_activity", map[string]any{}), &recent))
	require.NotEmpty(t, recent.Entries)
	require.Equal(t, "run_completed", recent.Entries[0].Type)

	var summaries []string
	for _, e := range recent.Entries {
		summaries = append(summaries, e.Summary)
	}
	require.Contains(t, summaries, "Advancing pulse 2...")
	require.Contains(t, summaries, "Activated Trace: run_events.json (5 events)")
}

func TestStdioFunctional_DocumentationResources(t *testing.T) {
	s := newStdioSession(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resources, err := s.session.ListResources(ctx, nil)
	require.NoError(t, err)
	require.NotEmpty(t, resources.Resources)

	uris := make(map[string]*sdkmcp.Resource, len(resources.Resources))
	for _, r := range resources.Resources {
		uris[r.URI] = r
	}

	expected := []string{
		"tracereplay://docs/index",
		"tracereplay://docs/concepts",
		"tracereplay://docs/workflows",
	}
	for _, uri := range expected {
		r, ok := uris[uri]
		require.True(t, ok, "missing expected doc resource: %s", uri)
		require.NotEmpty(t, r.Name)
		require.Equal(t, "text/markdown", r.MIMEType)
		require.Greater(t, r.Size, int64(0))
	}

	read, err := s.session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "tracereplay://docs/index"})
	require.NoError(t, err)
	require.NotEmpty(t, read.Contents)
	require.Equal(t, "tracereplay://docs/index", read.Contents[0].URI)
	require.Equal(t, "text/markdown", read.Contents[0].MIMEType)
	require.Contains(t, read.Contents[0].Text, "Docs Index")
}
