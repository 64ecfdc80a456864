package mcp

import (
	"context"
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// toolSpec pairs a tool name with its description and argument type.
type toolSpec struct {
	name        string
	description string
	register    func(server *sdkmcp.Server, h *Handler, tool *sdkmcp.Tool)
}

func tool[In any](name, description string) toolSpec {
	return toolSpec{
		name:        name,
		description: description,
		register: func(server *sdkmcp.Server, h *Handler, t *sdkmcp.Tool) {
			sdkmcp.AddTool(server, t, toolHandler[In](h, name))
		},
	}
}

// toolCatalog lists every MCP tool in presentation order.
func toolCatalog() []toolSpec {
	return []toolSpec{
		// Sessions
		tool[SessionParams]("open_session", "Open (or resume) a replay session and load the default trace"),
		tool[struct{}]("list_sessions", "List the current tenant's live replay sessions"),
		tool[SessionParams]("close_session", "Close a replay session and discard its activity log"),

		// Traces
		tool[SessionParams]("list_traces", "List recorded traces available for replay"),
		tool[SelectTraceParams]("select_trace", "Load a recorded trace and reset the replay onto it"),

		// Replay control
		tool[RunAllParams]("run_all", "Replay every pulse from the start, pausing between pulses"),
		tool[SessionParams]("run_pulse", "Merge the next pulse into the event log"),
		tool[SessionParams]("activate_workflow", "Mark the workflow active without replaying a pulse"),
		tool[SessionParams]("reset_workflow", "Clear the event log, scan and report"),
		tool[SessionParams]("cancel_run", "Stop an in-flight run_all before its next pulse"),

		// Views
		tool[SessionParams]("get_view", "Get the full replay state: events, workflow projection, graph, feed and timeline"),
		tool[SessionParams]("get_workflow", "Get the workflow projection and replay state"),
		tool[SessionParams]("get_actor_graph", "Get the actor graph derived from the event log"),
		tool[SessionParams]("get_governance_feed", "Get governance events with their votes and rationale"),
		tool[SessionParams]("get_timeline", "Get events grouped by pulse"),

		// Scan and report
		tool[StartScanParams]("start_scan", "Start the static security scan"),
		tool[GetScanParams]("get_scan", "Get scan status and findings"),
		tool[SessionParams]("build_report", "Build the security report preview after a completed scan"),
		tool[GetReportParams]("get_report", "Get the last built security report"),

		// Activity
		tool[GetRecentActivityParams]("get_recent_activity", "Get the session's recent activity log, newest first"),
	}
}

func registerTools(server *sdkmcp.Server, h *Handler) {
	for _, spec := range toolCatalog() {
		spec.register(server, h, &sdkmcp.Tool{Name: spec.name, Description: spec.description})
	}
}

// toolHandler validates arguments against In, then dispatches the raw
// arguments through the handler. Domain errors become tool errors carrying
// the APIError as JSON.
func toolHandler[In any](h *Handler, method string) sdkmcp.ToolHandlerFor[In, any] {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, _ In) (*sdkmcp.CallToolResult, any, error) {
		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		result, err := h.Handle(ctx, getTenantID(ctx), getSessionID(ctx), method, args)
		if err != nil {
			return toolError(err), nil, nil
		}
		return nil, result, nil
	}
}

func toolError(err error) *sdkmcp.CallToolResult {
	payload := any(err.Error())
	if apiErr := MapError(err); apiErr != nil {
		payload = apiErr
	}
	text, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		text = []byte(err.Error())
	}
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(text)}},
	}
}
