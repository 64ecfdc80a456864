package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `tracereplay replays a recorded multi-agent workflow trace pulse by pulse.

Core concepts:
- Trace: a recorded JSON event log. list_traces shows what can be loaded; select_trace loads one.
- Pulse: one batch of events sharing a pulse id. Pulses are replayed in order, 1..N (11 by default).
- Event log: the deduplicated, timestamp-ordered record of every event merged so far.
- Views: workflow projection, actor graph, governance feed and timeline. All are derived from the event log.
- Session: each caller gets its own replay, scan and activity log.

Default workflow:
1) open_session, then list_traces / select_trace.
2) run_pulse to step, or run_all to replay everything (wait=true blocks until done).
3) Read state with get_view, or the narrower get_workflow / get_actor_graph / get_governance_feed / get_timeline.
4) start_scan, poll get_scan until completed, then build_report.
5) get_recent_activity for a human-readable log. reset_workflow starts over.

Commands issued while a run is in flight return accepted=false and change nothing. Use cancel_run to stop a run.

Docs:
- tracereplay://docs/index
- tracereplay://docs/concepts
- tracereplay://docs/workflows
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "tracereplay://docs/index",
		Name:        "docs_index",
		Title:       "tracereplay docs index",
		Description: "Entry point: the tool groups and which doc to read next.",
		Content: `# tracereplay: Docs Index

## Tools

- Sessions: ` + "`open_session`" + `, ` + "`list_sessions`" + `, ` + "`close_session`" + `
- Traces: ` + "`list_traces`" + `, ` + "`select_trace`" + `
- Replay: ` + "`run_all`" + `, ` + "`run_pulse`" + `, ` + "`activate_workflow`" + `, ` + "`reset_workflow`" + `, ` + "`cancel_run`" + `
- Views: ` + "`get_view`" + `, ` + "`get_workflow`" + `, ` + "`get_actor_graph`" + `, ` + "`get_governance_feed`" + `, ` + "`get_timeline`" + `
- Scan and report: ` + "`start_scan`" + `, ` + "`get_scan`" + `, ` + "`build_report`" + `, ` + "`get_report`" + `
- Activity: ` + "`get_recent_activity`" + `

## Docs

- ` + "`tracereplay://docs/concepts`" + `: events, pulses, merge rules and the workflow projection.
- ` + "`tracereplay://docs/workflows`" + `: replay, scan and report playbooks.

## Limits

- Report previews are truncated to 12000 characters. Pass ` + "`full=true`" + ` to ` + "`get_report`" + ` for the whole text.
- ` + "`get_recent_activity`" + ` returns 20 entries unless ` + "`limit`" + ` is set.
`,
	},
	{
		URI:         "tracereplay://docs/concepts",
		Name:        "docs_concepts",
		Title:       "Concepts",
		Description: "Event log merge rules, pulse ordering and the workflow projection.",
		Content: `# Concepts

## Event log

- Events are keyed by ` + "`event_id`" + `. A second event with the same id is dropped, even inside one pulse.
- The log is always sorted by ` + "`ts`" + `. Events with equal timestamps keep arrival order.
- Accepted events are never modified.

## Pulses

- The pulse count is fixed by configuration, not discovered from the trace.
- Pulse i merges every event whose pulse id is ` + "`pulse_i`" + `. A pulse may be empty.
- Events without a pulse id are only part of the log if another pulse carries them.

## Workflow projection

The projection has a status (inactive, active, completed) and a task summary: total, pending, running and completed pulse counts plus a progress percentage.
It is a pure function of how many pulses have been merged, so replaying the same trace always yields the same projection.

## Derived views

- Actor graph: one node per actor, one edge per event with distinct from/to actors.
- Governance feed: governance events with their message, rationale and votes.
- Timeline: events grouped by pulse, in pulse order.
`,
	},
	{
		URI:         "tracereplay://docs/workflows",
		Name:        "docs_workflows",
		Title:       "Workflows",
		Description: "Playbooks for replay, stepping, cancelling, scanning and reporting.",
		Content: `# Workflows

## Full replay

1) ` + "`select_trace`" + ` (optional; the default trace is loaded on open).
2) ` + "`run_all`" + `. Without ` + "`wait`" + ` it returns as soon as the run starts; poll ` + "`get_view`" + ` until ` + "`state`" + ` is ` + "`completed`" + `.
3) ` + "`cancel_run`" + ` stops the run before its next pulse. Merged events stay in the log.

## Stepping

- ` + "`run_pulse`" + ` merges the next pulse. Past the last pulse it is a no-op.
- ` + "`activate_workflow`" + ` marks the workflow active without merging anything.
- ` + "`reset_workflow`" + ` clears the log, the scan and the report.

## Scan and report

1) ` + "`start_scan`" + ` returns a scan in ` + "`scanning`" + ` state.
2) Poll ` + "`get_scan`" + ` until ` + "`completed`" + `.
3) ` + "`build_report`" + ` loads the security report and returns a preview. It fails with ` + "`SCAN_INCOMPLETE`" + ` before the scan completes.

## Busy commands

While a run is in flight, ` + "`select_trace`" + `, ` + "`run_all`" + `, ` + "`run_pulse`" + `, ` + "`activate_workflow`" + ` and ` + "`reset_workflow`" + ` return ` + "`accepted: false`" + ` and leave state unchanged.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
