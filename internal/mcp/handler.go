package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpggio/tracereplay/internal/domain/session"
	"github.com/tidwall/gjson"
)

// Handler dispatches replay commands. The MCP tools and the JSON-RPC
// transport both route through Handle.
type Handler struct {
	replay ReplayService
}

// NewHandler creates a new MCP handler.
func NewHandler(replay ReplayService) *Handler {
	return &Handler{replay: replay}
}

// Handle dispatches a method to the replay service. A session_id argument in
// params takes precedence over sessionID.
func (h *Handler) Handle(ctx context.Context, tenantID, sessionID, method string, params json.RawMessage) (any, error) {
	if sid := gjson.GetBytes(params, "session_id"); sid.Type == gjson.String && sid.Str != "" {
		sessionID = sid.Str
	}

	switch method {
	case "open_session":
		if sessionID == "" {
			sessionID = session.NewSessionID()
		}
		return wrap(h.replay.Open(ctx, tenantID, sessionID))
	case "list_sessions":
		return ListSessionsResponse{Sessions: h.replay.ListSessions(ctx, tenantID)}, nil
	case "close_session":
		if err := h.replay.Close(ctx, tenantID, sessionID); err != nil {
			return nil, mapError(err)
		}
		return CloseSessionResponse{SessionID: sessionID, Closed: true}, nil
	case "list_traces":
		traces, err := h.replay.ListTraces(ctx, tenantID, sessionID)
		if err != nil {
			return nil, mapError(err)
		}
		view, err := h.replay.View(ctx, tenantID, sessionID)
		if err != nil {
			return nil, mapError(err)
		}
		return ListTracesResponse{Traces: traces, Current: view.Trace}, nil
	case "select_trace":
		var req SelectTraceParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return wrap(h.replay.SelectTrace(ctx, tenantID, sessionID, req.Trace))
	case "run_all":
		var req RunAllParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return wrap(h.replay.RunAll(ctx, tenantID, sessionID, req.Wait))
	case "run_pulse":
		return wrap(h.replay.RunPulse(ctx, tenantID, sessionID))
	case "activate_workflow":
		return wrap(h.replay.Activate(ctx, tenantID, sessionID))
	case "reset_workflow":
		return wrap(h.replay.Reset(ctx, tenantID, sessionID))
	case "cancel_run":
		return wrap(h.replay.Cancel(ctx, tenantID, sessionID))
	case "get_view":
		return wrap(h.replay.View(ctx, tenantID, sessionID))
	case "get_workflow":
		view, err := h.replay.View(ctx, tenantID, sessionID)
		if err != nil {
			return nil, mapError(err)
		}
		return WorkflowResponse{
			State:      view.State,
			Busy:       view.Busy,
			RunID:      view.RunID,
			PulseIndex: view.PulseIndex,
			Workflow:   view.Projection,
			EventCount: len(view.Events),
		}, nil
	case "get_actor_graph":
		view, err := h.replay.View(ctx, tenantID, sessionID)
		if err != nil {
			return nil, mapError(err)
		}
		resp := ActorGraphResponse{ActorGraph: view.Graph}
		if edge, ok := view.Graph.ActiveEdge(); ok {
			resp.ActiveEdge = &edge
		}
		return resp, nil
	case "get_governance_feed":
		view, err := h.replay.View(ctx, tenantID, sessionID)
		if err != nil {
			return nil, mapError(err)
		}
		resp := GovernanceFeedResponse{Events: make([]GovernanceEntry, 0, len(view.Governance))}
		for _, e := range view.Governance {
			details := e.Details()
			resp.Events = append(resp.Events, GovernanceEntry{
				EventID:   e.EventID,
				PulseID:   e.Pulse(),
				TS:        e.TS,
				Type:      e.Type,
				From:      e.From,
				To:        e.To,
				Title:     e.Title,
				Message:   details.Message,
				Rationale: details.Rationale,
				Votes:     details.Votes,
			})
		}
		return resp, nil
	case "get_timeline":
		view, err := h.replay.View(ctx, tenantID, sessionID)
		if err != nil {
			return nil, mapError(err)
		}
		return TimelineResponse{Groups: view.Timeline}, nil
	case "start_scan":
		var req StartScanParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return wrap(h.replay.StartScan(ctx, tenantID, sessionID, req.Target))
	case "get_scan":
		var req GetScanParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return wrap(h.replay.GetScan(ctx, tenantID, sessionID, req.ScanID))
	case "build_report":
		preview, err := h.replay.BuildReport(ctx, tenantID, sessionID)
		if err != nil {
			return nil, mapError(err)
		}
		return ReportResponse{Preview: preview}, nil
	case "get_report":
		var req GetReportParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		preview, err := h.replay.Report(ctx, tenantID, sessionID)
		if err != nil {
			return nil, mapError(err)
		}
		resp := ReportResponse{Preview: preview}
		if req.Full {
			resp.FullText = preview.Full
		}
		return resp, nil
	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		entries, err := h.replay.Activity(ctx, tenantID, sessionID, req.Limit)
		if err != nil {
			return nil, mapError(err)
		}
		resp := RecentActivityResponse{Entries: make([]ActivityEntryResponse, 0, len(entries))}
		for _, entry := range entries {
			resp.Entries = append(resp.Entries, ActivityEntryResponse{
				Timestamp: entry.CreatedAt,
				Type:      entry.ActivityType,
				RunID:     entry.RunID,
				EventID:   entry.EventID,
				Pulse:     entry.Pulse,
				Summary:   entry.Summary,
				Line:      entry.Line(),
			})
		}
		return resp, nil
	default:
		return nil, mapError(fmt.Errorf("%w: %s", ErrUnknownMethod, method))
	}
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return mapError(fmt.Errorf("%w: %v", ErrInvalidParams, err))
	}
	return nil
}

func wrap[T any](v T, err error) (any, error) {
	if err != nil {
		return nil, mapError(err)
	}
	return v, nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
