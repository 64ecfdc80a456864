package mcp

import (
	"time"

	"github.com/rpggio/tracereplay/internal/domain/activity"
	"github.com/rpggio/tracereplay/internal/domain/event"
	"github.com/rpggio/tracereplay/internal/domain/pulse"
	"github.com/rpggio/tracereplay/internal/domain/replay"
	"github.com/rpggio/tracereplay/internal/domain/session"
	"github.com/rpggio/tracereplay/internal/domain/views"
	"github.com/rpggio/tracereplay/internal/report"
)

// SessionParams is accepted by every tool. An explicit session id overrides
// the one carried by the transport.
type SessionParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"replay session id; defaults to the transport session"`
}

type SelectTraceParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"replay session id; defaults to the transport session"`
	Trace     string `json:"trace" jsonschema:"trace file name from list_traces, e.g. run_events.json"`
}

type RunAllParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"replay session id; defaults to the transport session"`
	Wait      bool   `json:"wait,omitempty" jsonschema:"block until the run completes instead of returning once it starts"`
}

type StartScanParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"replay session id; defaults to the transport session"`
	Target    string `json:"target,omitempty" jsonschema:"contract path or label to scan"`
}

type GetScanParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"replay session id; defaults to the transport session"`
	ScanID    string `json:"scan_id,omitempty" jsonschema:"scan id; defaults to the session's latest scan"`
}

type GetReportParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"replay session id; defaults to the transport session"`
	Full      bool   `json:"full,omitempty" jsonschema:"include the full report text"`
}

type GetRecentActivityParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"replay session id; defaults to the transport session"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum entries, newest first (default 20)"`
}

type ListTracesResponse struct {
	Traces  []string `json:"traces"`
	Current string   `json:"current"`
}

type WorkflowResponse struct {
	State      replay.State     `json:"state"`
	Busy       bool             `json:"busy"`
	RunID      *string          `json:"run_id"`
	PulseIndex int              `json:"pulse_index"`
	Workflow   pulse.Projection `json:"workflow"`
	EventCount int              `json:"event_count"`
}

type ActorGraphResponse struct {
	views.ActorGraph
	ActiveEdge *views.Edge `json:"active_edge,omitempty"`
}

type GovernanceFeedResponse struct {
	Events []GovernanceEntry `json:"events"`
}

// GovernanceEntry flattens a governance event with its decoded payload.
type GovernanceEntry struct {
	EventID   string       `json:"event_id"`
	PulseID   string       `json:"pulse_id"`
	TS        string       `json:"ts"`
	Type      event.Type   `json:"type"`
	From      string       `json:"from"`
	To        string       `json:"to"`
	Title     string       `json:"title"`
	Message   string       `json:"message,omitempty"`
	Rationale string       `json:"rationale,omitempty"`
	Votes     []event.Vote `json:"votes,omitempty"`
}

type TimelineResponse struct {
	Groups []views.TimelineGroup `json:"groups"`
}

type ReportResponse struct {
	report.Preview
	FullText string `json:"full_text,omitempty"`
}

type ListSessionsResponse struct {
	Sessions []session.SessionInfo `json:"sessions"`
}

type RecentActivityResponse struct {
	Entries []ActivityEntryResponse `json:"entries"`
}

type ActivityEntryResponse struct {
	Timestamp time.Time             `json:"timestamp"`
	Type      activity.ActivityType `json:"type"`
	RunID     *string               `json:"run_id,omitempty"`
	EventID   *string               `json:"event_id,omitempty"`
	Pulse     int                   `json:"pulse,omitempty"`
	Summary   string                `json:"summary"`
	Line      string                `json:"line"`
}

type CloseSessionResponse struct {
	SessionID string `json:"session_id"`
	Closed    bool   `json:"closed"`
}
