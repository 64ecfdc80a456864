package session

import (
	"time"

	"github.com/rpggio/tracereplay/internal/domain/replay"
	"github.com/rpggio/tracereplay/internal/domain/scan"
)

const (
	// DefaultSessionID is used when a caller does not identify its session.
	DefaultSessionID = "default"
	// ManualActivationRunID is the run id assigned by Activate.
	ManualActivationRunID = "run_manual_activation"
)

// Key identifies a replay session.
type Key struct {
	TenantID  string
	SessionID string
}

// Snapshot is a session's replay view plus its trace, scan and report state.
type Snapshot struct {
	SessionID string   `json:"session_id"`
	Trace     string   `json:"trace"`
	Traces    []string `json:"traces"`
	RunID     *string  `json:"run_id"`
	replay.View
	Scan        *scan.Scan `json:"scan,omitempty"`
	ReportReady bool       `json:"report_ready"`
}

// Outcome reports whether a guarded operation ran, and the resulting state.
// Operations requested while a run is in flight are ignored, not failed.
type Outcome struct {
	Accepted bool `json:"accepted"`
	Snapshot
}

// SessionInfo summarises a live session.
type SessionInfo struct {
	SessionID    string       `json:"session_id"`
	Trace        string       `json:"trace"`
	State        replay.State `json:"state"`
	CreatedAt    time.Time    `json:"created_at"`
	LastActivity time.Time    `json:"last_activity"`
}
