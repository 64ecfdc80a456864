package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeTraceActivated    ActivityType = "trace_activated"
	TypeEventMerged       ActivityType = "event_merged"
	TypePulseAdvanced     ActivityType = "pulse_advanced"
	TypeRunCompleted      ActivityType = "run_completed"
	TypeRunAborted        ActivityType = "run_aborted"
	TypeWorkflowActivated ActivityType = "workflow_activated"
	TypeWorkflowReset     ActivityType = "workflow_reset"
	TypeScanStarted       ActivityType = "scan_started"
	TypeScanCompleted     ActivityType = "scan_completed"
	TypeReportGenerated   ActivityType = "report_generated"
	TypeError             ActivityType = "error"
)

// ActivityEntry represents one line of a replay session's activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	TenantID     string       `json:"tenant_id"`
	SessionID    string       `json:"session_id"`
	RunID        *string      `json:"run_id,omitempty"`
	EventID      *string      `json:"event_id,omitempty"`
	Pulse        int          `json:"pulse,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}

// Line renders the entry the way the activity panel shows it.
func (e ActivityEntry) Line() string {
	return e.CreatedAt.Local().Format(time.TimeOnly) + "  " + e.Summary
}
