package scan

import "time"

// Status is the lifecycle status of a scan.
type Status string

const (
	StatusScanning  Status = "scanning"
	StatusCompleted Status = "completed"
)

// Severity grades a finding.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
)

// Finding is one reported issue.
type Finding struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Severity Severity `json:"severity"`
}

// Scan is a canned static-analysis run. It performs no analysis; it reports a
// fixed set of findings once its delay elapses.
type Scan struct {
	ID          string     `json:"scan_id"`
	Target      string     `json:"target,omitempty"`
	Status      Status     `json:"status"`
	Findings    []Finding  `json:"findings"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Completed reports whether the scan has finished.
func (s *Scan) Completed() bool {
	return s != nil && s.Status == StatusCompleted
}

// cannedFindings is the fixed result set of every scan.
func cannedFindings() []Finding {
	return []Finding{
		{ID: "f1", Title: "Critical: Reentrancy Exposure", Severity: SeverityCritical},
		{ID: "f2", Title: "High: Unprotected Withdrawal", Severity: SeverityHigh},
	}
}
