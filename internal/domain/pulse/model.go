package pulse

// Status is the workflow lifecycle status shown to the presentation layer.
type Status string

const (
	StatusInactive  Status = "inactive"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// DefaultTotal is the pulse count of the recorded workflow.
const DefaultTotal = 11

// TaskSummary is the counter block of a Projection.
type TaskSummary struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Progress  int `json:"progress"`
}

// Projection is the workflow status derived from pulse completion. It cannot
// be set directly; only a Tracker produces it.
type Projection struct {
	Status      Status      `json:"status"`
	TaskSummary TaskSummary `json:"task_summary"`
}

// Initial returns the projection of a workflow that has not run.
func Initial(total int) Projection {
	return Projection{
		Status: StatusInactive,
		TaskSummary: TaskSummary{
			Total:   total,
			Pending: total,
		},
	}
}
