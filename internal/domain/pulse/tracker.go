package pulse

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rpggio/tracereplay/internal/domain/event"
)

const labelPrefix = "pulse_"

// Label returns the pulse_id label for a 1-based pulse index.
func Label(index int) string {
	return labelPrefix + strconv.Itoa(index)
}

// Index parses a pulse_id label. Unlabelled events belong to pulse 1.
func Index(label string) (int, bool) {
	if label == "" {
		return 1, true
	}
	n, err := strconv.Atoi(strings.TrimPrefix(label, labelPrefix))
	if err != nil || !strings.HasPrefix(label, labelPrefix) || n < 1 {
		return 0, false
	}
	return n, true
}

// Select returns the candidate events that belong to the pulse at index, in
// candidate order. Pulse 1 also absorbs every event without a pulse_id.
func Select(all []event.Event, index int) []event.Event {
	label := Label(index)
	var selected []event.Event
	for _, e := range all {
		pulseID := e.Pulse()
		if pulseID == label || (index == 1 && pulseID == "") {
			selected = append(selected, e)
		}
	}
	return selected
}

// Progress returns round(100*completed/total) clamped to [0, 100].
func Progress(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	progress := (200*completed + total) / (2 * total)
	if progress > 100 {
		return 100
	}
	return progress
}

// Tracker owns the current pulse index and is the only writer of the
// workflow Projection.
type Tracker struct {
	mu         sync.RWMutex
	total      int
	index      int
	projection Projection
}

// NewTracker creates a tracker for a workflow of total pulses.
func NewTracker(total int) *Tracker {
	if total <= 0 {
		total = DefaultTotal
	}
	return &Tracker{total: total, projection: Initial(total)}
}

// Total returns the fixed pulse count.
func (t *Tracker) Total() int {
	return t.total
}

// Index returns the highest pulse index reached.
func (t *Tracker) Index() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.index
}

// Projection returns the current workflow projection.
func (t *Tracker) Projection() Projection {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.projection
}

// Advance recomputes the projection for completed = index. An index outside
// [1, total] returns ErrOutOfRange and leaves the tracker untouched. Lower or
// equal indexes are accepted and simply recompute.
func (t *Tracker) Advance(index int) (Projection, error) {
	if index < 1 || index > t.total {
		return Projection{}, fmt.Errorf("%w: pulse %d of %d", ErrOutOfRange, index, t.total)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	progress := Progress(index, t.total)
	status := StatusActive
	if progress == 100 {
		status = StatusCompleted
	}

	t.index = index
	t.projection = Projection{
		Status: status,
		TaskSummary: TaskSummary{
			Total:     t.total,
			Pending:   t.total - index,
			Running:   t.projection.TaskSummary.Running,
			Completed: index,
			Progress:  progress,
		},
	}
	return t.projection, nil
}

// Activate marks the workflow active without completing a pulse.
func (t *Tracker) Activate() Projection {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.projection.Status == StatusInactive {
		t.projection.Status = StatusActive
	}
	return t.projection
}

// SetRunning records whether a replay step is in flight.
func (t *Tracker) SetRunning(running bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if running {
		t.projection.TaskSummary.Running = 1
	} else {
		t.projection.TaskSummary.Running = 0
	}
}

// Reset restores the initial projection and zeroes the index.
func (t *Tracker) Reset() Projection {
	t.mu.Lock()
	defer t.mu.Unlock()
	running := t.projection.TaskSummary.Running
	t.index = 0
	t.projection = Initial(t.total)
	t.projection.TaskSummary.Running = running
	return t.projection
}
