package session

import (
	"context"
	"fmt"

	"github.com/rpggio/tracereplay/internal/domain/activity"
	"github.com/rpggio/tracereplay/internal/domain/replay"
)

const completionLine = "Strategic consensus achieved. System final 100%."

// journal turns driver notifications into activity log lines.
func (s *Service) journal(sess *replaySession) replay.Observer {
	return func(ctx context.Context, n replay.Notification) {
		switch n.Kind {
		case replay.KindPulse:
			if len(n.Merged.Accepted) == 0 {
				s.record(ctx, sess, activity.ActivityEntry{
					ActivityType: activity.TypePulseAdvanced,
					Summary:      fmt.Sprintf("Advancing pulse %d...", n.Pulse),
					Pulse:        n.Pulse,
				})
				return
			}
			for _, e := range n.Merged.Accepted {
				id := e.EventID
				s.record(ctx, sess, activity.ActivityEntry{
					ActivityType: activity.TypeEventMerged,
					Summary:      fmt.Sprintf("[%s] %s", e.Type, e.Title),
					EventID:      &id,
					Pulse:        n.Pulse,
				})
			}
		case replay.KindRunCompleted:
			s.record(ctx, sess, activity.ActivityEntry{
				ActivityType: activity.TypeRunCompleted,
				Summary:      completionLine,
				Pulse:        n.Pulse,
			})
		case replay.KindRunAborted:
			s.record(ctx, sess, activity.ActivityEntry{
				ActivityType: activity.TypeRunAborted,
				Summary:      fmt.Sprintf("Replay cancelled after pulse %d.", n.Pulse),
				Pulse:        n.Pulse,
			})
		case replay.KindReset:
			s.record(ctx, sess, activity.ActivityEntry{
				ActivityType: activity.TypeWorkflowReset,
				Summary:      "Workflow reset.",
			})
		}
	}
}

// record fills in session identity and writes an entry. Closed sessions
// write nothing. Failures are logged; the activity log never blocks a replay.
func (s *Service) record(ctx context.Context, sess *replaySession, entry activity.ActivityEntry) {
	if sess.isClosed() {
		return
	}
	entry.SessionID = sess.key.SessionID
	if entry.RunID == nil {
		entry.RunID = sess.currentRunID()
	}
	if err := s.activity.LogActivity(ctx, sess.key.TenantID, &entry); err != nil {
		s.logger.Warn("activity log write failed", "session_id", sess.key.SessionID, "error", err)
	}
}
