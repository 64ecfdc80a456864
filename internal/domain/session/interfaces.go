package session

import (
	"context"

	"github.com/rpggio/tracereplay/internal/domain/activity"
	"github.com/rpggio/tracereplay/internal/domain/event"
)

// ArtifactSource supplies trace manifests, traces and the security report.
type ArtifactSource interface {
	Manifest(ctx context.Context) ([]string, error)
	Trace(ctx context.Context, name string) ([]event.Event, error)
	Report(ctx context.Context) (string, error)
}

// ActivityLog records and lists session activity.
type ActivityLog interface {
	LogActivity(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error
	GetRecentActivity(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
	ClearSession(ctx context.Context, tenantID, sessionID string) error
}
