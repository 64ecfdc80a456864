package repository

import (
	"context"

	"github.com/rpggio/tracereplay/internal/domain/activity"
	"github.com/rpggio/tracereplay/internal/domain/event"
)

// ActivityRepository manages activity log persistence
type ActivityRepository interface {
	Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error
	List(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
	DeleteSession(ctx context.Context, tenantID, sessionID string) error
}

// ArtifactSource supplies the recorded traces and report a session replays
type ArtifactSource interface {
	Manifest(ctx context.Context) ([]string, error)
	Trace(ctx context.Context, name string) ([]event.Event, error)
	Report(ctx context.Context) (string, error)
}

// APIKeyRepository maps bearer tokens to tenants
type APIKeyRepository interface {
	Add(ctx context.Context, token, tenantID string) error
	ResolveTenant(ctx context.Context, token string) (string, error)
}
