package mocks

import (
	"context"

	"github.com/rpggio/tracereplay/internal/domain/activity"
	"github.com/rpggio/tracereplay/internal/domain/event"
	"github.com/stretchr/testify/mock"
)

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, tenantID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) DeleteSession(ctx context.Context, tenantID, sessionID string) error {
	args := m.Called(ctx, tenantID, sessionID)
	return args.Error(0)
}

// ArtifactSource is a mock for repository.ArtifactSource.
type ArtifactSource struct {
	mock.Mock
}

func (m *ArtifactSource) Manifest(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]string); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ArtifactSource) Trace(ctx context.Context, name string) ([]event.Event, error) {
	args := m.Called(ctx, name)
	if events, ok := args.Get(0).([]event.Event); ok {
		return events, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ArtifactSource) Report(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
