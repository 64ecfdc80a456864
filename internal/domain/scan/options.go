package scan

import (
	"context"
	"log/slog"
	"time"
)

// DefaultDelay is how long a scan stays in the scanning state.
const DefaultDelay = 1500 * time.Millisecond

// Option configures a Service.
type Option func(*Service)

// WithDelay sets the time before a started scan completes. Zero completes
// scans synchronously.
func WithDelay(d time.Duration) Option {
	return func(s *Service) { s.delay = d }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithCompletionHook registers a callback invoked once per completed scan.
func WithCompletionHook(fn func(ctx context.Context, sc Scan)) Option {
	return func(s *Service) { s.onComplete = fn }
}
