package session

import "errors"

var (
	// ErrSessionNotFound indicates the session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTraceNotFound indicates the requested trace is not in the artifact source.
	ErrTraceNotFound = errors.New("trace not found")
	// ErrScanIncomplete indicates a report was requested before a scan completed.
	ErrScanIncomplete = errors.New("scan not completed")
	// ErrInvalidInput indicates invalid session input.
	ErrInvalidInput = errors.New("invalid session input")
)
