package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/tracereplay/internal/domain/pulse"
	"github.com/rpggio/tracereplay/internal/domain/scan"
	"github.com/rpggio/tracereplay/internal/domain/session"
	"github.com/rpggio/tracereplay/internal/report"
)

var (
	// ErrInvalidParams indicates tool arguments that could not be decoded.
	ErrInvalidParams = errors.New("invalid params")
	// ErrUnknownMethod indicates a method with no handler.
	ErrUnknownMethod = errors.New("unknown method")
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, ErrInvalidParams):
		return &APIError{Code: "INVALID_PARAMS", Message: err.Error(), RecoveryHint: "Check argument names and types"}
	case errors.Is(err, ErrUnknownMethod):
		return &APIError{Code: "METHOD_NOT_FOUND", Message: err.Error(), RecoveryHint: "See tracereplay://docs/index for available tools"}
	case errors.Is(err, session.ErrSessionNotFound):
		return &APIError{Code: "SESSION_NOT_FOUND", Message: "session not found", RecoveryHint: "Call open_session to start a new session"}
	case errors.Is(err, session.ErrTraceNotFound):
		return &APIError{Code: "TRACE_NOT_FOUND", Message: err.Error(), RecoveryHint: "Call list_traces for available names"}
	case errors.Is(err, session.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Check required arguments"}
	case errors.Is(err, session.ErrScanIncomplete):
		return &APIError{Code: "SCAN_INCOMPLETE", Message: "scan not completed", RecoveryHint: "Call start_scan, then poll get_scan until status is completed"}
	case errors.Is(err, scan.ErrScanNotFound):
		return &APIError{Code: "SCAN_NOT_FOUND", Message: "scan not found", RecoveryHint: "Call start_scan first"}
	case errors.Is(err, report.ErrReportUnavailable):
		return &APIError{Code: "REPORT_UNAVAILABLE", Message: err.Error(), RecoveryHint: "Call build_report after a completed scan"}
	case errors.Is(err, pulse.ErrOutOfRange):
		return &APIError{Code: "PULSE_OUT_OF_RANGE", Message: err.Error(), RecoveryHint: "Call reset_workflow to start over"}
	default:
		return nil
	}
}
