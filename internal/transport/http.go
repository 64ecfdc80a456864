package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes caps a JSON-RPC request body.
const maxBodyBytes = 1 << 20

// MCPHandler handles MCP method dispatch.
type MCPHandler interface {
	Handle(ctx context.Context, tenantID, sessionID, method string, params json.RawMessage) (any, error)
}

// CodedError is implemented by handler errors that carry an application
// error code.
type CodedError interface {
	error
	CodeValue() string
	MessageValue() string
	DetailsValue() any
	RecoveryHintValue() string
}

// Server wires HTTP handlers.
type Server struct {
	handler MCPHandler
	logger  *slog.Logger
}

// NewServer creates an HTTP server router with middleware. authMiddleware
// must put a tenant in the request context; use StaticTenant when
// authentication is disabled.
func NewServer(handler MCPHandler, authMiddleware func(http.Handler) http.Handler, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	srv := &Server{handler: handler, logger: logger}
	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Use(SessionMiddleware)
		r.Post("/mcp", srv.handleMCP)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, err := ParseRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		code := ErrInvalidReq
		if errors.Is(err, ErrParse) {
			code = ErrParseCode
		}
		WriteError(w, nil, code, err.Error(), nil)
		return
	}

	tenantID, ok := TenantFromContext(r.Context())
	if !ok {
		unauthorized(w, "missing tenant")
		return
	}

	sessionID, _ := SessionIDFromContext(r.Context())

	result, err := s.handler.Handle(r.Context(), tenantID, sessionID, req.Method, req.Params)
	s.logger.Debug("jsonrpc request",
		"method", req.Method,
		"tenant_id", tenantID,
		"session_id", sessionID,
		"request_id", middleware.GetReqID(r.Context()),
		"elapsed", time.Since(start),
		"error", err,
	)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		writeHandlerError(w, req.ID, err)
		return
	}

	WriteResult(w, req.ID, result)
}

// errorData is the JSON-RPC error data carried by coded handler errors.
type errorData struct {
	Code         string `json:"code"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func writeHandlerError(w http.ResponseWriter, id any, err error) {
	var coded CodedError
	if !errors.As(err, &coded) {
		WriteError(w, id, ErrInternal, err.Error(), nil)
		return
	}
	code := ErrApplication
	switch coded.CodeValue() {
	case "METHOD_NOT_FOUND":
		code = ErrMethodNotFound
	case "INVALID_PARAMS", "INVALID_INPUT":
		code = ErrInvalidParams
	}
	WriteError(w, id, code, coded.MessageValue(), errorData{
		Code:         coded.CodeValue(),
		Details:      coded.DetailsValue(),
		RecoveryHint: coded.RecoveryHintValue(),
	})
}
