package transport

import (
	"context"
	"net/http"
)

// SessionHeader carries the replay session id on HTTP requests.
const SessionHeader = "Mcp-Session-Id"

type sessionKey struct{}

// SessionIDFromContext returns the session ID from context, if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionKey{}).(string)
	return sessionID, ok
}

// SessionMiddleware reads the session id from the Mcp-Session-Id header, or
// the session query parameter, stores it in context and echoes it on the
// response.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get(SessionHeader)
		if sessionID == "" {
			sessionID = r.URL.Query().Get("session")
		}
		if sessionID == "" {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set(SessionHeader, sessionID)
		ctx := context.WithValue(r.Context(), sessionKey{}, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
