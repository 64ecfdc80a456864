package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

type tenantKey struct{}

// TenantResolver resolves a tenant ID from a bearer token.
type TenantResolver interface {
	ResolveTenant(ctx context.Context, token string) (string, error)
}

// TenantFromContext returns the tenant ID from context, if present.
func TenantFromContext(ctx context.Context) (string, bool) {
	tenantID, ok := ctx.Value(tenantKey{}).(string)
	return tenantID, ok && tenantID != ""
}

func withTenant(r *http.Request, tenantID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), tenantKey{}, tenantID))
}

// bearerToken extracts the token from an Authorization header. The scheme
// is matched case-insensitively.
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AuthMiddleware enforces bearer token authentication. Rejections are 401s
// carrying a JSON-RPC error body so clients can decode them like any other
// response.
func AuthMiddleware(resolver TenantResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			tenantID, err := resolver.ResolveTenant(r.Context(), token)
			if err != nil || tenantID == "" {
				unauthorized(w, "invalid bearer token")
				return
			}

			next.ServeHTTP(w, withTenant(r, tenantID))
		})
	}
}

// StaticTenant assigns every request to tenantID without authenticating.
func StaticTenant(tenantID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, withTenant(r, tenantID))
		})
	}
}

func unauthorized(w http.ResponseWriter, details string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="tracereplay"`)
	writeJSON(w, http.StatusUnauthorized, Response{
		JSONRPC: "2.0",
		Error: &Error{
			Code:    ErrApplication,
			Message: ErrUnauthorized.Error(),
			Data:    errorData{Code: "UNAUTHORIZED", Details: details},
		},
	})
}
