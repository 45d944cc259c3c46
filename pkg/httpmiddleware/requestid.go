package httpmiddleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const maxRequestIDLen = 128

// RequestIDConfig configures the RequestID middleware.
type RequestIDConfig struct {
	// Header carries the ID in both directions. Defaults to X-Request-ID.
	Header string
	// Generate creates an ID when the request has no usable one.
	// Defaults to a time-ordered UUIDv7, so IDs sort by arrival in logs.
	Generate func() string
}

type requestIDKey struct{}

// RequestIDFromContext returns the request ID stored by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestID stores a request ID in the context and echoes it in the
// response header. An incoming ID is kept only if it is a short token of
// letters, digits and ".-_:" so it can be logged verbatim.
func RequestID(cfg RequestIDConfig) Middleware {
	if cfg.Header == "" {
		cfg.Header = "X-Request-ID"
	}
	if cfg.Generate == nil {
		cfg.Generate = newRequestID
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(cfg.Header)
			if !isRequestIDToken(id) {
				id = cfg.Generate()
			}
			w.Header().Set(cfg.Header, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		})
	}
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func isRequestIDToken(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := range len(id) {
		switch c := id[i]; {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}
