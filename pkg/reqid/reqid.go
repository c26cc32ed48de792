// Package reqid assigns every HTTP request an id, stores it in the request
// context and echoes it in the X-Request-ID response header. The request
// logger tags every line with it:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("status atualizado", "pedido_id", id)
//	// → level=INFO msg="status atualizado" request_id=3f0c... pedido_id=...
package reqid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type ctxKey struct{}

// Header is the HTTP header used to propagate the request ID.
const Header = "X-Request-ID"

// maxLen bounds ids accepted from clients.
const maxLen = 64

// New returns a random UUID.
func New() string {
	return uuid.NewString()
}

func WithValue(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromCtx returns the request ID in ctx, or "".
func FromCtx(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

// Middleware reuses a sane upstream X-Request-ID or generates a new one.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(Header)
			if !acceptable(id) {
				id = New()
			}

			w.Header().Set(Header, id)
			next.ServeHTTP(w, r.WithContext(WithValue(r.Context(), id)))
		})
	}
}

func acceptable(id string) bool {
	if id == "" || len(id) > maxLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
