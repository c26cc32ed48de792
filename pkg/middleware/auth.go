package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/multidelivery/painel/pkg/auth"
	"github.com/multidelivery/painel/pkg/ctx"
	"github.com/multidelivery/painel/pkg/logger"
	"github.com/multidelivery/painel/pkg/response"
)

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID string
	Role   string
}

// Authenticator resolves an opaque bearer token to the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Identity, error)
}

// AuthenticatorFunc adapts a plain function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, token string) (Identity, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, token string) (Identity, error) {
	return f(ctx, token)
}

// Unauthorized is implemented by errors whose message is safe to send with a 401.
type Unauthorized interface {
	error
	Unauthorized() bool
}

const msgInvalidTicket = "Ticket inválido"

type identityKey struct{}

// WithIdentity stores id in the context.
func WithIdentity(c context.Context, id Identity) context.Context {
	return context.WithValue(c, identityKey{}, id)
}

// IdentityFromCtx returns the caller stored by Authenticate or StreamTicket.
func IdentityFromCtx(c context.Context) (Identity, bool) {
	id, ok := c.Value(identityKey{}).(Identity)
	return id, ok
}

func RoleFromCtx(r *http.Request) (string, bool) {
	id, ok := IdentityFromCtx(r.Context())
	return id.Role, ok && id.Role != ""
}

// Authenticate requires a valid "Authorization: Bearer <token>" session.
func Authenticate(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := a.Authenticate(r.Context(), ctx.BearerToken(r))
			if err != nil {
				var unauth Unauthorized
				if errors.As(err, &unauth) && unauth.Unauthorized() {
					response.Unauthorized(w, unauth.Error())
					return
				}
				logger.WithCtx(r.Context()).Error("authenticate", "error", err)
				response.Error(w, http.StatusInternalServerError, ctx.MsgInternal)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// StreamTicket authenticates push streams through the ?ticket= query
// parameter, since EventSource and browser WebSockets cannot send headers.
func StreamTicket(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := auth.ValidateToken(r.URL.Query().Get("ticket"), auth.PurposeStream)
		if err != nil {
			response.Unauthorized(w, msgInvalidTicket)
			return
		}
		id := Identity{UserID: claims.UserID, Role: claims.Role}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}
