package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/docflow/internal/api/respond"
	"github.com/markdave123-py/docflow/internal/core"
	"github.com/markdave123-py/docflow/internal/models"
)

// Guard is what the auth middleware needs from services.Guard.
type Guard interface {
	Authenticate(token string) (models.Identity, error)
	Authorize(id models.Identity, roles ...models.Role) error
}

type (
	identityKey struct{}
	slotKey     struct{}
)

// identitySlot lets a middleware outside Authenticate see who the caller was
// once the inner handlers return.
type identitySlot struct {
	id models.Identity
	ok bool
}

func withIdentitySlot(ctx context.Context) (context.Context, *identitySlot) {
	slot := &identitySlot{}
	return context.WithValue(ctx, slotKey{}, slot), slot
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by Authenticate.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(models.Identity)
	return id, ok
}

// Authenticate validates the bearer token and attaches the caller's identity to the request context.
func Authenticate(guard Guard, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := guard.Authenticate(bearerToken(r))
			if err != nil {
				respond.Error(w, log, err)
				return
			}
			if slot, ok := r.Context().Value(slotKey{}).(*identitySlot); ok {
				slot.id, slot.ok = id, true
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRoles rejects callers whose role is not in roles. It must run after Authenticate.
func RequireRoles(guard Guard, log logrus.FieldLogger, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				respond.Error(w, log, core.Unauthorized("Missing authentication token"))
				return
			}
			if err := guard.Authorize(id, roles...); err != nil {
				respond.Error(w, log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
