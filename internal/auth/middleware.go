package auth

import (
	"context"
	"net/http"

	"github.com/sakif/jobboard/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. A package-private type means
// only this package can create the key, so no other package can read or
// shadow the identity stored under it.
type contextKey string

const identityKey contextKey = "identity"

// IdentitySource reports the currently logged-in identity.
// *service.Session implements it.
type IdentitySource interface {
	Current() (model.Identity, bool)
}

// RequireSession is a middleware that lets a request through only while
// somebody is logged in.
//
// There is one session slot per process, not one per client: whoever logged
// in last is the identity every request acts as. The middleware copies that
// identity into the request context so the handler sees one consistent value
// even if another request logs out halfway through.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware takes an http.Handler and returns a new http.Handler that
// wraps it. Chi applies them in a chain: req → M1 → M2 → Handler → M2 → M1.
func RequireSession(src IdentitySource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := src.Current()
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"not_authenticated","message":"you must be logged in"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the identity stored by RequireSession.
//
// Returns (Identity{}, false) outside a RequireSession-protected route.
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey).(model.Identity)
	return id, ok && id.ID != ""
}
