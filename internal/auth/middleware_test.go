package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/jobboard/internal/model"
)

type fixedSource struct {
	id model.Identity
	ok bool
}

func (f fixedSource) Current() (model.Identity, bool) { return f.id, f.ok }

func TestRequireSession(t *testing.T) {
	alice := model.Identity{ID: "U1000", Username: "alice", Name: "Alice"}

	t.Run("logged in", func(t *testing.T) {
		var seen model.Identity
		var found bool
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, found = IdentityFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		})

		rr := httptest.NewRecorder()
		RequireSession(fixedSource{id: alice, ok: true})(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.True(t, found)
		assert.Equal(t, alice, seen)
	})

	t.Run("logged out", func(t *testing.T) {
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

		rr := httptest.NewRecorder()
		RequireSession(fixedSource{})(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called)
		assert.JSONEq(t, `{"error":"not_authenticated","message":"you must be logged in"}`, rr.Body.String())
	})
}

func TestIdentityFromContext_Empty(t *testing.T) {
	_, ok := IdentityFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
