package redis

import (
	"context"
	"os"
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/jobboard/internal/repository"
)

// newTestStore connects to the server named by JOBBOARD_TEST_REDIS and skips
// the test when it is unset. Each test gets its own namespace so runs never
// see each other's keys.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("JOBBOARD_TEST_REDIS")
	if addr == "" {
		t.Skip("JOBBOARD_TEST_REDIS not set")
	}

	s, err := New(context.Background(), Config{Addr: addr, Namespace: "jobboard-test:" + xid.New().String() + ":"})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		for _, k := range []string{repository.KeyAccounts, repository.KeyJobs, repository.KeyLoggedInUser, repository.KeyAccountIDCounter} {
			_ = s.Delete(ctx, k)
		}
		s.Close()
	})
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, repository.KeyJobs)
	assert.ErrorIs(t, err, repository.ErrKeyNotFound)

	require.NoError(t, s.Put(ctx, repository.KeyJobs, []byte(`[]`)))
	got, err := s.Get(ctx, repository.KeyJobs)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, s.Delete(ctx, repository.KeyJobs))
	_, err = s.Get(ctx, repository.KeyJobs)
	assert.ErrorIs(t, err, repository.ErrKeyNotFound)
}

func TestStore_NamespaceIsolation(t *testing.T) {
	a := newTestStore(t)
	b := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, a.Put(ctx, repository.KeyAccounts, []byte(`["a"]`)))

	_, err := b.Get(ctx, repository.KeyAccounts)
	assert.ErrorIs(t, err, repository.ErrKeyNotFound)
}

func TestNew_UnreachableServer(t *testing.T) {
	_, err := New(context.Background(), Config{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
