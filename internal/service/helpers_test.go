package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sakif/jobboard/internal/auth"
	"github.com/sakif/jobboard/internal/model"
	"github.com/sakif/jobboard/internal/repository"
	"github.com/sakif/jobboard/internal/repository/memory"
)

// =========================================================================
// FAULT-INJECTING STORE
// =========================================================================
//
// faultStore wraps the in-memory Store and fails Put/Delete for the keys
// listed in failPuts, or every read when failGets is set. It lets the tests
// walk the PersistenceUnavailable paths without a real broken backend.

var errDiskGone = errors.New("disk gone")

type faultStore struct {
	inner *memory.Store

	mu       sync.Mutex
	failPuts map[string]bool
	failGets bool
}

func newFaultStore() *faultStore {
	return &faultStore{inner: memory.New(), failPuts: make(map[string]bool)}
}

func (f *faultStore) failPut(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPuts[key] = true
}

func (f *faultStore) heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPuts = make(map[string]bool)
	f.failGets = false
}

func (f *faultStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	fail := f.failGets
	f.mu.Unlock()
	if fail {
		return nil, errDiskGone
	}
	return f.inner.Get(ctx, key)
}

func (f *faultStore) Put(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	fail := f.failPuts[key]
	f.mu.Unlock()
	if fail {
		return errDiskGone
	}
	return f.inner.Put(ctx, key, value)
}

func (f *faultStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	fail := f.failPuts[key]
	f.mu.Unlock()
	if fail {
		return errDiskGone
	}
	return f.inner.Delete(ctx, key)
}

var _ repository.Store = (*faultStore)(nil)

// =========================================================================
// TEST ENVIRONMENT
// =========================================================================

// testEnv is one fully wired core over a shared store, the same way
// internal/server builds it.
type testEnv struct {
	store         *faultStore
	accounts      *AccountStore
	session       *Session
	jobs          *JobStore
	notifications *NotificationSink
	clock         *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, newFaultStore(), JobConfig{})
}

// newTestEnvWith builds the core over an existing store, which is how the
// tests simulate a process restart.
func newTestEnvWith(t *testing.T, store *faultStore, cfg JobConfig) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := discardLogger()
	passwords := auth.NewPasswordServiceForTest()

	accounts, err := NewAccountStore(ctx, store, passwords, logger)
	require.NoError(t, err)

	session, err := NewSession(ctx, store, accounts, passwords, logger)
	require.NoError(t, err)

	notifications := NewNotificationSink(store, logger)

	jobs, err := NewJobStore(ctx, store, accounts, notifications, cfg, logger)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	jobs.now = clock.Now
	seq := 0
	jobs.newID = func() string {
		seq++
		return fmt.Sprintf("job-%d", seq)
	}

	return &testEnv{
		store:         store,
		accounts:      accounts,
		session:       session,
		jobs:          jobs,
		notifications: notifications,
		clock:         clock,
	}
}

// =========================================================================
// FIXTURES
// =========================================================================

func maleAccount(username, password string) NewAccount {
	return NewAccount{
		Username:        username,
		Password:        password,
		ConfirmPassword: password,
		Name:            "Name of " + username,
		Gender:          model.GenderMale,
		Age:             30,
	}
}

func femaleAccount(username, password string) NewAccount {
	return NewAccount{
		Username:        username,
		Password:        password,
		ConfirmPassword: password,
		Name:            "Name of " + username,
		Gender:          model.GenderFemale,
		Age:             28,
		Bust:            "86",
		Waist:           "64",
		Hips:            "90",
		BraSize:         "34B",
	}
}

func (e *testEnv) mustCreateAccount(t *testing.T, in NewAccount) model.Account {
	t.Helper()
	a, err := e.accounts.Create(context.Background(), in)
	require.NoError(t, err)
	return a
}

func (e *testEnv) mustLogin(t *testing.T, username, password string) model.Identity {
	t.Helper()
	id, err := e.session.Login(context.Background(), username, password)
	require.NoError(t, err)
	return id
}

func value(v float64) *float64 { return &v }

func newJob(title string, recipients ...string) NewJob {
	return NewJob{
		Title:          title,
		Description:    "description of " + title,
		Type:           "x",
		EstimatedValue: value(10),
		Recipients:     recipients,
	}
}

func (e *testEnv) mustCreateJob(t *testing.T, creator model.Identity, in NewJob) model.Job {
	t.Helper()
	j, err := e.jobs.Create(context.Background(), &creator, in)
	require.NoError(t, err)
	return j
}
