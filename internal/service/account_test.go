package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/jobboard/internal/apperror"
	"github.com/sakif/jobboard/internal/model"
	"github.com/sakif/jobboard/internal/repository"
)

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestAccountCreate_Success(t *testing.T) {
	env := newTestEnv(t)

	a, err := env.accounts.Create(context.Background(), femaleAccount("alice", "pw1"))
	require.NoError(t, err)

	assert.Equal(t, "U1000", a.ID)
	assert.Equal(t, "alice", a.Username)
	assert.NotEqual(t, "pw1", a.PasswordHash, "password must be stored as a digest")
	require.NotNil(t, a.Measurements)
	assert.Equal(t, "34B", a.Measurements.BraSize)
}

func TestAccountCreate_IDsIncrement(t *testing.T) {
	env := newTestEnv(t)

	a := env.mustCreateAccount(t, maleAccount("a", "pw"))
	b := env.mustCreateAccount(t, maleAccount("b", "pw"))

	assert.Equal(t, "U1000", a.ID)
	assert.Equal(t, "U1001", b.ID)

	raw, err := env.store.Get(context.Background(), repository.KeyAccountIDCounter)
	require.NoError(t, err)
	assert.Equal(t, "1002", string(raw))
}

func TestAccountCreate_MaleHasNoMeasurements(t *testing.T) {
	env := newTestEnv(t)

	in := maleAccount("bob", "pw2")
	in.Bust = "100" // ignored for male accounts

	a, err := env.accounts.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, a.Measurements)
}

func TestAccountCreate_TrimsWhitespace(t *testing.T) {
	env := newTestEnv(t)

	in := maleAccount("  bob  ", "pw")
	in.Name = "  Bob  "
	in.Gender = " Male "

	a, err := env.accounts.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "bob", a.Username)
	assert.Equal(t, "Bob", a.Name)
	assert.Equal(t, model.GenderMale, a.Gender)
}

func TestAccountCreate_Validation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*NewAccount)
		wantField string
	}{
		{"missing username", func(in *NewAccount) { in.Username = "   " }, "username"},
		{"username too long", func(in *NewAccount) { in.Username = strings.Repeat("u", MaxUsernameLength+1) }, "username"},
		{"missing password", func(in *NewAccount) { in.Password, in.ConfirmPassword = "", "" }, "password"},
		{"password over bcrypt limit", func(in *NewAccount) {
			p := strings.Repeat("é", 40) // 40 characters, 80 bytes
			in.Password, in.ConfirmPassword = p, p
		}, "password"},
		{"password mismatch", func(in *NewAccount) { in.ConfirmPassword = "other" }, "confirmPassword"},
		{"missing name", func(in *NewAccount) { in.Name = "" }, "name"},
		{"unknown gender", func(in *NewAccount) { in.Gender = "robot" }, "gender"},
		{"zero age", func(in *NewAccount) { in.Age = 0 }, "age"},
		{"negative age", func(in *NewAccount) { in.Age = -4 }, "age"},
		{"missing bust", func(in *NewAccount) { in.Bust = "" }, "bust"},
		{"missing bra size", func(in *NewAccount) { in.BraSize = " " }, "braSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			in := femaleAccount("carol", "pw")
			tt.mutate(&in)

			_, err := env.accounts.Create(context.Background(), in)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrValidation)

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantField, appErr.Field)
		})
	}
}

func TestAccountCreate_PasswordMismatchMessage(t *testing.T) {
	env := newTestEnv(t)
	in := maleAccount("bob", "pw")
	in.ConfirmPassword = "pw!"

	_, err := env.accounts.Create(context.Background(), in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passwords do not match")
}

func TestAccountCreate_DuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.mustCreateAccount(t, maleAccount("bob", "pw"))

	_, err := env.accounts.Create(context.Background(), maleAccount("bob", "other"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrDuplicateUsername)

	// Exact match only: usernames are case-sensitive.
	_, err = env.accounts.Create(context.Background(), maleAccount("Bob", "pw"))
	assert.NoError(t, err)
}

func TestAccountCreate_PersistenceFailureKeepsSnapshot(t *testing.T) {
	env := newTestEnv(t)
	env.mustCreateAccount(t, maleAccount("alice", "pw"))

	env.store.failPut(repository.KeyAccounts)
	_, err := env.accounts.Create(context.Background(), maleAccount("bob", "pw"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrPersistenceUnavailable)

	_, found := env.accounts.FindByUsername("bob")
	assert.False(t, found, "failed write must not change the in-memory list")
	_, found = env.accounts.FindByUsername("alice")
	assert.True(t, found)

	env.store.heal()
	_, err = env.accounts.Create(context.Background(), maleAccount("bob", "pw"))
	assert.NoError(t, err)
}

// =========================================================================
// LOOKUP TESTS
// =========================================================================

func TestAccountFind(t *testing.T) {
	env := newTestEnv(t)
	created := env.mustCreateAccount(t, maleAccount("bob", "pw"))

	byName, ok := env.accounts.FindByUsername("bob")
	require.True(t, ok)
	assert.Equal(t, created, byName)

	byID, ok := env.accounts.FindByID(created.ID)
	require.True(t, ok)
	assert.Equal(t, created, byID)

	_, ok = env.accounts.FindByUsername("nobody")
	assert.False(t, ok)
	_, ok = env.accounts.FindByID("U9999")
	assert.False(t, ok)
}

func TestAccountSearch(t *testing.T) {
	env := newTestEnv(t)
	env.mustCreateAccount(t, maleAccount("bob", "pw"))
	alice := femaleAccount("alice", "pw")
	alice.Name = "Alice Bobson"
	env.mustCreateAccount(t, alice)
	env.mustCreateAccount(t, maleAccount("carl", "pw"))

	tests := []struct {
		query string
		want  []string
	}{
		{"bob", []string{"bob", "alice"}},
		{"BOB", []string{"bob", "alice"}},
		{"  car ", []string{"carl"}},
		{"zzz", []string{}},
		{"", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := []string{}
			for _, s := range env.accounts.Search(tt.query) {
				got = append(got, s.Username)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccountSearch_IncludesMeasurements(t *testing.T) {
	env := newTestEnv(t)
	env.mustCreateAccount(t, femaleAccount("alice", "pw"))

	results := env.accounts.Search("alice")
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Measurements)
	assert.Equal(t, "64", results[0].Measurements.Waist)
}

// =========================================================================
// CLEAR / PERSISTENCE TESTS
// =========================================================================

func TestAccountClearAll_KeepsCounter(t *testing.T) {
	env := newTestEnv(t)
	env.mustCreateAccount(t, maleAccount("a", "pw"))
	env.mustCreateAccount(t, maleAccount("b", "pw"))

	require.NoError(t, env.accounts.ClearAll(context.Background()))
	_, ok := env.accounts.FindByUsername("a")
	assert.False(t, ok)

	c := env.mustCreateAccount(t, maleAccount("a", "pw"))
	assert.Equal(t, "U1002", c.ID, "ids are never reused")
}

func TestAccountStore_SurvivesRestart(t *testing.T) {
	env := newTestEnv(t)
	env.mustCreateAccount(t, femaleAccount("alice", "pw1"))
	env.mustCreateAccount(t, maleAccount("bob", "pw2"))

	before, err := env.store.Get(context.Background(), repository.KeyAccounts)
	require.NoError(t, err)

	restarted := newTestEnvWith(t, env.store, JobConfig{})
	a, ok := restarted.accounts.FindByUsername("alice")
	require.True(t, ok)
	require.NotNil(t, a.Measurements)

	// Saving the reloaded list produces the same bytes.
	require.NoError(t, saveBlob(context.Background(), env.store, repository.KeyAccounts, restarted.accounts.accounts))
	after, err := env.store.Get(context.Background(), repository.KeyAccounts)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestAccountStore_CorruptBlobStartsEmpty(t *testing.T) {
	store := newFaultStore()
	require.NoError(t, store.Put(context.Background(), repository.KeyAccounts, []byte("{not json")))

	env := newTestEnvWith(t, store, JobConfig{})
	assert.Empty(t, env.accounts.Search("a"))
	env.mustCreateAccount(t, maleAccount("bob", "pw"))
}

func TestAccountStore_UnreadableStore(t *testing.T) {
	store := newFaultStore()
	store.failGets = true

	_, err := NewAccountStore(context.Background(), store, nil, discardLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrPersistenceUnavailable)
	assert.ErrorIs(t, err, errDiskGone)
}
