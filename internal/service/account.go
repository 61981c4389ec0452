// Package service contains the application core: the account store, the
// session, the job store and the notification sink.
//
// THE LAYERS:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (this package)   → validates, enforces rules, owns the collections
//	Repository (Data layer)  → flat key-value blobs
//
// OWNERSHIP OF STATE:
// Each store owns its in-memory collection, loads it once at construction and
// writes the whole collection back as one blob after every mutation. There are
// no package-level variables: the composition root builds each store once and
// passes it to whoever needs it.
//
// FAILED WRITES:
// Mutations are computed on a copy. The copy replaces the in-memory
// collection only after the blob was written, so a PersistenceUnavailable
// error leaves the last good snapshot in place.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/jobboard/internal/apperror"
	"github.com/sakif/jobboard/internal/auth"
	"github.com/sakif/jobboard/internal/model"
	"github.com/sakif/jobboard/internal/repository"
)

const (
	// AccountIDPrefix is prepended to the counter value to form an account id.
	AccountIDPrefix = "U"
	// FirstAccountID is the counter value used when none is stored.
	FirstAccountID = 1000

	MaxUsernameLength = 64
)

// NewAccount is the input to AccountStore.Create.
//
// The measurement fields are required for every gender except male; for male
// accounts they are ignored even if sent.
type NewAccount struct {
	Username        string       `json:"username" validate:"required,max=64"`
	Password        string       `json:"password" validate:"required,max=72"`
	ConfirmPassword string       `json:"confirmPassword" validate:"required,eqfield=Password"`
	Name            string       `json:"name" validate:"required,max=100"`
	Gender          model.Gender `json:"gender" validate:"required,oneof=male female other"`
	Age             int          `json:"age" validate:"required,gt=0,lt=150"`
	Bust            string       `json:"bust" validate:"required_unless=Gender male"`
	Waist           string       `json:"waist" validate:"required_unless=Gender male"`
	Hips            string       `json:"hips" validate:"required_unless=Gender male"`
	BraSize         string       `json:"braSize" validate:"required_unless=Gender male"`
}

func (in *NewAccount) trim() {
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	in.Gender = model.Gender(strings.ToLower(strings.TrimSpace(string(in.Gender))))
	in.Bust = strings.TrimSpace(in.Bust)
	in.Waist = strings.TrimSpace(in.Waist)
	in.Hips = strings.TrimSpace(in.Hips)
	in.BraSize = strings.TrimSpace(in.BraSize)
}

// profile builds the tagged profile: the measurement variant exists only when
// the gender requires it.
func (in *NewAccount) profile() model.Profile {
	p := model.Profile{Name: in.Name, Gender: in.Gender, Age: in.Age}
	if in.Gender.RequiresMeasurements() {
		p.Measurements = &model.Measurements{
			Bust:    in.Bust,
			Waist:   in.Waist,
			Hips:    in.Hips,
			BraSize: in.BraSize,
		}
	}
	return p
}

// AccountStore owns the list of accounts.
//
// The mutex serializes operations: the HTTP server runs handlers on many
// goroutines, and every operation must still run to completion before the
// next one starts.
type AccountStore struct {
	store     repository.Store
	passwords *auth.PasswordService
	validate  *validator.Validate
	logger    *slog.Logger

	mu       sync.Mutex
	accounts []model.Account
}

// NewAccountStore loads the stored accounts and returns the store.
func NewAccountStore(ctx context.Context, store repository.Store, passwords *auth.PasswordService, logger *slog.Logger) (*AccountStore, error) {
	s := &AccountStore{
		store:     store,
		passwords: passwords,
		validate:  newValidator(),
		logger:    logger,
		accounts:  []model.Account{},
	}

	var loaded []model.Account
	found, err := loadBlob(ctx, store, logger, repository.KeyAccounts, &loaded)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	if found && loaded != nil {
		s.accounts = loaded
	}

	logger.Debug("accounts loaded", slog.Int("count", len(s.accounts)))
	return s, nil
}

// Create validates the input and stores a new account.
//
// Errors: ValidationFailed for a missing or malformed field (including a
// password confirmation mismatch), DuplicateUsername when the exact username
// already exists, PersistenceUnavailable when the blob cannot be written.
func (s *AccountStore) Create(ctx context.Context, in NewAccount) (model.Account, error) {
	in.trim()
	if err := validateInput(s.validate, in); err != nil {
		return model.Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findByUsername(in.Username); ok {
		return model.Account{}, apperror.DuplicateUsername(in.Username)
	}

	if len(in.Password) > auth.MaxPasswordBytes {
		return model.Account{}, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}

	// Digest before taking an id: a hashing failure must not burn a counter value.
	digest, err := s.passwords.Digest(in.Password)
	if err != nil {
		return model.Account{}, fmt.Errorf("creating account %s: %w", in.Username, err)
	}

	id, err := s.nextID(ctx)
	if err != nil {
		return model.Account{}, err
	}

	account := model.Account{
		ID:           id,
		Username:     in.Username,
		PasswordHash: digest,
		Profile:      in.profile(),
	}

	next := append(slices.Clone(s.accounts), account)
	if err := saveBlob(ctx, s.store, repository.KeyAccounts, next); err != nil {
		s.logger.Error("failed to save accounts",
			slog.String("username", account.Username),
			slog.String("error", err.Error()),
		)
		return model.Account{}, err
	}
	s.accounts = next

	s.logger.Info("account created",
		slog.String("id", account.ID),
		slog.String("username", account.Username),
	)
	return account, nil
}

// nextID reads the persisted counter, stores counter+1 and returns the id for
// the current value. A missing or unreadable counter starts at FirstAccountID.
func (s *AccountStore) nextID(ctx context.Context) (string, error) {
	n := FirstAccountID

	raw, err := s.store.Get(ctx, repository.KeyAccountIDCounter)
	switch {
	case err == nil:
		if v, convErr := strconv.Atoi(strings.TrimSpace(string(raw))); convErr == nil {
			n = v
		} else {
			s.logger.Warn("resetting unreadable account id counter", slog.String("value", string(raw)))
		}
	case !errors.Is(err, repository.ErrKeyNotFound):
		return "", apperror.PersistenceUnavailable("reading account id counter", err)
	}

	if err := s.store.Put(ctx, repository.KeyAccountIDCounter, []byte(strconv.Itoa(n+1))); err != nil {
		return "", apperror.PersistenceUnavailable("saving account id counter", err)
	}
	return AccountIDPrefix + strconv.Itoa(n), nil
}

// FindByUsername returns the account with exactly this username.
func (s *AccountStore) FindByUsername(username string) (model.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findByUsername(username)
}

func (s *AccountStore) findByUsername(username string) (model.Account, bool) {
	i := slices.IndexFunc(s.accounts, func(a model.Account) bool { return a.Username == username })
	if i < 0 {
		return model.Account{}, false
	}
	return s.accounts[i], true
}

// FindByID returns the account with this id.
func (s *AccountStore) FindByID(id string) (model.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.accounts, func(a model.Account) bool { return a.ID == id })
	if i < 0 {
		return model.Account{}, false
	}
	return s.accounts[i], true
}

// Search returns accounts whose username or name contains query, ignoring
// case, in creation order. An empty query matches nothing.
func (s *AccountStore) Search(query string) []model.AccountSummary {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []model.AccountSummary{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	results := []model.AccountSummary{}
	for _, a := range s.accounts {
		if strings.Contains(strings.ToLower(a.Username), query) ||
			strings.Contains(strings.ToLower(a.Name), query) {
			results = append(results, a.Summary())
		}
	}
	return results
}

// ClearAll removes every account. The id counter is kept, so ids are never
// reused. Invalidating the session is the caller's job (see Session.Logout).
func (s *AccountStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := saveBlob(ctx, s.store, repository.KeyAccounts, []model.Account{}); err != nil {
		s.logger.Error("failed to clear accounts", slog.String("error", err.Error()))
		return err
	}
	cleared := len(s.accounts)
	s.accounts = []model.Account{}

	s.logger.Info("accounts cleared", slog.Int("count", cleared))
	return nil
}
