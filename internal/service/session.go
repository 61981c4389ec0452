package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/jobboard/internal/apperror"
	"github.com/sakif/jobboard/internal/auth"
	"github.com/sakif/jobboard/internal/model"
	"github.com/sakif/jobboard/internal/repository"
)

// Session holds the single logged-in identity of the process.
//
// The identity is a copy taken at login. Nothing ties it to the account
// afterwards: clearing accounts leaves it in place unless the caller also
// calls Logout, which the HTTP layer always does.
type Session struct {
	store     repository.Store
	accounts  *AccountStore
	passwords *auth.PasswordService
	logger    *slog.Logger

	mu      sync.Mutex
	current *model.Identity
}

// NewSession restores a persisted session, if any.
func NewSession(ctx context.Context, store repository.Store, accounts *AccountStore, passwords *auth.PasswordService, logger *slog.Logger) (*Session, error) {
	s := &Session{
		store:     store,
		accounts:  accounts,
		passwords: passwords,
		logger:    logger,
	}

	var id model.Identity
	found, err := loadBlob(ctx, store, logger, repository.KeyLoggedInUser, &id)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if found && id.ID != "" {
		s.current = &id
	}
	return s, nil
}

// Login checks the credentials and makes the account the current identity.
//
// An unknown username and a wrong password return the same
// InvalidCredentials error, and an unknown username still pays for one
// digest computation, so neither the message nor the timing tells them apart.
func (s *Session) Login(ctx context.Context, username, password string) (model.Identity, error) {
	username = strings.TrimSpace(username)

	account, ok := s.accounts.FindByUsername(username)
	if !ok {
		s.passwords.Equalize(password)
		s.logger.Info("login failed", slog.String("username", username))
		return model.Identity{}, apperror.InvalidCredentials()
	}

	if err := s.passwords.Verify(account.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrMismatch) {
			s.logger.Error("stored password digest unusable",
				slog.String("accountID", account.ID),
				slog.String("error", err.Error()),
			)
		}
		s.logger.Info("login failed", slog.String("username", username))
		return model.Identity{}, apperror.InvalidCredentials()
	}

	id := account.Identity()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := saveBlob(ctx, s.store, repository.KeyLoggedInUser, id); err != nil {
		s.logger.Error("failed to save session", slog.String("error", err.Error()))
		return model.Identity{}, err
	}
	s.current = &id

	s.logger.Info("logged in",
		slog.String("accountID", id.ID),
		slog.String("username", id.Username),
	)
	return id, nil
}

// Logout clears the current identity. Calling it without a session is fine.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, repository.KeyLoggedInUser); err != nil {
		return apperror.PersistenceUnavailable("clearing session", err)
	}
	if s.current != nil {
		s.logger.Info("logged out", slog.String("username", s.current.Username))
	}
	s.current = nil
	return nil
}

// Current returns the logged-in identity, if any.
func (s *Session) Current() (model.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return model.Identity{}, false
	}
	return *s.current, true
}
