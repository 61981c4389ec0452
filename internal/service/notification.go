package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/sakif/jobboard/internal/model"
	"github.com/sakif/jobboard/internal/repository"
)

// NotificationSink keeps one append-only list of notifications per owner,
// each persisted under its own key. Lists are loaded on first use.
type NotificationSink struct {
	store  repository.Store
	logger *slog.Logger

	mu     sync.Mutex
	byUser map[string][]model.Notification
}

func NewNotificationSink(store repository.Store, logger *slog.Logger) *NotificationSink {
	return &NotificationSink{
		store:  store,
		logger: logger,
		byUser: make(map[string][]model.Notification),
	}
}

// load returns owner's list, reading it from the store the first time.
// The caller holds s.mu.
func (s *NotificationSink) load(ctx context.Context, owner string) ([]model.Notification, error) {
	if list, ok := s.byUser[owner]; ok {
		return list, nil
	}

	list := []model.Notification{}
	var stored []model.Notification
	found, err := loadBlob(ctx, s.store, s.logger, repository.NotificationsKey(owner), &stored)
	if err != nil {
		return nil, err
	}
	if found && stored != nil {
		list = stored
	}
	s.byUser[owner] = list
	return list, nil
}

// Append adds n to the end of owner's list.
func (s *NotificationSink) Append(ctx context.Context, owner string, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx, owner)
	if err != nil {
		return fmt.Errorf("appending notification for %s: %w", owner, err)
	}

	next := append(slices.Clone(list), n)
	if err := saveBlob(ctx, s.store, repository.NotificationsKey(owner), next); err != nil {
		return fmt.Errorf("appending notification for %s: %w", owner, err)
	}
	s.byUser[owner] = next
	return nil
}

// List returns owner's notifications in the order they were appended.
func (s *NotificationSink) List(ctx context.Context, owner string) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing notifications for %s: %w", owner, err)
	}
	return slices.Clone(list), nil
}

// Clear empties owner's list. The caller passes the current session's
// username: nobody clears someone else's notifications.
func (s *NotificationSink) Clear(ctx context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := saveBlob(ctx, s.store, repository.NotificationsKey(owner), []model.Notification{}); err != nil {
		return fmt.Errorf("clearing notifications for %s: %w", owner, err)
	}
	s.byUser[owner] = []model.Notification{}

	s.logger.Info("notifications cleared", slog.String("owner", owner))
	return nil
}
