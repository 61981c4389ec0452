package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/jobboard/internal/apperror"
	"github.com/sakif/jobboard/internal/repository"
)

// loadBlob decodes the JSON blob under key into v.
//
// Returns found=false for an absent key. A blob that fails to decode is
// logged and treated as absent, so a corrupted collection starts empty
// instead of blocking the whole application; the next save overwrites it.
// Storage failures are returned as PersistenceUnavailable.
func loadBlob(ctx context.Context, store repository.Store, logger *slog.Logger, key string, v any) (bool, error) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrKeyNotFound) {
			return false, nil
		}
		return false, apperror.PersistenceUnavailable(fmt.Sprintf("loading %s", key), err)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		logger.Warn("discarding unreadable blob",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false, nil
	}
	return true, nil
}

// saveBlob encodes v and replaces the blob under key.
func saveBlob(ctx context.Context, store repository.Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := store.Put(ctx, key, raw); err != nil {
		return apperror.PersistenceUnavailable(fmt.Sprintf("saving %s", key), err)
	}
	return nil
}
