// Package prefs is the per-user delivery policy store.
package prefs

import (
	"context"
	"errors"
	"log"

	"crisis-alert-service/internal/domain"
	"crisis-alert-service/internal/repository"
	"crisis-alert-service/pkg/xerrors"
)

type Store struct {
	repo      repository.PreferenceRepository
	registrar domain.PushRegistrar
}

func NewStore(repo repository.PreferenceRepository, registrar domain.PushRegistrar) *Store {
	return &Store{repo: repo, registrar: registrar}
}

// Get returns the user's saved preferences. Absence is reported with
// xerrors.ErrPreferencesNotFound, never a panic.
func (s *Store) Get(ctx context.Context, userID string) (*domain.NotificationPreferences, error) {
	if userID == "" {
		return nil, xerrors.ErrUserIDRequired
	}
	return s.repo.Get(ctx, userID)
}

// Set fully overwrites the user's preferences; there is no partial merge.
// When push goes from disabled (or absent) to enabled, the push-subscription
// exchange is triggered as a side effect. A registrar failure does not fail
// the save; the preference record is the source of truth.
func (s *Store) Set(ctx context.Context, p *domain.NotificationPreferences) (*domain.NotificationPreferences, error) {
	if p == nil || p.UserID == "" {
		return nil, xerrors.ErrUserIDRequired
	}

	pushWasEnabled := false
	prev, err := s.repo.Get(ctx, p.UserID)
	switch {
	case err == nil:
		pushWasEnabled = prev.Channels.Push
	case errors.Is(err, xerrors.ErrPreferencesNotFound):
		// first save; treat push as previously disabled
	default:
		return nil, err
	}

	saved, err := s.repo.Upsert(ctx, p)
	if err != nil {
		return nil, err
	}

	if saved.Channels.Push && !pushWasEnabled && s.registrar != nil {
		if err := s.registrar.Register(ctx, saved.UserID); err != nil {
			log.Printf("⚠️ Push subscription exchange failed for %s: %v", saved.UserID, err)
		}
	}
	return saved, nil
}

// Delete removes the user's saved preferences.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return xerrors.ErrUserIDRequired
	}
	return s.repo.Delete(ctx, userID)
}
