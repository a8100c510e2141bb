package repository

import (
	"context"
	"time"

	"crisis-alert-service/internal/domain"
)

// AlertRepository persists alerts and their per-channel delivery results.
type AlertRepository interface {
	Create(ctx context.Context, a *domain.Alert) error
	GetByID(ctx context.Context, id string) (*domain.Alert, error)
	Update(ctx context.Context, a *domain.Alert) error
	Delete(ctx context.Context, id string) error
	ListActiveByUser(ctx context.Context, userID string) ([]*domain.Alert, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)

	AddChannelResults(ctx context.Context, results []domain.ChannelResult) error
	ListChannelResults(ctx context.Context, alertID string) ([]domain.ChannelResult, error)
}

// PreferenceRepository persists NotificationPreferences keyed by user id.
type PreferenceRepository interface {
	Get(ctx context.Context, userID string) (*domain.NotificationPreferences, error)
	Upsert(ctx context.Context, p *domain.NotificationPreferences) (*domain.NotificationPreferences, error)
	Delete(ctx context.Context, userID string) error
}
