package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"crisis-alert-service/internal/domain"
	"crisis-alert-service/pkg/xerrors"
)

// memAlertRepo is the in-memory AlertRepository used in tests and when the
// service runs without a database.
type memAlertRepo struct {
	mu         sync.RWMutex
	alerts     map[string]*domain.Alert
	deliveries map[string][]domain.ChannelResult
}

func NewMemoryAlertRepository() AlertRepository {
	return &memAlertRepo{
		alerts:     make(map[string]*domain.Alert),
		deliveries: make(map[string][]domain.ChannelResult),
	}
}

func (m *memAlertRepo) Create(_ context.Context, a *domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[a.ID] = a.Clone()
	return nil
}

func (m *memAlertRepo) GetByID(_ context.Context, id string) (*domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.alerts[id]
	if !ok {
		return nil, xerrors.ErrAlertNotFound
	}
	return a.Clone(), nil
}

func (m *memAlertRepo) Update(_ context.Context, a *domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.alerts[a.ID]; !ok {
		return xerrors.ErrAlertNotFound
	}
	m.alerts[a.ID] = a.Clone()
	return nil
}

func (m *memAlertRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.alerts[id]; !ok {
		return xerrors.ErrAlertNotFound
	}
	delete(m.alerts, id)
	delete(m.deliveries, id)
	return nil
}

func (m *memAlertRepo) ListActiveByUser(_ context.Context, userID string) ([]*domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Alert
	for _, a := range m.alerts {
		if a.UserID != userID {
			continue
		}
		switch a.Status {
		case domain.StatusPending, domain.StatusSent, domain.StatusDelivered:
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memAlertRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, a := range m.alerts {
		if a.Expired(now) {
			delete(m.alerts, id)
			delete(m.deliveries, id)
			removed++
		}
	}
	return removed, nil
}

func (m *memAlertRepo) AddChannelResults(_ context.Context, results []domain.ChannelResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range results {
		m.deliveries[r.AlertID] = append(m.deliveries[r.AlertID], r)
	}
	return nil
}

func (m *memAlertRepo) ListChannelResults(_ context.Context, alertID string) ([]domain.ChannelResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.ChannelResult(nil), m.deliveries[alertID]...), nil
}

// memPreferenceRepo is the in-memory PreferenceRepository.
type memPreferenceRepo struct {
	mu    sync.RWMutex
	prefs map[string]*domain.NotificationPreferences
}

func NewMemoryPreferenceRepository() PreferenceRepository {
	return &memPreferenceRepo{prefs: make(map[string]*domain.NotificationPreferences)}
}

func (m *memPreferenceRepo) Get(_ context.Context, userID string) (*domain.NotificationPreferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.prefs[userID]
	if !ok {
		return nil, xerrors.ErrPreferencesNotFound
	}
	return p.Clone(), nil
}

func (m *memPreferenceRepo) Upsert(_ context.Context, p *domain.NotificationPreferences) (*domain.NotificationPreferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	p.UpdatedAt = now
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	m.prefs[p.UserID] = p.Clone()
	return p, nil
}

func (m *memPreferenceRepo) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.prefs[userID]; !ok {
		return xerrors.ErrPreferencesNotFound
	}
	delete(m.prefs, userID)
	return nil
}
