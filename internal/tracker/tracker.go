// Package tracker is the single source of truth for alert state. Mutations to
// a given alert id are serialized through a per-id lock so a dismiss racing a
// dispatch-completion callback cannot lose an update. There is no global lock
// spanning users.
package tracker

import (
	"context"
	"log"
	"sync"
	"time"

	"crisis-alert-service/internal/domain"
	"crisis-alert-service/internal/metrics"
	"crisis-alert-service/internal/repository"
)

type Tracker struct {
	repo repository.AlertRepository

	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	sync.Mutex
	refs int
}

func NewTracker(repo repository.AlertRepository) *Tracker {
	return &Tracker{repo: repo, locks: make(map[string]*entry)}
}

// lock acquires the per-id lock; the returned func releases it.
func (t *Tracker) lock(id string) func() {
	t.mu.Lock()
	e, ok := t.locks[id]
	if !ok {
		e = &entry{}
		t.locks[id] = e
	}
	e.refs++
	t.mu.Unlock()

	e.Lock()
	return func() {
		e.Unlock()
		t.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(t.locks, id)
		}
		t.mu.Unlock()
	}
}

// Register stores a freshly built alert in pending state.
func (t *Tracker) Register(ctx context.Context, a *domain.Alert) error {
	a.Status = domain.StatusPending
	return t.repo.Create(ctx, a)
}

// Get returns the tracked alert.
func (t *Tracker) Get(ctx context.Context, id string) (*domain.Alert, error) {
	return t.repo.GetByID(ctx, id)
}

// Acknowledge transitions the alert to read. Idempotent regardless of the
// prior state.
func (t *Tracker) Acknowledge(ctx context.Context, id string) error {
	unlock := t.lock(id)
	defer unlock()

	a, err := t.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Status == domain.StatusRead {
		return nil
	}
	now := time.Now()
	a.Status = domain.StatusRead
	a.ReadAt = &now
	return t.repo.Update(ctx, a)
}

// Dismiss transitions the alert to dismissed and clears any snooze marker,
// so a snoozed alert dismissed for good can never re-enter delivery even if
// its timer fires concurrently. Idempotent. The caller is responsible for
// cancelling any armed deferred task alongside this call; the engine wires
// that invariant.
func (t *Tracker) Dismiss(ctx context.Context, id string) error {
	unlock := t.lock(id)
	defer unlock()

	a, err := t.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Status == domain.StatusDismissed && a.SnoozedUntil == nil {
		return nil
	}
	a.Status = domain.StatusDismissed
	a.SnoozedUntil = nil
	return t.repo.Update(ctx, a)
}

// MarkSnoozed dismisses the alert now and records the instant at which it
// may re-enter delivery.
func (t *Tracker) MarkSnoozed(ctx context.Context, id string, until time.Time) error {
	unlock := t.lock(id)
	defer unlock()

	a, err := t.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	a.Status = domain.StatusDismissed
	a.SnoozedUntil = &until
	return t.repo.Update(ctx, a)
}

// ResetPending re-enters a snoozed alert as a fresh pending delivery attempt.
// An alert without a snooze marker (dismissed outright in the meantime)
// stays put and nil is returned.
func (t *Tracker) ResetPending(ctx context.Context, id string) (*domain.Alert, error) {
	unlock := t.lock(id)
	defer unlock()

	a, err := t.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.SnoozedUntil == nil {
		return nil, nil
	}
	a.Status = domain.StatusPending
	a.DeliveredAt = nil
	a.SnoozedUntil = nil
	if err := t.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// RecordDispatch stores the per-channel results and settles the overall
// status: sent when every invoked channel succeeded, failed otherwise.
// A dismissal that landed while dispatch was in flight wins; the results are
// still recorded but the status is left alone.
func (t *Tracker) RecordDispatch(ctx context.Context, id string, results []domain.ChannelResult) error {
	unlock := t.lock(id)
	defer unlock()

	if len(results) > 0 {
		if err := t.repo.AddChannelResults(ctx, results); err != nil {
			log.Printf("⚠️ Failed to record channel results for alert %s: %v", id, err)
		}
	}

	a, err := t.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Status == domain.StatusDismissed || a.Status == domain.StatusRead {
		return nil
	}

	allOK := true
	for _, r := range results {
		if !r.OK {
			allOK = false
			break
		}
	}
	if allOK {
		now := time.Now()
		a.Status = domain.StatusSent
		a.DeliveredAt = &now
	} else {
		a.Status = domain.StatusFailed
	}
	return t.repo.Update(ctx, a)
}

// MarkDismissedBySuppression records a category-disabled suppression.
func (t *Tracker) MarkDismissedBySuppression(ctx context.Context, id string) error {
	return t.Dismiss(ctx, id)
}

// MarkEmergencyContactsNotified flags the crisis record after the cascade
// completes, even when individual contact attempts failed.
func (t *Tracker) MarkEmergencyContactsNotified(ctx context.Context, id string) error {
	unlock := t.lock(id)
	defer unlock()

	a, err := t.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Crisis == nil {
		return nil
	}
	a.Crisis.EmergencyContactsNotified = true
	return t.repo.Update(ctx, a)
}

// ActiveAlerts returns the user's alerts in pending, sent or delivered state,
// ordered by creation time descending.
func (t *Tracker) ActiveAlerts(ctx context.Context, userID string) ([]*domain.Alert, error) {
	return t.repo.ListActiveByUser(ctx, userID)
}

// Deliveries returns the per-channel results recorded for an alert.
func (t *Tracker) Deliveries(ctx context.Context, id string) ([]domain.ChannelResult, error) {
	return t.repo.ListChannelResults(ctx, id)
}

// Sweep removes every alert past its expiry, regardless of status.
func (t *Tracker) Sweep(ctx context.Context, now time.Time) (int, error) {
	removed, err := t.repo.DeleteExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		metrics.Expired.Add(float64(removed))
		log.Printf("Expiry sweep removed %d alert(s)", removed)
	}
	return removed, nil
}
