package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"crisis-alert-service/internal/domain"
	"crisis-alert-service/internal/escalation"
	"crisis-alert-service/internal/helpers"
	"crisis-alert-service/internal/metrics"
	"crisis-alert-service/internal/prefs"
	"crisis-alert-service/internal/scheduler"
	"crisis-alert-service/internal/tracker"
	"crisis-alert-service/pkg/notifier"
	"crisis-alert-service/pkg/xerrors"
)

// AlertEngine orchestrates the alert flow: factory → scheduler → dispatcher,
// with the escalation cascade in parallel for crisis alerts and all state
// flowing through the lifecycle tracker. Delivery-path failures never
// propagate to the caller; they surface as alert-status transitions.
type AlertEngine struct {
	prefs     *prefs.Store
	factory   *helpers.AlertFactory
	scheduler *scheduler.DeliveryScheduler
	notifier  *notifier.Notifier
	cascade   *escalation.Cascade
	tracker   *tracker.Tracker

	stopSweep chan struct{}
}

func NewAlertEngine(
	store *prefs.Store,
	factory *helpers.AlertFactory,
	sched *scheduler.DeliveryScheduler,
	dispatch *notifier.Notifier,
	cascade *escalation.Cascade,
	track *tracker.Tracker,
) *AlertEngine {
	return &AlertEngine{
		prefs:     store,
		factory:   factory,
		scheduler: sched,
		notifier:  dispatch,
		cascade:   cascade,
		tracker:   track,
		stopSweep: make(chan struct{}),
	}
}

// RaiseCrisis builds, registers and delivers a crisis alert.
func (e *AlertEngine) RaiseCrisis(ctx context.Context, p helpers.CrisisAlertParams) (*domain.Alert, error) {
	a, err := e.factory.CreateCrisisAlert(p)
	if err != nil {
		return nil, err
	}
	return e.raise(ctx, a)
}

// RaiseReminder builds, registers and delivers a reminder.
func (e *AlertEngine) RaiseReminder(ctx context.Context, userID string, kind helpers.ReminderKind, customMessage string) (*domain.Alert, error) {
	a, err := e.factory.CreateReminder(userID, kind, customMessage)
	if err != nil {
		return nil, err
	}
	return e.raise(ctx, a)
}

// RaiseCheckIn builds, registers and delivers a wellness check-in.
func (e *AlertEngine) RaiseCheckIn(ctx context.Context, userID, moodTrend string) (*domain.Alert, error) {
	a, err := e.factory.CreateWellnessCheckIn(userID, moodTrend)
	if err != nil {
		return nil, err
	}
	return e.raise(ctx, a)
}

func (e *AlertEngine) raise(ctx context.Context, a *domain.Alert) (*domain.Alert, error) {
	if err := e.tracker.Register(ctx, a); err != nil {
		return nil, err
	}
	e.deliver(ctx, a)
	return e.tracker.Get(ctx, a.ID)
}

// deliver runs one delivery attempt through the scheduling decision.
func (e *AlertEngine) deliver(ctx context.Context, a *domain.Alert) {
	p, err := e.prefs.Get(ctx, a.UserID)
	if err != nil {
		if errors.Is(err, xerrors.ErrPreferencesNotFound) {
			log.Printf("⚠️ No preferences for %s, skipping delivery of alert %s", a.UserID, a.ID)
		} else {
			log.Printf("⚠️ Preference lookup failed for %s: %v", a.UserID, err)
		}
		return
	}

	out := e.scheduler.Assess(a, p)
	switch out.Decision {
	case scheduler.DecisionSuppress:
		metrics.Suppressed.Inc()
		log.Printf("Alert %s suppressed: %s alerts disabled for %s", a.ID, a.Type, a.UserID)
		if err := e.tracker.MarkDismissedBySuppression(ctx, a.ID); err != nil {
			log.Printf("⚠️ Failed to dismiss suppressed alert %s: %v", a.ID, err)
		}

	case scheduler.DecisionDefer:
		metrics.Deferred.Inc()
		log.Printf("Alert %s deferred to %s (quiet hours)", a.ID, out.ResumeAt.Format(time.RFC3339))
		id := a.ID
		e.scheduler.Defer(id, out.ResumeAt, func() {
			e.resume(id)
		})

	case scheduler.DecisionDispatch:
		e.dispatchNow(ctx, a, p)
	}
}

// resume fires when a deferred task elapses: quiet hours ended or a snooze
// ran out. The alert is re-read so a dismissal that happened in the meantime
// is honored even if timer cancellation raced the firing.
func (e *AlertEngine) resume(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := e.tracker.Get(ctx, id)
	if err != nil {
		log.Printf("⚠️ Deferred alert %s no longer tracked: %v", id, err)
		return
	}
	if a.Status != domain.StatusPending {
		log.Printf("Deferred alert %s is %s, not delivering", id, a.Status)
		return
	}
	p, err := e.prefs.Get(ctx, a.UserID)
	if err != nil {
		log.Printf("⚠️ Preference lookup failed resuming alert %s: %v", id, err)
		return
	}
	e.dispatchNow(ctx, a, p)
}

func (e *AlertEngine) dispatchNow(ctx context.Context, a *domain.Alert, p *domain.NotificationPreferences) {
	if a.IsCrisis() && e.cascade != nil {
		// Cascade runs in parallel with the primary dispatch
		alert, prefsCopy := a.Clone(), p.Clone()
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("⚠️ Panic recovered in escalation cascade: %v", r)
				}
			}()
			cctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			results := e.cascade.Run(cctx, alert, prefsCopy)
			if len(results) > 0 {
				if err := e.tracker.MarkEmergencyContactsNotified(cctx, alert.ID); err != nil {
					log.Printf("⚠️ Failed to flag contacts notified for alert %s: %v", alert.ID, err)
				}
			}
		}()
	}

	results := e.notifier.Dispatch(ctx, a, p)
	if err := e.tracker.RecordDispatch(ctx, a.ID, results); err != nil {
		log.Printf("⚠️ Failed to record dispatch for alert %s: %v", a.ID, err)
	}
}

// Acknowledge marks the alert read. Idempotent.
func (e *AlertEngine) Acknowledge(ctx context.Context, id string) error {
	return e.tracker.Acknowledge(ctx, id)
}

// Dismiss marks the alert dismissed and cancels any armed deferred task, so
// a dismissed alert can never be delivered later.
func (e *AlertEngine) Dismiss(ctx context.Context, id string) error {
	e.scheduler.CancelDeferred(id)
	return e.tracker.Dismiss(ctx, id)
}

// Snooze dismisses the alert now and re-submits it as a brand-new pending
// delivery attempt once the parsed duration elapses. An unparseable token
// leaves the alert untouched and is reported to the caller.
func (e *AlertEngine) Snooze(ctx context.Context, id, token string) error {
	d, err := scheduler.ParseSnoozeToken(token)
	if err != nil {
		log.Printf("⚠️ Ignoring snooze for alert %s: %v", id, err)
		return err
	}

	e.scheduler.CancelDeferred(id)
	if err := e.tracker.MarkSnoozed(ctx, id, time.Now().Add(d)); err != nil {
		return err
	}
	metrics.Snoozed.Inc()

	e.scheduler.DeferFor(id, d, func() {
		rctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		a, err := e.tracker.ResetPending(rctx, id)
		if err != nil {
			log.Printf("⚠️ Snoozed alert %s could not re-enter delivery: %v", id, err)
			return
		}
		if a == nil {
			// Dismissed for good while the snooze was pending
			return
		}
		e.deliver(rctx, a)
	})
	return nil
}

// ActiveAlerts returns the user's pending, sent and delivered alerts,
// newest first.
func (e *AlertEngine) ActiveAlerts(ctx context.Context, userID string) ([]*domain.Alert, error) {
	return e.tracker.ActiveAlerts(ctx, userID)
}

// Deliveries returns the per-channel dispatch results for an alert.
func (e *AlertEngine) Deliveries(ctx context.Context, id string) ([]domain.ChannelResult, error) {
	return e.tracker.Deliveries(ctx, id)
}

// Alert returns a tracked alert by id.
func (e *AlertEngine) Alert(ctx context.Context, id string) (*domain.Alert, error) {
	return e.tracker.Get(ctx, id)
}

// Preferences exposes the preference store to the transport layer.
func (e *AlertEngine) Preferences() *prefs.Store {
	return e.prefs
}

// StartSweeper runs the expiry sweep until Stop is called.
func (e *AlertEngine) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if _, err := e.tracker.Sweep(ctx, time.Now()); err != nil {
					log.Printf("⚠️ Expiry sweep failed: %v", err)
				}
				cancel()
			case <-e.stopSweep:
				return
			}
		}
	}()
}

// Stop halts the sweeper and cancels every armed deferred task.
func (e *AlertEngine) Stop() {
	close(e.stopSweep)
	e.scheduler.Shutdown()
}
