// Package scheduler decides whether an alert is dispatched immediately,
// deferred to the end of quiet hours, or suppressed outright.
package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"crisis-alert-service/internal/domain"
	"crisis-alert-service/internal/schedule"
	"crisis-alert-service/pkg/xerrors"
)

// Decision is the scheduling verdict for one delivery attempt.
type Decision string

const (
	DecisionDispatch Decision = "dispatch"   // hand to the channel dispatcher now
	DecisionDefer    Decision = "defer"      // stay pending; deliver at ResumeAt
	DecisionSuppress Decision = "suppress"   // category disabled; dismiss without sending
)

// Outcome pairs a Decision with the resume instant for deferred deliveries.
type Outcome struct {
	Decision Decision
	ResumeAt time.Time
}

type DeliveryScheduler struct {
	timers *schedule.TimerSet
	now    func() time.Time
}

func NewDeliveryScheduler(timers *schedule.TimerSet) *DeliveryScheduler {
	return &DeliveryScheduler{timers: timers, now: time.Now}
}

// WithClock overrides the scheduler clock; used in tests.
func (s *DeliveryScheduler) WithClock(now func() time.Time) *DeliveryScheduler {
	s.now = now
	return s
}

// Assess applies the delivery-decision algorithm: a disabled category
// suppresses the alert; a non-critical alert inside quiet hours is deferred
// to the next quiet-hours end; everything else dispatches immediately.
// Critical priority always bypasses quiet hours.
func (s *DeliveryScheduler) Assess(alert *domain.Alert, prefs *domain.NotificationPreferences) Outcome {
	if !prefs.CategoryEnabled(alert.Type) {
		return Outcome{Decision: DecisionSuppress}
	}
	now := s.now()
	if alert.Priority != domain.PriorityCritical && inQuietHours(prefs.QuietHours, now) {
		return Outcome{Decision: DecisionDefer, ResumeAt: nextQuietHoursEnd(prefs.QuietHours, now)}
	}
	return Outcome{Decision: DecisionDispatch}
}

// Defer arms a cancellable task for the alert, replacing any armed one.
func (s *DeliveryScheduler) Defer(alertID string, at time.Time, fn func()) {
	d := at.Sub(s.now())
	if d < 0 {
		d = 0
	}
	s.timers.Arm(alertID, d, fn)
}

// DeferFor arms a cancellable task relative to now; used for snooze.
func (s *DeliveryScheduler) DeferFor(alertID string, d time.Duration, fn func()) {
	s.timers.Arm(alertID, d, fn)
}

// CancelDeferred cancels a pending deferred task for the alert, if armed.
func (s *DeliveryScheduler) CancelDeferred(alertID string) bool {
	return s.timers.Cancel(alertID)
}

// HasDeferred reports whether a deferred task is armed for the alert.
func (s *DeliveryScheduler) HasDeferred(alertID string) bool {
	return s.timers.Armed(alertID)
}

// Shutdown cancels every armed task.
func (s *DeliveryScheduler) Shutdown() {
	s.timers.CancelAll()
}

var snoozeTokenRe = regexp.MustCompile(`^(\d+)([hm])$`)

// ParseSnoozeToken parses a "<N>h" or "<N>m" snooze duration token.
func ParseSnoozeToken(token string) (time.Duration, error) {
	m := snoozeTokenRe.FindStringSubmatch(token)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", xerrors.ErrInvalidSnoozeToken, token)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", xerrors.ErrInvalidSnoozeToken, token)
	}
	if m[2] == "h" {
		return time.Duration(n) * time.Hour, nil
	}
	return time.Duration(n) * time.Minute, nil
}
