package helpers

import (
	"fmt"
	"time"

	"crisis-alert-service/internal/domain"
	"crisis-alert-service/internal/metrics"
	"crisis-alert-service/pkg/id"
	"crisis-alert-service/pkg/xerrors"
)

const crisisHotline = "988"

// AlertFactory builds typed alerts with category-appropriate defaults.
// Caller-supplied fields override any default except id and timestamp,
// which are always freshly generated.
type AlertFactory struct {
	ids *id.Snowflake
	now func() time.Time
}

func NewAlertFactory(ids *id.Snowflake) *AlertFactory {
	return &AlertFactory{ids: ids, now: time.Now}
}

// WithClock overrides the factory clock; used in tests.
func (f *AlertFactory) WithClock(now func() time.Time) *AlertFactory {
	f.now = now
	return f
}

// CrisisAlertParams is the caller-supplied portion of a crisis alert.
// Zero-valued fields fall back to crisis defaults.
type CrisisAlertParams struct {
	UserID          string
	Title           string
	Message         string
	Priority        domain.AlertPriority
	Channels        []domain.Channel
	Actions         []domain.AlertAction
	RiskLevel       int
	TriggerSource   string
	EscalationLevel domain.EscalationLevel
	Location        string
	ExpiresAt       *time.Time
	Metadata        map[string]any
}

// CreateCrisisAlert builds a crisis alert. Defaults: critical priority,
// push+sms+in_app channels, emergency and acknowledgment flags set, and the
// canned hotline/chat/safety-plan action set.
func (f *AlertFactory) CreateCrisisAlert(p CrisisAlertParams) (*domain.Alert, error) {
	if p.UserID == "" {
		return nil, xerrors.ErrUserIDRequired
	}
	if p.RiskLevel < 0 || p.RiskLevel > 10 {
		return nil, xerrors.ErrInvalidRiskLevel
	}

	a := f.base(p.UserID, domain.TypeCrisis)
	a.Priority = domain.PriorityCritical
	a.Title = "Crisis Support Available"
	a.Message = "We noticed you might be going through a difficult moment. Support is available right now."
	a.Channels = []domain.Channel{domain.ChannelPush, domain.ChannelSMS, domain.ChannelInApp}
	a.IsEmergency = true
	a.RequiresAck = true
	a.Actions = []domain.AlertAction{
		{ID: "call-hotline", Label: "Call crisis hotline", Type: domain.ActionCall, Target: crisisHotline, Style: "primary"},
		{ID: "start-chat", Label: "Start support chat", Type: domain.ActionChat, Target: "/support/chat", Style: "primary"},
		{ID: "view-safety-plan", Label: "View safety plan", Type: domain.ActionURL, Target: "/safety-plan", Style: "secondary"},
	}
	a.Crisis = &domain.CrisisDetails{
		RiskLevel:            p.RiskLevel,
		TriggerSource:        p.TriggerSource,
		InterventionRequired: p.RiskLevel >= 7,
		EscalationLevel:      domain.EscalationImmediate,
		Location:             p.Location,
	}

	// Caller overrides
	if p.Title != "" {
		a.Title = p.Title
	}
	if p.Message != "" {
		a.Message = p.Message
	}
	if p.Priority != "" {
		a.Priority = p.Priority
	}
	if len(p.Channels) > 0 {
		a.Channels = p.Channels
	}
	if len(p.Actions) > 0 {
		a.Actions = p.Actions
	}
	if p.EscalationLevel != "" {
		a.Crisis.EscalationLevel = p.EscalationLevel
	}
	if p.ExpiresAt != nil {
		a.ExpiresAt = p.ExpiresAt
	}
	if p.Metadata != nil {
		a.Metadata = p.Metadata
	}

	metrics.AlertsCreated.WithLabelValues(string(a.Type)).Inc()
	return a, nil
}

// ReminderKind selects the canned reminder message.
type ReminderKind string

const (
	ReminderMedication  ReminderKind = "medication"
	ReminderTherapy     ReminderKind = "therapy"
	ReminderJournal     ReminderKind = "journal"
	ReminderMindfulness ReminderKind = "mindfulness"
)

var reminderMessages = map[ReminderKind]string{
	ReminderMedication:  "Time to take your medication.",
	ReminderTherapy:     "Your therapy session is coming up.",
	ReminderJournal:     "Take a moment to write in your journal.",
	ReminderMindfulness: "A few minutes of mindfulness can help. Ready?",
}

// CreateReminder builds a reminder with a 24-hour expiry; customMessage,
// when non-empty, replaces the canned text for the kind.
func (f *AlertFactory) CreateReminder(userID string, kind ReminderKind, customMessage string) (*domain.Alert, error) {
	if userID == "" {
		return nil, xerrors.ErrUserIDRequired
	}
	msg, ok := reminderMessages[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown reminder kind %q", xerrors.ErrInvalidInput, kind)
	}
	if customMessage != "" {
		msg = customMessage
	}

	a := f.base(userID, domain.TypeReminder)
	a.Priority = domain.PriorityMedium
	a.Title = "Reminder"
	a.Message = msg
	a.Channels = []domain.Channel{domain.ChannelPush, domain.ChannelInApp}
	expires := f.now().Add(24 * time.Hour)
	a.ExpiresAt = &expires
	a.Actions = []domain.AlertAction{
		{ID: "open-app", Label: "Open app", Type: domain.ActionURL, Target: "/", Style: "primary"},
		{ID: "snooze-1h", Label: "Remind me in an hour", Type: domain.ActionSnooze, Target: "1h", Style: "secondary"},
	}
	a.Metadata = map[string]any{"reminder_kind": string(kind)}

	metrics.AlertsCreated.WithLabelValues(string(a.Type)).Inc()
	return a, nil
}

// CreateWellnessCheckIn builds a check-in prompt. A concerning mood trend
// raises the priority and attaches a crisis-support action.
func (f *AlertFactory) CreateWellnessCheckIn(userID, moodTrend string) (*domain.Alert, error) {
	if userID == "" {
		return nil, xerrors.ErrUserIDRequired
	}

	a := f.base(userID, domain.TypeCheckIn)
	a.Title = "How are you feeling?"
	a.Message = "Take a moment to check in with yourself."
	a.Channels = []domain.Channel{domain.ChannelPush, domain.ChannelInApp}
	a.Actions = []domain.AlertAction{
		{ID: "check-in", Label: "Check in now", Type: domain.ActionURL, Target: "/check-in", Style: "primary"},
	}
	a.Metadata = map[string]any{"mood_trend": moodTrend}

	if moodTrend == "concerning" {
		a.Priority = domain.PriorityHigh
		a.Message = "We've noticed things have been tough lately. Checking in can help, and support is here if you need it."
		a.Actions = append(a.Actions, domain.AlertAction{
			ID: "crisis-support", Label: "Get support now", Type: domain.ActionCall, Target: crisisHotline, Style: "danger",
		})
	} else {
		a.Priority = domain.PriorityMedium
	}

	metrics.AlertsCreated.WithLabelValues(string(a.Type)).Inc()
	return a, nil
}

func (f *AlertFactory) base(userID string, t domain.AlertType) *domain.Alert {
	return &domain.Alert{
		ID:        f.ids.Generate(),
		RequestID: id.NewULID(),
		UserID:    userID,
		Type:      t,
		Status:    domain.StatusPending,
		CreatedAt: f.now(),
	}
}
