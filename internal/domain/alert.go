package domain

import "time"

// AlertType defines the category of an alert
type AlertType string

const (
	TypeCrisis    AlertType = "crisis"
	TypeReminder  AlertType = "reminder"
	TypeCheckIn   AlertType = "check_in"
	TypeEmergency AlertType = "emergency"
	TypeTherapy   AlertType = "therapy"
	TypeSupport   AlertType = "support"
)

type AlertPriority string

const (
	PriorityCritical AlertPriority = "critical"
	PriorityHigh     AlertPriority = "high"
	PriorityMedium   AlertPriority = "medium"
	PriorityLow      AlertPriority = "low"
)

type AlertStatus string

const (
	StatusPending   AlertStatus = "pending"
	StatusSent      AlertStatus = "sent"
	StatusDelivered AlertStatus = "delivered"
	StatusRead      AlertStatus = "read"
	StatusDismissed AlertStatus = "dismissed"
	StatusFailed    AlertStatus = "failed"
)

type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
	ChannelInApp Channel = "in_app"
)

type ActionType string

const (
	ActionURL     ActionType = "url"
	ActionCall    ActionType = "call"
	ActionChat    ActionType = "chat"
	ActionSnooze  ActionType = "snooze"
	ActionDismiss ActionType = "dismiss"
)

// EscalationLevel describes how fast a crisis alert must be acted on
type EscalationLevel string

const (
	EscalationImmediate EscalationLevel = "immediate"
	EscalationUrgent    EscalationLevel = "urgent"
	EscalationScheduled EscalationLevel = "scheduled"
)

// AlertAction is a user-facing action attached to an alert
type AlertAction struct {
	ID     string     `json:"id"`
	Label  string     `json:"label"`
	Type   ActionType `json:"type"`
	Target string     `json:"target,omitempty"`
	Style  string     `json:"style,omitempty"` // primary, secondary, danger
}

// Alert is the unit the engine schedules, dispatches and tracks.
type Alert struct {
	ID           string         `json:"id"`
	RequestID    string         `json:"request_id"`
	UserID       string         `json:"user_id"`
	Type         AlertType      `json:"type"`
	Priority     AlertPriority  `json:"priority"`
	Title        string         `json:"title"`
	Message      string         `json:"message"`
	Channels     []Channel      `json:"channels"`
	Actions      []AlertAction  `json:"actions,omitempty"`
	Status       AlertStatus    `json:"status"`
	IsEmergency  bool           `json:"is_emergency"`
	RequiresAck  bool           `json:"requires_ack"`
	CreatedAt    time.Time      `json:"created_at"`
	ExpiresAt    *time.Time     `json:"expires_at,omitempty"`
	DeliveredAt  *time.Time     `json:"delivered_at,omitempty"`
	ReadAt       *time.Time     `json:"read_at,omitempty"`
	SnoozedUntil *time.Time     `json:"snoozed_until,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`

	// Crisis is set only for crisis/emergency alerts
	Crisis *CrisisDetails `json:"crisis,omitempty"`
}

// CrisisDetails carries the risk assessment attached to a crisis alert
type CrisisDetails struct {
	RiskLevel                 int             `json:"risk_level"` // 1-10
	TriggerSource             string          `json:"trigger_source,omitempty"`
	InterventionRequired      bool            `json:"intervention_required"`
	EscalationLevel           EscalationLevel `json:"escalation_level"`
	SupportTeamNotified       bool            `json:"support_team_notified"`
	EmergencyContactsNotified bool            `json:"emergency_contacts_notified"`
	Location                  string          `json:"location,omitempty"`
}

// ChannelResult records the outcome of one channel invocation for one alert
type ChannelResult struct {
	AlertID     string    `json:"alert_id"`
	Channel     Channel   `json:"channel"`
	OK          bool      `json:"ok"`
	Error       string    `json:"error,omitempty"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// IsCrisis reports whether the alert must trigger the emergency-contact cascade
func (a *Alert) IsCrisis() bool {
	return a.Type == TypeCrisis || a.Type == TypeEmergency
}

// Expired reports whether the alert is past its expiry at the given instant
func (a *Alert) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && now.After(*a.ExpiresAt)
}

// HasChannel reports whether the alert requests the given channel
func (a *Alert) HasChannel(ch Channel) bool {
	for _, c := range a.Channels {
		if c == ch {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to mutate independently of the original
func (a *Alert) Clone() *Alert {
	cp := *a
	cp.Channels = append([]Channel(nil), a.Channels...)
	cp.Actions = append([]AlertAction(nil), a.Actions...)
	if a.ExpiresAt != nil {
		t := *a.ExpiresAt
		cp.ExpiresAt = &t
	}
	if a.DeliveredAt != nil {
		t := *a.DeliveredAt
		cp.DeliveredAt = &t
	}
	if a.ReadAt != nil {
		t := *a.ReadAt
		cp.ReadAt = &t
	}
	if a.SnoozedUntil != nil {
		t := *a.SnoozedUntil
		cp.SnoozedUntil = &t
	}
	if a.Metadata != nil {
		cp.Metadata = make(map[string]any, len(a.Metadata))
		for k, v := range a.Metadata {
			cp.Metadata[k] = v
		}
	}
	if a.Crisis != nil {
		c := *a.Crisis
		cp.Crisis = &c
	}
	return &cp
}
