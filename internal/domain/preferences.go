package domain

import "time"

// ChannelToggles represents which delivery channels are enabled
type ChannelToggles struct {
	Push  bool `json:"push"`
	SMS   bool `json:"sms"`
	Email bool `json:"email"`
	InApp bool `json:"in_app"`
}

// CategoryToggles represents which alert categories the user accepts
type CategoryToggles struct {
	Crisis   bool `json:"crisis"`
	Reminder bool `json:"reminder"`
	CheckIn  bool `json:"check_in"`
	Therapy  bool `json:"therapy"`
	Support  bool `json:"support"`
}

// QuietHours defines when non-critical alerts are deferred
type QuietHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"` // "HH:MM" in 24h
	End     string `json:"end"`   // "HH:MM" in 24h
}

// EmergencyContact is one entry of the ranked cascade list.
// Priority values are distinct and ascending; the cascade uses
// at most the first 3 by ascending priority.
type EmergencyContact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	Priority     int    `json:"priority"`
}

// NotificationPreferences is the per-user delivery policy, one record per user
type NotificationPreferences struct {
	UserID                 string             `json:"user_id"`
	Channels               ChannelToggles     `json:"channels"`
	Categories             CategoryToggles    `json:"categories"`
	EmergencyContactAlerts bool               `json:"emergency_contact_alerts"`
	QuietHours             QuietHours         `json:"quiet_hours"`
	ContactName            string             `json:"contact_name,omitempty"`
	ContactEmail           string             `json:"contact_email,omitempty"`
	ContactPhone           string             `json:"contact_phone,omitempty"`
	EmergencyContacts      []EmergencyContact `json:"emergency_contacts,omitempty"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`
}

// CategoryEnabled reports whether alerts of the given type may be delivered.
// Emergency alerts ride on the crisis toggle.
func (p *NotificationPreferences) CategoryEnabled(t AlertType) bool {
	switch t {
	case TypeCrisis, TypeEmergency:
		return p.Categories.Crisis
	case TypeReminder:
		return p.Categories.Reminder
	case TypeCheckIn:
		return p.Categories.CheckIn
	case TypeTherapy:
		return p.Categories.Therapy
	case TypeSupport:
		return p.Categories.Support
	}
	return false
}

// ChannelEnabled reports whether the given channel is toggled on
func (p *NotificationPreferences) ChannelEnabled(ch Channel) bool {
	switch ch {
	case ChannelPush:
		return p.Channels.Push
	case ChannelSMS:
		return p.Channels.SMS
	case ChannelEmail:
		return p.Channels.Email
	case ChannelInApp:
		return p.Channels.InApp
	}
	return false
}

// Clone returns a deep copy safe to mutate independently of the original
func (p *NotificationPreferences) Clone() *NotificationPreferences {
	cp := *p
	cp.EmergencyContacts = append([]EmergencyContact(nil), p.EmergencyContacts...)
	return &cp
}
