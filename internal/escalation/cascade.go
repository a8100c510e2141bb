// Package escalation notifies a user's ranked emergency contacts during a
// crisis alert, independently of the primary user-facing dispatch.
package escalation

import (
	"context"
	"log"
	"sort"
	"time"

	"crisis-alert-service/internal/domain"
	"crisis-alert-service/internal/metrics"
	"crisis-alert-service/pkg/template"
)

const maxContacts = 3

const crisisHotline = "988"

// ContactResult records one contact attempt on one channel.
type ContactResult struct {
	ContactName string         `json:"contact_name"`
	Channel     domain.Channel `json:"channel"`
	OK          bool           `json:"ok"`
	Error       string         `json:"error,omitempty"`
	AttemptedAt time.Time      `json:"attempted_at"`
}

type Cascade struct {
	sms       domain.SmsSink
	email     domain.EmailSink
	templates *template.TemplateService

	Timeout time.Duration
}

func NewCascade(sms domain.SmsSink, email domain.EmailSink, tmpl *template.TemplateService) *Cascade {
	return &Cascade{
		sms:       sms,
		email:     email,
		templates: tmpl,
		Timeout:   15 * time.Second,
	}
}

// Run notifies the first min(3, n) emergency contacts by ascending priority.
// Contacts get a templated message that never carries the user's original
// alert content, only a generic check-on-your-loved-one text with the crisis
// hotline. Per-contact failures are recorded, not retried; the cascade always
// runs to completion. Returns nil when the alert is not a crisis or the user
// has emergency-contact alerts disabled.
func (c *Cascade) Run(ctx context.Context, alert *domain.Alert, prefs *domain.NotificationPreferences) []ContactResult {
	if !alert.IsCrisis() {
		return nil
	}
	if !prefs.EmergencyContactAlerts {
		log.Printf("Cascade skipped for alert %s: emergency contact alerts disabled", alert.ID)
		return nil
	}

	contacts := rankedContacts(prefs.EmergencyContacts)
	if len(contacts) == 0 {
		log.Printf("⚠️ Cascade for alert %s: no emergency contacts on file for %s", alert.ID, alert.UserID)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	userName := displayName(prefs)
	var results []ContactResult
	record := func(contact domain.EmergencyContact, ch domain.Channel, err error) {
		r := ContactResult{ContactName: contact.Name, Channel: ch, OK: err == nil, AttemptedAt: time.Now()}
		outcome := "ok"
		if err != nil {
			r.Error = err.Error()
			outcome = "error"
			log.Printf("⚠️ Cascade %s to %s failed for alert %s: %v", ch, contact.Name, alert.ID, err)
		}
		metrics.CascadeContacts.WithLabelValues(string(ch), outcome).Inc()
		results = append(results, r)
	}

	for _, contact := range contacts {
		data := map[string]any{
			"ContactName":  contact.Name,
			"Relationship": contact.Relationship,
			"UserName":     userName,
			"Hotline":      crisisHotline,
		}

		if contact.Phone != "" && c.sms != nil {
			body, err := c.templates.Render("sms", "emergency_contact", data)
			if err == nil {
				err = c.sms.Send(ctx, contact.Phone, body)
			}
			record(contact, domain.ChannelSMS, err)
		}

		if contact.Email != "" && c.email != nil {
			body, err := c.templates.Render("email", "emergency_contact", data)
			if err == nil {
				err = c.email.Send(ctx, contact.Email, "Please check on your loved one", body, nil)
			}
			record(contact, domain.ChannelEmail, err)
		}
	}

	log.Printf("Cascade for alert %s notified %d contact(s)", alert.ID, len(contacts))
	return results
}

// rankedContacts returns at most maxContacts contacts by ascending priority.
func rankedContacts(contacts []domain.EmergencyContact) []domain.EmergencyContact {
	ranked := append([]domain.EmergencyContact(nil), contacts...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Priority < ranked[j].Priority
	})
	if len(ranked) > maxContacts {
		ranked = ranked[:maxContacts]
	}
	return ranked
}

// displayName picks how the user is referred to in contact messages without
// leaking anything beyond what the contact already knows.
func displayName(prefs *domain.NotificationPreferences) string {
	if prefs.ContactName != "" {
		return prefs.ContactName
	}
	return "your loved one"
}
