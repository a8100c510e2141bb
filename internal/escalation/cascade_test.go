package escalation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisis-alert-service/internal/domain"
	"crisis-alert-service/pkg/template"
)

type fakeSMS struct {
	numbers  []string
	messages []string
	err      error
}

func (f *fakeSMS) Send(_ context.Context, number, message string) error {
	f.numbers = append(f.numbers, number)
	f.messages = append(f.messages, message)
	return f.err
}

type fakeEmail struct {
	addresses []string
	bodies    []string
	err       error
}

func (f *fakeEmail) Send(_ context.Context, address, _, body string, _ []domain.AlertAction) error {
	f.addresses = append(f.addresses, address)
	f.bodies = append(f.bodies, body)
	return f.err
}

func crisisAlert() *domain.Alert {
	return &domain.Alert{
		ID:       "a1",
		UserID:   "u1",
		Type:     domain.TypeCrisis,
		Priority: domain.PriorityCritical,
		Title:    "Crisis Support Available",
		Message:  "We noticed you might be going through a difficult moment.",
		Crisis:   &domain.CrisisDetails{RiskLevel: 8, EscalationLevel: domain.EscalationImmediate},
	}
}

func cascadePrefs(contacts ...domain.EmergencyContact) *domain.NotificationPreferences {
	return &domain.NotificationPreferences{
		UserID:                 "u1",
		ContactName:            "Jamie",
		EmergencyContactAlerts: true,
		EmergencyContacts:      contacts,
	}
}

func TestRunNotifiesContactsByAscendingPriority(t *testing.T) {
	sms, email := &fakeSMS{}, &fakeEmail{}
	c := NewCascade(sms, email, template.NewTemplateService())

	p := cascadePrefs(
		domain.EmergencyContact{Name: "Third", Phone: "+3", Priority: 3},
		domain.EmergencyContact{Name: "First", Phone: "+1", Priority: 1},
		domain.EmergencyContact{Name: "Second", Phone: "+2", Priority: 2},
	)
	results := c.Run(context.Background(), crisisAlert(), p)

	require.Len(t, results, 3)
	assert.Equal(t, []string{"+1", "+2", "+3"}, sms.numbers)
	assert.Equal(t, "First", results[0].ContactName)
	assert.Equal(t, "Third", results[2].ContactName)
}

func TestRunCapsAtThreeContacts(t *testing.T) {
	sms := &fakeSMS{}
	c := NewCascade(sms, &fakeEmail{}, template.NewTemplateService())

	p := cascadePrefs(
		domain.EmergencyContact{Name: "A", Phone: "+1", Priority: 1},
		domain.EmergencyContact{Name: "B", Phone: "+2", Priority: 2},
		domain.EmergencyContact{Name: "C", Phone: "+3", Priority: 3},
		domain.EmergencyContact{Name: "D", Phone: "+4", Priority: 4},
		domain.EmergencyContact{Name: "E", Phone: "+5", Priority: 5},
	)
	results := c.Run(context.Background(), crisisAlert(), p)

	assert.Len(t, results, 3)
	assert.Equal(t, []string{"+1", "+2", "+3"}, sms.numbers)
}

func TestRunSkippedWhenDisabled(t *testing.T) {
	sms := &fakeSMS{}
	c := NewCascade(sms, &fakeEmail{}, template.NewTemplateService())

	p := cascadePrefs(domain.EmergencyContact{Name: "A", Phone: "+1", Priority: 1})
	p.EmergencyContactAlerts = false

	assert.Nil(t, c.Run(context.Background(), crisisAlert(), p))
	assert.Empty(t, sms.numbers)
}

func TestRunSkippedForNonCrisis(t *testing.T) {
	sms := &fakeSMS{}
	c := NewCascade(sms, &fakeEmail{}, template.NewTemplateService())

	a := crisisAlert()
	a.Type = domain.TypeReminder
	a.Crisis = nil

	assert.Nil(t, c.Run(context.Background(), a, cascadePrefs(domain.EmergencyContact{Name: "A", Phone: "+1", Priority: 1})))
	assert.Empty(t, sms.numbers)
}

func TestRunNoContactsOnFile(t *testing.T) {
	c := NewCascade(&fakeSMS{}, &fakeEmail{}, template.NewTemplateService())
	assert.Nil(t, c.Run(context.Background(), crisisAlert(), cascadePrefs()))
}

func TestRunMessageNeverCarriesAlertContent(t *testing.T) {
	sms, email := &fakeSMS{}, &fakeEmail{}
	c := NewCascade(sms, email, template.NewTemplateService())

	a := crisisAlert()
	p := cascadePrefs(domain.EmergencyContact{
		Name: "Alex", Phone: "+1", Email: "alex@example.com", Relationship: "sibling", Priority: 1,
	})
	results := c.Run(context.Background(), a, p)

	require.Len(t, results, 2, "sms and email for the same contact")
	require.Len(t, sms.messages, 1)
	require.Len(t, email.bodies, 1)

	for _, body := range []string{sms.messages[0], email.bodies[0]} {
		assert.NotContains(t, body, a.Title)
		assert.NotContains(t, body, a.Message)
		assert.Contains(t, body, "Jamie")
		assert.Contains(t, body, "988")
	}
	assert.Contains(t, email.bodies[0], "Alex")
	assert.Contains(t, email.bodies[0], "sibling")
}

func TestRunRecordsFailuresAndContinues(t *testing.T) {
	sms := &fakeSMS{err: errors.New("unreachable")}
	email := &fakeEmail{}
	c := NewCascade(sms, email, template.NewTemplateService())

	p := cascadePrefs(
		domain.EmergencyContact{Name: "A", Phone: "+1", Priority: 1},
		domain.EmergencyContact{Name: "B", Phone: "+2", Email: "b@example.com", Priority: 2},
	)
	results := c.Run(context.Background(), crisisAlert(), p)

	require.Len(t, results, 3, "two failed sms attempts plus one email")
	assert.False(t, results[0].OK)
	assert.Contains(t, results[0].Error, "unreachable")
	assert.Equal(t, []string{"+1", "+2"}, sms.numbers, "a failed contact never halts the cascade")
	assert.Equal(t, []string{"b@example.com"}, email.addresses)

	var emailResult ContactResult
	for _, r := range results {
		if r.Channel == domain.ChannelEmail {
			emailResult = r
		}
	}
	assert.True(t, emailResult.OK)
}

func TestDisplayNameFallback(t *testing.T) {
	assert.Equal(t, "Jamie", displayName(&domain.NotificationPreferences{ContactName: "Jamie"}))
	assert.Equal(t, "your loved one", displayName(&domain.NotificationPreferences{}))
}
