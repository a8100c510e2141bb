// Package notifier fans an alert out to its delivery channels. Channel calls
// run concurrently and failures are isolated per channel; a slow or failing
// sink never blocks its siblings. The in-app sink is always attempted so the
// alert stays locally visible even when every external channel fails.
package notifier

import (
	"context"
	"log"
	"sync"
	"time"

	"crisis-alert-service/internal/domain"
	"crisis-alert-service/internal/metrics"
	"crisis-alert-service/pkg/template"
)

type Notifier struct {
	Push      domain.PushSink
	SMS       domain.SmsSink
	Email     domain.EmailSink
	InApp     domain.InAppSink
	Templates *template.TemplateService

	Timeout time.Duration
}

func NewNotifier(push domain.PushSink, sms domain.SmsSink, email domain.EmailSink, inApp domain.InAppSink, tmpl *template.TemplateService) *Notifier {
	return &Notifier{
		Push:      push,
		SMS:       sms,
		Email:     email,
		InApp:     inApp,
		Templates: tmpl,
		Timeout:   15 * time.Second,
	}
}

// Dispatch invokes every enabled, requested channel concurrently and returns
// one result per invoked channel. Channels that cannot be invoked (toggled
// off, no sink wired, no recipient address on file) are skipped with a log
// line and produce no result, so they do not count against the alert status.
func (n *Notifier) Dispatch(ctx context.Context, alert *domain.Alert, prefs *domain.NotificationPreferences) []domain.ChannelResult {
	ctx, cancel := context.WithTimeout(ctx, n.Timeout)
	defer cancel()

	log.Printf("[Notifier] Dispatching alert | ID=%s | User=%s | Type=%s | Priority=%s | Channels=%v",
		alert.ID, alert.UserID, alert.Type, alert.Priority, alert.Channels)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []domain.ChannelResult
	)
	record := func(ch domain.Channel, err error) {
		r := domain.ChannelResult{AlertID: alert.ID, Channel: ch, OK: err == nil, AttemptedAt: time.Now()}
		outcome := "ok"
		if err != nil {
			r.Error = err.Error()
			outcome = "error"
			log.Printf("⚠️ %s dispatch failed for alert %s: %v", ch, alert.ID, err)
		}
		metrics.Dispatches.WithLabelValues(string(ch), outcome).Inc()
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	invoke := func(ch domain.Channel, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("⚠️ Panic recovered in %s sink: %v", ch, r)
				}
			}()
			record(ch, fn())
		}()
	}

	if alert.HasChannel(domain.ChannelPush) && prefs.ChannelEnabled(domain.ChannelPush) {
		if n.Push == nil {
			log.Printf("⚠️ Skipping push dispatch for alert %s (no push sink wired)", alert.ID)
		} else {
			invoke(domain.ChannelPush, func() error {
				return n.Push.Send(ctx, alert.UserID, alert.Title, alert.Message, pushOptions(alert))
			})
		}
	}

	if alert.HasChannel(domain.ChannelSMS) && prefs.ChannelEnabled(domain.ChannelSMS) {
		switch {
		case n.SMS == nil:
			log.Printf("⚠️ Skipping sms dispatch for alert %s (no sms sink wired)", alert.ID)
		case prefs.ContactPhone == "":
			log.Printf("⚠️ Skipping sms dispatch for alert %s (no phone on file for %s)", alert.ID, alert.UserID)
		default:
			invoke(domain.ChannelSMS, func() error {
				return n.SMS.Send(ctx, prefs.ContactPhone, alert.Title+": "+alert.Message)
			})
		}
	}

	if alert.HasChannel(domain.ChannelEmail) && prefs.ChannelEnabled(domain.ChannelEmail) {
		switch {
		case n.Email == nil:
			log.Printf("⚠️ Skipping email dispatch for alert %s (no email sink wired)", alert.ID)
		case prefs.ContactEmail == "":
			log.Printf("⚠️ Skipping email dispatch for alert %s (no email on file for %s)", alert.ID, alert.UserID)
		default:
			body := alert.Message
			if n.Templates != nil {
				if rendered, err := n.Templates.Render("email", "alert", alert); err == nil {
					body = rendered
				} else {
					log.Printf("⚠️ Email template render failed: %v", err)
				}
			}
			invoke(domain.ChannelEmail, func() error {
				return n.Email.Send(ctx, prefs.ContactEmail, alert.Title, body, alert.Actions)
			})
		}
	}

	// In-app publication is local and always attempted, independent of the
	// requested channel set and the external toggles.
	if n.InApp != nil {
		invoke(domain.ChannelInApp, func() error {
			n.InApp.Publish(alert)
			return nil
		})
	}

	wg.Wait()
	return results
}

func pushOptions(alert *domain.Alert) map[string]string {
	opts := map[string]string{
		"alert_id": alert.ID,
		"priority": string(alert.Priority),
	}
	if alert.RequiresAck {
		opts["require_interaction"] = "true"
	}
	return opts
}

// AllSucceeded reports whether every invoked channel completed without error.
// The overall alert status is sent only when this holds; per-channel detail
// is preserved on the results themselves.
func AllSucceeded(results []domain.ChannelResult) bool {
	for _, r := range results {
		if !r.OK {
			return false
		}
	}
	return true
}
