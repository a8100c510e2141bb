package domain

import "context"

// PushSink delivers a platform push notification.
type PushSink interface {
	Send(ctx context.Context, userID, title, body string, options map[string]string) error
}

// SmsSink delivers a text message to a phone number.
type SmsSink interface {
	Send(ctx context.Context, phoneNumber, message string) error
}

// EmailSink delivers an email, optionally carrying alert actions as links.
type EmailSink interface {
	Send(ctx context.Context, address, subject, body string, actions []AlertAction) error
}

// InAppSink publishes an alert to the user's live in-app surface.
// Publication is local and must not fail; it is always attempted.
type InAppSink interface {
	Publish(alert *Alert)
}

// PushRegistrar exchanges a push subscription when push is newly enabled.
type PushRegistrar interface {
	Register(ctx context.Context, userID string) error
}
