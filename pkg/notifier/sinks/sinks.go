// Package sinks provides HTTP clients for the downstream delivery gateways.
// Each gateway is an opaque collaborator; retry policy belongs to it, not to
// this service.
package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"crisis-alert-service/internal/domain"
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

func postJSON(ctx context.Context, hc *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned %s", resp.Status)
	}
	return nil
}

// PushGateway delivers platform push notifications. Implements domain.PushSink.
type PushGateway struct {
	base string
	hc   *http.Client
}

func NewPushGateway(addr string) *PushGateway {
	log.Println("Push gateway configured at", addr)
	return &PushGateway{base: addr, hc: newHTTPClient()}
}

func (g *PushGateway) Send(ctx context.Context, userID, title, body string, options map[string]string) error {
	return postJSON(ctx, g.hc, g.base+"/v1/push", map[string]any{
		"user_id": userID,
		"title":   title,
		"body":    body,
		"options": options,
	})
}

// Register exchanges a push subscription for the user; PushGateway also
// implements domain.PushRegistrar.
func (g *PushGateway) Register(ctx context.Context, userID string) error {
	return postJSON(ctx, g.hc, g.base+"/v1/subscriptions", map[string]any{
		"user_id": userID,
	})
}

// SmsGateway delivers text messages. Implements domain.SmsSink.
type SmsGateway struct {
	base string
	hc   *http.Client
}

func NewSmsGateway(addr string) *SmsGateway {
	log.Println("SMS gateway configured at", addr)
	return &SmsGateway{base: addr, hc: newHTTPClient()}
}

func (g *SmsGateway) Send(ctx context.Context, phoneNumber, message string) error {
	return postJSON(ctx, g.hc, g.base+"/v1/sms", map[string]any{
		"recipient": phoneNumber,
		"body":      message,
	})
}

// EmailGateway delivers emails. Implements domain.EmailSink.
type EmailGateway struct {
	base string
	hc   *http.Client
}

func NewEmailGateway(addr string) *EmailGateway {
	log.Println("Email gateway configured at", addr)
	return &EmailGateway{base: addr, hc: newHTTPClient()}
}

func (g *EmailGateway) Send(ctx context.Context, address, subject, body string, actions []domain.AlertAction) error {
	return postJSON(ctx, g.hc, g.base+"/v1/email", map[string]any{
		"recipient": address,
		"subject":   subject,
		"body":      body,
		"actions":   actions,
	})
}
