// Package sms sends text messages to tenants and contractors. The production
// sender speaks the Twilio REST API; tests swap a fake in through the Sender
// interface.
package sms

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// maxBodyLength mirrors the Twilio message size cap.
const maxBodyLength = 1600

var (
	// ErrNotConfigured means no gateway credentials were provided.
	ErrNotConfigured = errors.New("sms: gateway is not configured")
	// ErrInvalidNumber means the destination could not be normalized to E.164.
	ErrInvalidNumber = errors.New("sms: invalid destination number")
)

// Sender delivers one message and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// Disabled is the sender wired when credentials are absent; every send fails
// with ErrNotConfigured so handlers can report it cleanly.
type Disabled struct{}

func (Disabled) Send(ctx context.Context, to, body string) (string, error) {
	return "", ErrNotConfigured
}

// Recorder captures sends for tests.
type Recorder struct {
	mu    sync.Mutex
	sent  []RecordedMessage
	Err   error
	nextN int
}

type RecordedMessage struct {
	To   string
	Body string
}

func (r *Recorder) Send(ctx context.Context, to, body string) (string, error) {
	if r.Err != nil {
		return "", r.Err
	}
	normalized, err := NormalizeNumber(to)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextN++
	r.sent = append(r.sent, RecordedMessage{To: normalized, Body: clampBody(body)})
	return fmt.Sprintf("SM%012d", r.nextN), nil
}

// Sent returns a copy of everything delivered so far.
func (r *Recorder) Sent() []RecordedMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedMessage, len(r.sent))
	copy(out, r.sent)
	return out
}

func clampBody(body string) string {
	if len(body) > maxBodyLength {
		return body[:maxBodyLength]
	}
	return body
}
