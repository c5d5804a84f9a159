// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type names an authentication event.
type Type string

const (
	TypeLoginSucceeded Type = "login.succeeded"
	TypeLoginFailed    Type = "login.failed"
	TypeLogout         Type = "logout"
)

// Event is an authentication outcome. Passwords and tokens are never part
// of an event.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Time      time.Time `json:"time"`
	Login     string    `json:"login,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// New creates an event of type t with a fresh ID and the current time.
func New(t Type) Event {
	return Event{
		ID:   uuid.NewString(),
		Type: t,
		Time: time.Now().UTC(),
	}
}

// Sink receives authentication events. Implementations must not block the
// request path for long; a failed publish is logged by the caller and
// never fails the request.
type Sink interface {
	Publish(ctx context.Context, e Event) error
}

// NopSink discards events.
type NopSink struct{}

// Publish discards e.
func (NopSink) Publish(context.Context, Event) error { return nil }

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Event) error

// Publish calls f.
func (f SinkFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }
