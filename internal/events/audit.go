// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package events

import (
	"context"
	"fmt"

	"github.com/tomtom215/workshop/internal/logging"
)

// AuditHandler writes every event to the security audit log.
func AuditHandler(l *logging.SecurityLogger) Handler {
	return func(_ context.Context, e Event) error {
		se, err := toSecurityEvent(e)
		if err != nil {
			return err
		}
		l.LogEvent(se)
		return nil
	}
}

func toSecurityEvent(e Event) (*logging.SecurityEvent, error) {
	se := &logging.SecurityEvent{
		Login:     e.Login,
		Subject:   e.Subject,
		Provider:  e.Provider,
		IPAddress: e.IP,
		UserAgent: e.UserAgent,
		Reason:    e.Reason,
	}
	if e.RequestID != "" {
		se.Details = map[string]string{"request_id": e.RequestID}
	}

	switch e.Type {
	case TypeLoginSucceeded:
		se.Event = "login_success"
		se.Success = true
	case TypeLoginFailed:
		se.Event = "login_failed"
	case TypeLogout:
		se.Event = "logout"
		se.Success = true
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	return se, nil
}

// NewAuditSink returns a Sink that writes events to the audit log
// synchronously. It stands in for a Bus when the bus is disabled.
func NewAuditSink(l *logging.SecurityLogger) Sink {
	h := AuditHandler(l)
	return SinkFunc(func(ctx context.Context, e Event) error {
		return h(ctx, e)
	})
}
