// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// SecurityEvent is an authentication or authorization outcome destined for
// the audit log. Values are sanitized by LogEvent before being written.
type SecurityEvent struct {
	// Event is the event name (login_success, login_failed, logout, access_denied).
	Event string
	// Login is the credential the client presented (email or phone).
	Login string
	// Subject is the authenticated principal's subject, when known.
	Subject string
	// Provider is the name of the provider that decided the attempt.
	Provider  string
	IPAddress string
	UserAgent string
	Success   bool
	// Reason is the failure reason; ignored when Success is true.
	Reason  string
	Details map[string]string
}

// SecurityLogger writes sanitized audit lines under component=auth.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a security logger on the global logger.
func NewSecurityLogger() *SecurityLogger {
	return NewSecurityLoggerWithLogger(Logger())
}

// NewSecurityLoggerWithLogger creates a security logger on a custom logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// LogEvent writes a single audit line for event.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	var e *zerolog.Event
	if event.Success {
		e = l.logger.Info().Str("status", "success")
	} else {
		e = l.logger.Warn().Str("status", "failed")
	}
	e = e.Str("event", event.Event)

	if event.Login != "" {
		e = e.Str("login", SanitizeLogin(event.Login))
	}
	if event.Subject != "" {
		e = e.Str("subject", SanitizeLogin(event.Subject))
	}
	if event.Provider != "" {
		e = e.Str("provider", event.Provider)
	}
	if event.IPAddress != "" {
		e = e.Str("ip", event.IPAddress)
	}
	if event.UserAgent != "" {
		e = e.Str("user_agent", truncateString(event.UserAgent, 100))
	}
	if event.Reason != "" && !event.Success {
		e = e.Str("reason", SanitizeError(event.Reason))
	}
	for k, v := range event.Details {
		e = e.Str(k, SanitizeValue(k, v))
	}

	e.Msg("")
}

// LogLoginSuccess logs an accepted login.
func (l *SecurityLogger) LogLoginSuccess(subject, provider, ip, userAgent string) {
	l.LogEvent(&SecurityEvent{
		Event:     "login_success",
		Subject:   subject,
		Provider:  provider,
		IPAddress: ip,
		UserAgent: userAgent,
		Success:   true,
	})
}

// LogLoginFailure logs a rejected login.
func (l *SecurityLogger) LogLoginFailure(login, ip, userAgent, reason string) {
	l.LogEvent(&SecurityEvent{
		Event:     "login_failed",
		Login:     login,
		IPAddress: ip,
		UserAgent: userAgent,
		Reason:    reason,
	})
}

// LogLogout logs a logout.
func (l *SecurityLogger) LogLogout(subject, ip string) {
	l.LogEvent(&SecurityEvent{
		Event:     "logout",
		Subject:   subject,
		IPAddress: ip,
		Success:   true,
	})
}

// LogAccessDenied logs a permission check that was refused.
func (l *SecurityLogger) LogAccessDenied(subject, entity, permission, path string) {
	l.LogEvent(&SecurityEvent{
		Event:   "access_denied",
		Subject: subject,
		Reason:  "permission denied",
		Details: map[string]string{
			"entity":     entity,
			"permission": permission,
			"path":       path,
		},
	})
}

// SanitizeToken masks a token, showing only the first and last 4 characters.
//
//	"eyJhbGciOiJIUzI1NiJ9.eyJzdWIi..." -> "eyJh...In0"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeLogin masks an email address or phone number.
//
//	"john.doe@example.com" -> "jo***@example.com"
//	"+380501234567"        -> "+3***67"
func SanitizeLogin(login string) string {
	if login == "" {
		return ""
	}
	if at := strings.Index(login, "@"); at >= 0 {
		if at <= 2 {
			return "***" + login[at:]
		}
		return login[:2] + "***" + login[at:]
	}
	if len(login) <= 4 {
		return "***"
	}
	return login[:2] + "***" + login[len(login)-2:]
}

var sensitiveErrorWords = []string{
	"password", "secret", "token", "key", "bearer", "authorization", "cookie",
}

// SanitizeError replaces error text that may carry credentials with a
// generic message and truncates the rest.
func SanitizeError(err string) string {
	lowerErr := strings.ToLower(err)
	for _, word := range sensitiveErrorWords {
		if strings.Contains(lowerErr, word) {
			return "authentication error"
		}
	}
	return truncateString(err, 200)
}

var sensitiveKeys = map[string]bool{
	"token":         true,
	"access_token":  true,
	"password":      true,
	"secret":        true,
	"authorization": true,
	"cookie":        true,
}

// SanitizeValue sanitizes a detail value based on its key name.
func SanitizeValue(key, value string) string {
	if sensitiveKeys[strings.ToLower(key)] {
		return SanitizeToken(value)
	}
	if strings.Contains(value, "@") && strings.Contains(value, ".") {
		return SanitizeLogin(value)
	}
	return value
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
