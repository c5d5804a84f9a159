// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import (
	"errors"
	"net/http"
)

// Kind classifies an authentication failure.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindBadCredentials
	KindRejected
	KindTokenInvalid
	KindTokenExpired
	KindInvalidArgument
	KindInvalidPrincipal
	KindServiceFailure
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	KindBadCredentials:   "bad_credentials",
	KindRejected:         "rejected",
	KindTokenInvalid:     "token_invalid",
	KindTokenExpired:     "token_expired",
	KindInvalidArgument:  "invalid_argument",
	KindInvalidPrincipal: "invalid_principal",
	KindServiceFailure:   "service_failure",
}

// String returns the snake_case name used in metrics labels and message keys.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Status returns the HTTP status associated with the kind.
func (k Kind) Status() int {
	switch k {
	case KindBadCredentials, KindRejected, KindTokenInvalid, KindTokenExpired:
		return http.StatusUnauthorized
	case KindServiceFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// MessageKey returns the localization key for the kind.
func (k Kind) MessageKey() string {
	return "auth." + k.String()
}

// Error is the single error type of the auth core. It carries an HTTP-like
// status, a localization key and an optional cause.
type Error struct {
	Kind       Kind
	Status     int
	MessageKey string
	Message    string
	Err        error
}

// NewError creates an Error whose status and message key derive from kind.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:       kind,
		Status:     kind.Status(),
		MessageKey: kind.MessageKey(),
		Message:    message,
		Err:        cause,
	}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return "auth: " + msg + ": " + e.Err.Error()
	}
	return "auth: " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind. An expired token also matches
// ErrTokenInvalid.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == e.Kind {
		return true
	}
	return e.Kind == KindTokenExpired && t.Kind == KindTokenInvalid
}

// Sentinels for errors.Is checks. Never mutate them; use NewError to attach
// a cause.
var (
	ErrBadCredentials         = NewError(KindBadCredentials, "bad credentials", nil)
	ErrAuthenticationRejected = NewError(KindRejected, "authentication rejected", nil)
	ErrTokenInvalid           = NewError(KindTokenInvalid, "token invalid", nil)
	ErrTokenExpired           = NewError(KindTokenExpired, "token expired", nil)
	ErrInvalidArgument        = NewError(KindInvalidArgument, "invalid argument", nil)
	ErrInvalidPrincipal       = NewError(KindInvalidPrincipal, "invalid principal", nil)
	ErrServiceFailure         = NewError(KindServiceFailure, "authentication service failure", nil)
)

// ErrTokenTooLarge is wrapped by an invalid-principal error when an encoded
// token would not fit in a cookie.
var ErrTokenTooLarge = errors.New("token exceeds cookie size limit")

// KindOf returns the kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StatusOf returns the HTTP status for err, 500 for foreign errors.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}
