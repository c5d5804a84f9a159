// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package services

import (
	"context"
	"fmt"
)

// EventRouter is the part of *events.Bus the service drives.
type EventRouter interface {
	Run(ctx context.Context) error
}

// EventBusService runs the event bus router under a supervisor. Each
// restart builds a new router over the same pub/sub. Events published while
// no router is subscribed are dropped.
type EventBusService struct {
	bus  EventRouter
	name string
}

// NewEventBusService wraps bus.
func NewEventBusService(bus EventRouter) *EventBusService {
	return &EventBusService{bus: bus, name: "event-bus"}
}

// Serve implements suture.Service.
func (s *EventBusService) Serve(ctx context.Context) error {
	if err := s.bus.Run(ctx); err != nil {
		return fmt.Errorf("event bus router failed: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("event bus router stopped unexpectedly")
}

// String names the service in supervisor logs.
func (s *EventBusService) String() string {
	return s.name
}
