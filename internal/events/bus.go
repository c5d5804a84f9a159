// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
)

// DefaultTopic is the topic used when BusConfig.Topic is empty.
const DefaultTopic = "auth.events"

// BusConfig configures a Bus.
type BusConfig struct {
	Topic string

	// Buffer is the per-subscriber output channel buffer.
	Buffer int64

	// CloseTimeout bounds how long Run waits for in-flight handlers on shutdown.
	CloseTimeout time.Duration
}

// Handler consumes one event. A returned error is logged and counted; the
// event is not redelivered.
type Handler func(ctx context.Context, e Event) error

type namedHandler struct {
	name string
	fn   Handler
}

// Bus is a Sink backed by a Watermill gochannel pub/sub with a router
// dispatching to handlers.
type Bus struct {
	cfg    BusConfig
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter

	mu       sync.Mutex
	handlers []namedHandler

	ready     chan struct{}
	readyOnce sync.Once
}

var _ Sink = (*Bus)(nil)

// NewBus creates a bus. logger may be nil.
func NewBus(cfg BusConfig, logger watermill.LoggerAdapter) *Bus {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.CloseTimeout == 0 {
		cfg.CloseTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	return &Bus{
		cfg: cfg,
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.Buffer,
		}, logger),
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// Topic returns the topic events are published on.
func (b *Bus) Topic() string {
	return b.cfg.Topic
}

// AddHandler registers fn. Handlers added after Run has started take effect
// on the next Run.
func (b *Bus) AddHandler(name string, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, namedHandler{name: name, fn: fn})
}

// Publish serializes e and publishes it on the bus topic.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = watermill.NewUUID()
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	payload, err := json.Marshal(e)
	if err != nil {
		PublishFailures.Inc()
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(e.ID, payload)
	msg.Metadata.Set("type", string(e.Type))
	msg.SetContext(ctx)

	if err := b.pubsub.Publish(b.cfg.Topic, msg); err != nil {
		PublishFailures.Inc()
		return fmt.Errorf("publish event: %w", err)
	}
	Published.WithLabelValues(string(e.Type)).Inc()
	return nil
}

// Run dispatches events to the registered handlers until ctx is canceled.
// Each call builds a fresh router so a supervisor may restart it.
func (b *Bus) Run(ctx context.Context) error {
	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: b.cfg.CloseTimeout,
	}, b.logger)
	if err != nil {
		return fmt.Errorf("create event router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)

	b.mu.Lock()
	handlers := make([]namedHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.Unlock()

	for _, h := range handlers {
		router.AddConsumerHandler(h.name, b.cfg.Topic, b.pubsub, b.dispatch(h))
	}

	go func() {
		select {
		case <-router.Running():
			b.readyOnce.Do(func() { close(b.ready) })
		case <-ctx.Done():
		}
	}()

	return router.Run(ctx)
}

// Running is closed once the first router has subscribed its handlers.
func (b *Bus) Running() <-chan struct{} {
	return b.ready
}

// Close shuts the pub/sub down. Publishing afterwards fails.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// dispatch decodes a message and runs h. Errors are acknowledged rather
// than nacked: gochannel redelivers nacked messages immediately and
// forever.
func (b *Bus) dispatch(h namedHandler) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		var e Event
		if err := json.Unmarshal(msg.Payload, &e); err != nil {
			Handled.WithLabelValues(h.name, "malformed").Inc()
			b.logger.Error("Dropping malformed event", err, watermill.LogFields{
				"handler":    h.name,
				"message_id": msg.UUID,
			})
			return nil
		}

		if err := h.fn(msg.Context(), e); err != nil {
			Handled.WithLabelValues(h.name, "error").Inc()
			b.logger.Error("Event handler failed", err, watermill.LogFields{
				"handler":    h.name,
				"event_type": string(e.Type),
			})
			return nil
		}
		Handled.WithLabelValues(h.name, "ok").Inc()
		return nil
	}
}
