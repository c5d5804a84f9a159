// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewSlogHandler(NewTestLogger(&buf)))

	logger.Warn("service restarted",
		slog.String("service", "http"),
		slog.Int("attempt", 2),
		slog.Duration("backoff", time.Second),
		slog.Any("err", errors.New("boom")),
	)

	out := buf.String()
	for _, want := range []string{
		`"level":"warn"`,
		`"message":"service restarted"`,
		`"service":"http"`,
		`"attempt":2`,
		`"err":"boom"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestSlogHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewSlogHandler(NewTestLogger(&buf))).
		With("tree", "root").
		WithGroup("event")

	logger.Info("stopped", "name", "api")

	out := buf.String()
	if !strings.Contains(out, `"tree":"root"`) || strings.Contains(out, `"event.tree"`) {
		t.Errorf("expected pre-configured attr, got %s", out)
	}
	if !strings.Contains(out, `"event.name":"api"`) {
		t.Errorf("expected grouped key, got %s", out)
	}
}

func TestSlogHandler_Enabled(t *testing.T) {
	h := NewSlogHandler(zerolog.New(&bytes.Buffer{}).Level(zerolog.WarnLevel))

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled for a warn-level logger")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled for a warn-level logger")
	}
}
