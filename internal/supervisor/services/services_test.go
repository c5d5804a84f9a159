// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var (
	_ suture.Service = (*HTTPServerService)(nil)
	_ suture.Service = (*EventBusService)(nil)
)

// fakeHTTPServer blocks in ListenAndServe until Shutdown when block is set.
type fakeHTTPServer struct {
	listenErr   error
	block       bool
	shutdownErr error
	listens     atomic.Int32
	shutdowns   atomic.Int32
	started     chan struct{}
	stop        chan struct{}
}

func newFakeHTTPServer() *fakeHTTPServer {
	return &fakeHTTPServer{
		started: make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

func (s *fakeHTTPServer) ListenAndServe() error {
	s.listens.Add(1)
	select {
	case s.started <- struct{}{}:
	default:
	}
	if s.listenErr != nil {
		return s.listenErr
	}
	if s.block {
		<-s.stop
		return http.ErrServerClosed
	}
	return nil
}

func (s *fakeHTTPServer) Shutdown(context.Context) error {
	if s.shutdowns.Add(1) == 1 {
		close(s.stop)
	}
	return s.shutdownErr
}

func waitStarted(t *testing.T, s *fakeHTTPServer) {
	t.Helper()
	select {
	case <-s.started:
	case <-time.After(time.Second):
		t.Fatal("server did not start")
	}
}

func TestNewHTTPServerService_DefaultTimeout(t *testing.T) {
	for _, timeout := range []time.Duration{0, -5 * time.Second} {
		svc := NewHTTPServerService(newFakeHTTPServer(), timeout)
		if svc.shutdownTimeout != 10*time.Second {
			t.Errorf("timeout %v: got %v, want 10s", timeout, svc.shutdownTimeout)
		}
	}
	if got := NewHTTPServerService(newFakeHTTPServer(), 0).String(); got != "http-server" {
		t.Errorf("String() = %q", got)
	}
}

func TestHTTPServerService_Serve(t *testing.T) {
	t.Run("graceful shutdown on cancel", func(t *testing.T) {
		server := newFakeHTTPServer()
		server.block = true
		svc := NewHTTPServerService(server, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		waitStarted(t, server)
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return")
		}
		if server.shutdowns.Load() != 1 {
			t.Errorf("Shutdown calls = %d, want 1", server.shutdowns.Load())
		}
	})

	t.Run("listen failure", func(t *testing.T) {
		bindErr := errors.New("bind: address already in use")
		server := newFakeHTTPServer()
		server.listenErr = bindErr

		err := NewHTTPServerService(server, time.Second).Serve(context.Background())
		if !errors.Is(err, bindErr) {
			t.Errorf("Serve() = %v, want %v", err, bindErr)
		}
	})

	t.Run("shutdown failure", func(t *testing.T) {
		shutdownErr := errors.New("shutdown timeout")
		server := newFakeHTTPServer()
		server.block = true
		server.shutdownErr = shutdownErr
		svc := NewHTTPServerService(server, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		waitStarted(t, server)
		cancel()

		if err := <-errCh; !errors.Is(err, shutdownErr) {
			t.Errorf("Serve() = %v, want %v", err, shutdownErr)
		}
	})
}

type routerFunc func(ctx context.Context) error

func (f routerFunc) Run(ctx context.Context) error { return f(ctx) }

func TestEventBusService_Serve(t *testing.T) {
	t.Run("returns context error on cancel", func(t *testing.T) {
		svc := NewEventBusService(routerFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		}))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	})

	t.Run("wraps router failure", func(t *testing.T) {
		routerErr := errors.New("subscribe failed")
		svc := NewEventBusService(routerFunc(func(context.Context) error { return routerErr }))

		if err := svc.Serve(context.Background()); !errors.Is(err, routerErr) {
			t.Errorf("Serve() = %v, want %v", err, routerErr)
		}
	})

	t.Run("early stop is a failure", func(t *testing.T) {
		svc := NewEventBusService(routerFunc(func(context.Context) error { return nil }))

		if err := svc.Serve(context.Background()); err == nil {
			t.Error("expected error when the router stops on its own")
		}
	})

	t.Run("restarted by supervisor", func(t *testing.T) {
		var runs atomic.Int32
		svc := NewEventBusService(routerFunc(func(ctx context.Context) error {
			if runs.Add(1) < 3 {
				return errors.New("crash")
			}
			<-ctx.Done()
			return nil
		}))

		sup := suture.New("test", suture.Spec{
			FailureThreshold: 10,
			FailureBackoff:   10 * time.Millisecond,
			Timeout:          time.Second,
		})
		sup.Add(svc)

		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()
		errCh := sup.ServeBackground(ctx)

		deadline := time.Now().Add(time.Second)
		for runs.Load() < 3 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		if runs.Load() < 3 {
			t.Errorf("router runs = %d, want at least 3", runs.Load())
		}
		cancel()
		<-errCh
	})
}
