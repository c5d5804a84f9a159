// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

/*
Package supervisor runs the workshop server's long-lived services under a
suture v4 supervisor tree.

	workshop
	├── messaging-layer
	│   └── EventBusService    (when events are enabled)
	└── api-layer
	    └── HTTPServerService

Each layer restarts its own services with suture's backoff. Supervisor
events are logged through sutureslog on the zerolog-backed slog logger.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMessagingService(services.NewEventBusService(bus))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = tree.Serve(ctx)
*/
package supervisor
