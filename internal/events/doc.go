// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

/*
Package events carries authentication events from the login and logout
filters to their consumers.

Filters receive a Sink explicitly; there is no global publisher. The Bus
implementation serializes events as JSON onto an in-process Watermill
gochannel topic. A Watermill router consumes the topic and hands each event
to the registered handlers, the audit writer among them:

	bus := events.NewBus(events.BusConfig{Topic: "auth.events"}, logger)
	bus.AddHandler("audit", events.AuditHandler(logging.NewSecurityLogger()))
	go bus.Run(ctx)

	_ = bus.Publish(ctx, events.New(events.TypeLogout))

Delivery is best effort. Events published while no router is running are
dropped, and handler panics are recovered by the router.
*/
package events
