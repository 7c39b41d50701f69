// Package arcade turns graph execution into game events.
//
// A Runner performs one simulation and reports every step through an
// Emitter, which builds the events and hands them to a Sink (a WebSocket
// client in the server, a slice in tests). GraphRunner drives a compiled
// graph; DemoRunner plays a scripted show when no graph is available.
//
//	em := arcade.NewEmitter(sink, runID)
//	err := arcade.Simulate(ctx, arcade.NewMessagesRunner(app), "hello", em)
package arcade
