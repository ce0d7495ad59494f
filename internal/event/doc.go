// Package event provides the synchronous signal bus that connects rover's
// core with its plugins.
//
// Handlers bind to a signal name with a priority in [0, 1]. Emit calls every
// binding of that name in descending priority order, ties in registration
// order, on the caller's goroutine:
//
//	bus := event.NewBus(event.WithLogger(log))
//	bus.RegisterFunc(event.SignalCd, func(sig *event.Signal) {
//		log.Info("entered", "path", sig.String("new"))
//	}, 0.7)
//	bus.Emit(event.SignalCd, map[string]any{"previous": "/", "new": "/tmp"})
//
// A handler halts an emission by returning Stop. Field writes made by a
// handler are visible to every later handler and to the emitter, which is
// how command.pre vetoes commands and setting.changed rewrites values.
//
// # Errors
//
// Handler errors and recovered panics are wrapped in *HandlerError. A plain
// Emit logs them and moves on to the next binding; EmitVital aborts on the
// first one and returns it. With WithDebug(true) nothing is swallowed:
// panics propagate and failed non-vital handlers panic.
//
// The bus is owned by the runtime goroutine and is not safe for concurrent
// use.
package event
