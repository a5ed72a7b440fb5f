// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock interface parameter instead of calling
// time.Now, time.After, time.NewTicker, time.AfterFunc, or time.Sleep
// directly. In production, Real() provides the standard library
// behavior. In tests, Fake() provides a deterministic clock that
// advances only when Advance is called.
//
// # Wiring Pattern
//
// Thread a Clock parameter through the unexported implementation
// behind an exported entrypoint that defaults to Real():
//
//	func Offer(ctx context.Context, logger *slog.Logger) (string, func(string) (net.Conn, error), error) {
//	    return offer(ctx, logger, clock.Real())
//	}
//
//	func offer(ctx context.Context, logger *slog.Logger, clk clock.Clock) (...) {
//	    select {
//	    case <-gatherComplete:
//	    case <-clk.After(iceGatherTimeout):
//	        // ...
//	    }
//	}
//
// In tests, call the unexported variant directly with a Fake clock:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go func() { offer(ctx, logger, c) }()
//	c.WaitForTimers(1) // wait for the goroutine to register its timer
//	c.Advance(iceGatherTimeout) // fire the timeout deterministically
//
// # FakeClock Synchronization
//
// When a goroutine calls Sleep, After, NewTicker, or AfterFunc on a
// FakeClock, it registers a pending timer. Use WaitForTimers to block
// until a specific number of timers are registered before calling
// Advance. This eliminates the race between timer registration and
// time advancement that plagues tests using time.Sleep for
// synchronization.
package clock
