// ABOUTME: Event loop package
// ABOUTME: Single-threaded execution model shared by the session and the player
// Package loop provides the cooperative execution model used by the live
// session and the playback pipeline.
//
// A Loop owns one goroutine. Socket reads, dial results and timer ticks are
// posted onto it, so session and player state is only ever touched from that
// goroutine and needs no locks.
//
// Repeating work is armed through Timers and cancelled through the returned
// Repeater, which guarantees the callback does not run after Stop returns.
//
// Example:
//
//	l := loop.New()
//	go l.Run(ctx)
//
//	poll := l.Every(100*time.Millisecond, scheduler.Tick)
//	defer poll.Stop()
package loop
