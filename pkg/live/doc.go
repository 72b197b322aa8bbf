// ABOUTME: Live session package
// ABOUTME: Connection lifecycle, liveness and routing for Gemini Live
// Package live keeps a Gemini Live duplex connection alive and plays the
// speech it returns.
//
// A Session dials the service, sends the setup handshake and routes every
// inbound message into a playback stream. A liveness monitor force-closes
// connections that go quiet, and closes are retried a bounded number of
// times before the session gives up.
//
// Example:
//
//	s, err := live.NewSession(live.Config{APIKey: key, Output: out})
//	err = s.Open(ctx)
//	<-s.Done()
//	err = s.Err()
package live
