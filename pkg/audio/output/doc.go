// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides the Device clock interface, Timeline mixer and backends
// Package output provides audio playback.
//
// A Timeline mixes frames bound to absolute times on its own sample clock.
// Backends drive the clock: Oto pulls PCM from the timeline into the
// hardware device, Discard renders at real-time pace without a device.
//
// Example:
//
//	out, err := output.NewOto(24000, 0)
//	err = out.Play(frame, out.CurrentTime()+0.1)
package output
