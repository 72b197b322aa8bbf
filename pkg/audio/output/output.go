// ABOUTME: Audio output interface definitions
// ABOUTME: Audio clock and voice binding used by the playback scheduler
package output

import "github.com/PpiNeaPpLe/livevoice/pkg/audio"

// Device is an audio clock that frames can be bound to at absolute times.
// Times are seconds on the device's own clock.
type Device interface {
	// CurrentTime returns the device clock in seconds
	CurrentTime() float64

	// Play binds a frame to start at the given clock time
	Play(frame audio.Frame, at float64) error

	// RampGain linearly moves the master gain from its current value to
	// target, arriving at the given clock time
	RampGain(target float64, at float64)

	// Cancel drops every bound voice from the given clock time onwards
	Cancel(at float64)
}

// Output represents an audio output device with user volume control
type Output interface {
	Device

	// SetVolume sets the volume (0-100)
	SetVolume(volume int)

	// SetMuted sets mute state
	SetMuted(muted bool)

	// Volume returns current volume
	Volume() int

	// Muted returns mute state
	Muted() bool

	// Close releases output resources
	Close() error
}
