// ABOUTME: Observer hooks for session events
// ABOUTME: Lets metrics and UI code count session activity without coupling
package live

// Observer receives session events. Methods are called from the session
// goroutine and must not block.
type Observer interface {
	MessageReceived()
	MessageDropped()
	DecodeError()
	Reconnecting(attempt int)
	StaleConnection()
}

type nopObserver struct{}

func (nopObserver) MessageReceived() {}
func (nopObserver) MessageDropped() {}
func (nopObserver) DecodeError() {}
func (nopObserver) Reconnecting(int) {}
func (nopObserver) StaleConnection() {}
