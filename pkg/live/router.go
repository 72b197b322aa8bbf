// ABOUTME: Inbound message router
// ABOUTME: Classifies service messages and dispatches audio, text and turn events
package live

import (
	"log"

	"github.com/PpiNeaPpLe/livevoice/pkg/audio"
	"github.com/PpiNeaPpLe/livevoice/pkg/protocol"
)

// Sink receives the audio side of routed messages
type Sink interface {
	AddChunk(chunk string) error
	Complete()
	Interrupt()
}

// Router dispatches inbound messages
type Router struct {
	sink     Sink
	touch    func()
	onText   func(string)
	observer Observer
}

// NewRouter creates a router. touch is called for every inbound message;
// onText and observer may be nil.
func NewRouter(sink Sink, touch func(), onText func(string), observer Observer) *Router {
	if observer == nil {
		observer = nopObserver{}
	}
	if touch == nil {
		touch = func() {}
	}
	return &Router{
		sink:     sink,
		touch:    touch,
		onText:   onText,
		observer: observer,
	}
}

// Route handles one WebSocket message
func (r *Router) Route(msgType int, data []byte) error {
	r.touch()

	if msgType != protocol.BinaryMessage && msgType != protocol.TextMessage {
		return &RouteError{MessageType: msgType, Reason: "unsupported frame type"}
	}

	msg, err := protocol.DecodeServerMessage(data)
	if err != nil {
		return &RouteError{MessageType: msgType, Reason: "malformed JSON", Err: err}
	}
	if !known(msg) {
		return &RouteError{MessageType: msgType, Reason: "unrecognized message shape"}
	}

	if msgType == protocol.TextMessage {
		log.Printf("Control message: %s", describe(msg))
		return nil
	}
	r.dispatch(msg)
	return nil
}

// known reports whether msg carries at least one field the router understands
func known(msg *protocol.ServerMessage) bool {
	return msg.SetupComplete != nil || msg.ServerContent != nil ||
		msg.GoAway != nil || msg.Error != nil
}

func (r *Router) dispatch(msg *protocol.ServerMessage) {
	if msg.SetupComplete != nil {
		log.Printf("Setup complete")
	}
	if msg.GoAway != nil {
		log.Printf("Server going away (time left: %s)", msg.GoAway.TimeLeft)
	}
	if msg.Error != nil {
		log.Printf("Service error %d: %s", msg.Error.Code, msg.Error.Message)
	}

	content := msg.ServerContent
	if content == nil {
		return
	}

	if content.Interrupted {
		log.Printf("Turn interrupted, flushing playback")
		r.sink.Interrupt()
	}

	if content.ModelTurn != nil {
		for _, part := range content.ModelTurn.Parts {
			r.dispatchPart(part)
		}
	}

	if content.OutputTranscription != nil && content.OutputTranscription.Text != "" {
		r.text(content.OutputTranscription.Text)
	}

	if content.TurnComplete {
		r.sink.Complete()
	}
}

func (r *Router) dispatchPart(part protocol.Part) {
	if part.InlineData != nil {
		if !audio.IsPCMMimeType(part.InlineData.MimeType) {
			log.Printf("Ignoring inline data of type %s", part.InlineData.MimeType)
			return
		}
		if err := r.sink.AddChunk(part.InlineData.Data); err != nil {
			log.Printf("Decode error: %v", err)
			r.observer.DecodeError()
		}
		return
	}
	if part.Text != "" {
		r.text(part.Text)
	}
}

func (r *Router) text(s string) {
	if r.onText != nil {
		r.onText(s)
	}
}

// describe names the populated fields of a control message for logging
func describe(msg *protocol.ServerMessage) string {
	switch {
	case msg.SetupComplete != nil:
		return "setupComplete"
	case msg.GoAway != nil:
		return "goAway"
	case msg.Error != nil:
		return "error: " + msg.Error.Message
	default:
		return "serverContent"
	}
}
