// ABOUTME: Live session manager for the Gemini Live duplex connection
// ABOUTME: Owns the connection lifecycle, liveness monitor and bounded reconnect
package live

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PpiNeaPpLe/livevoice/pkg/audio"
	"github.com/PpiNeaPpLe/livevoice/pkg/audio/encode"
	"github.com/PpiNeaPpLe/livevoice/pkg/audio/output"
	"github.com/PpiNeaPpLe/livevoice/pkg/audio/resample"
	"github.com/PpiNeaPpLe/livevoice/pkg/loop"
	"github.com/PpiNeaPpLe/livevoice/pkg/player"
	"github.com/PpiNeaPpLe/livevoice/pkg/protocol"
)

const (
	DefaultModel            = "models/gemini-2.0-flash-exp"
	DefaultVoice            = "Aoede"
	DefaultMaxAttempts      = 3
	DefaultLivenessInterval = 5 * time.Second
	DefaultStaleAfter       = 10 * time.Second
)

// State is the session lifecycle state
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Source produces captured audio. Read returns io.EOF when capture ends.
type Source interface {
	SampleRate() int
	Read(ctx context.Context) ([]float32, error)
}

// Config holds session configuration
type Config struct {
	Endpoint          string
	APIKey            string
	Model             string
	Voice             string
	SystemInstruction string

	MaxAttempts      int
	ReconnectDelay   time.Duration
	LivenessInterval time.Duration
	StaleAfter       time.Duration
	SendSampleRate   int

	// Output is the playback device; required
	Output output.Device
	Dialer protocol.Dialer

	// Loop and Timers default to a private loop. Timers must deliver
	// callbacks through Loop.
	Loop   *loop.Loop
	Timers loop.Timers
	Now    func() time.Time

	Observer Observer

	// Callbacks run on the session goroutine. They must not block or call
	// back into the session synchronously.
	OnStateChange func(State)
	OnTranscript  func(string)
	OnError       func(error)
}

func (c *Config) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = protocol.DefaultEndpoint
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Voice == "" {
		c.Voice = DefaultVoice
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.LivenessInterval <= 0 {
		c.LivenessInterval = DefaultLivenessInterval
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = DefaultStaleAfter
	}
	if c.SendSampleRate <= 0 {
		c.SendSampleRate = audio.CaptureSampleRate
	}
	if c.Dialer == nil {
		c.Dialer = protocol.WebSocketDialer{}
	}
	if c.Loop == nil {
		c.Loop = loop.New()
	}
	if c.Timers == nil {
		c.Timers = c.Loop
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Observer == nil {
		c.Observer = nopObserver{}
	}
}

// Status is a snapshot of the session
type Status struct {
	SessionID         string
	State             State
	ReconnectAttempts int
	SinceLastMessage  time.Duration
	Playback          player.StreamStats
}

// Session keeps one duplex connection to the service alive and feeds its
// audio into a playback stream. All mutable state lives on the session loop.
type Session struct {
	cfg      Config
	id       string
	endpoint string
	loop     *loop.Loop
	timers   loop.Timers
	stream   *player.Stream
	router   *Router
	encoder  encode.Encoder

	ctx        context.Context
	cancel     context.CancelFunc
	loopCancel context.CancelFunc
	done       chan struct{}

	// loop-owned
	state       State
	conn        protocol.Conn
	connID      string
	attempts    int
	lastInbound time.Time
	monitor     loop.Repeater
	retry       loop.Repeater
	stopCapture context.CancelFunc

	writeMu sync.Mutex

	mu    sync.Mutex
	err   error
	final Status
}

// NewSession creates a session and starts its loop. Stop must be called to
// release it.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Output == nil {
		return nil, errors.New("session requires an output device")
	}
	cfg.applyDefaults()

	endpoint, err := protocol.EndpointURL(cfg.Endpoint, cfg.APIKey)
	if err != nil {
		return nil, err
	}

	encoder, err := encode.NewPCM(audio.Format{
		Codec:      "pcm",
		SampleRate: cfg.SendSampleRate,
		Channels:   1,
		BitDepth:   16,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	stream, err := player.NewStream(cfg.Output, cfg.Timers, player.StreamConfig{})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	loopCtx, loopCancel := context.WithCancel(context.Background())

	s := &Session{
		cfg:        cfg,
		id:         uuid.NewString(),
		endpoint:   endpoint,
		loop:       cfg.Loop,
		timers:     cfg.Timers,
		stream:     stream,
		encoder:    encoder,
		ctx:        ctx,
		cancel:     cancel,
		loopCancel: loopCancel,
		done:       make(chan struct{}),
	}
	s.router = NewRouter(stream, s.touch, s.transcript, cfg.Observer)

	go func() {
		_ = s.loop.Run(loopCtx)
	}()

	return s, nil
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Open starts connecting. Only valid from the idle state. Cancelling ctx
// stops the session.
func (s *Session) Open(ctx context.Context) error {
	var err error
	ok := s.loop.Do(func() {
		if s.state != StateIdle {
			err = fmt.Errorf("cannot open session in state %s", s.state)
			return
		}
		log.Printf("Session %s opening", s.id)
		s.setState(StateConnecting)
		s.dial()
	})
	if !ok {
		return ErrStopped
	}
	if err != nil {
		return err
	}

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.done:
		}
	}()
	return nil
}

// dial connects on a helper goroutine and reports back through the loop
func (s *Session) dial() {
	ctx := s.ctx
	go func() {
		conn, err := s.cfg.Dialer.Dial(ctx, s.endpoint)
		posted := s.loop.Post(func() {
			s.handleDial(conn, err)
		})
		if !posted && conn != nil {
			conn.Close()
		}
	}()
}

func (s *Session) handleDial(conn protocol.Conn, err error) {
	if s.state != StateConnecting {
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		s.handleClose(s.connID, err)
		return
	}

	setup := protocol.NewSetup(s.cfg.Model, s.cfg.Voice, s.cfg.SystemInstruction)
	s.writeMu.Lock()
	err = protocol.WriteJSON(conn, setup)
	s.writeMu.Unlock()
	if err != nil {
		conn.Close()
		s.handleClose(s.connID, fmt.Errorf("failed to send setup: %w", err))
		return
	}

	s.conn = conn
	s.connID = uuid.NewString()
	s.attempts = 0
	s.lastInbound = s.cfg.Now()
	s.setState(StateOpen)
	s.startMonitor()

	go s.readMessages(conn, s.connID)
}

// readMessages reads until the connection fails, posting every message to the loop
func (s *Session) readMessages(conn protocol.Conn, connID string) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			s.loop.Post(func() {
				s.handleClose(connID, err)
			})
			return
		}

		if !s.loop.Post(func() {
			s.handleMessage(connID, msgType, data)
		}) {
			return
		}
	}
}

func (s *Session) handleMessage(connID string, msgType int, data []byte) {
	if connID != s.connID || s.state != StateOpen {
		return
	}

	s.cfg.Observer.MessageReceived()
	if err := s.router.Route(msgType, data); err != nil {
		log.Printf("Dropped message: %v", err)
		s.cfg.Observer.MessageDropped()
	}
}

// handleClose is the single close transition for dial failures, read
// failures and forced closes
func (s *Session) handleClose(connID string, cause error) {
	if s.state != StateOpen && s.state != StateConnecting {
		return
	}
	if connID != s.connID {
		return
	}

	s.stopMonitor()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connID = ""

	connErr := &ConnectionError{Attempt: s.attempts, Err: cause}
	log.Printf("Connection closed: %v", connErr)

	if s.attempts < s.cfg.MaxAttempts {
		s.attempts++
		s.cfg.Observer.Reconnecting(s.attempts)
		log.Printf("Reconnecting (attempt %d/%d)", s.attempts, s.cfg.MaxAttempts)
		s.setState(StateConnecting)

		if s.cfg.ReconnectDelay > 0 {
			s.retry = s.timers.After(s.cfg.ReconnectDelay, func() {
				s.retry = nil
				s.dial()
			})
			return
		}
		s.dial()
		return
	}

	s.fail(fmt.Errorf("%w after %d attempts: %w", ErrExhaustedRetries, s.attempts, connErr))
}

func (s *Session) startMonitor() {
	s.stopMonitor()
	s.monitor = s.timers.Every(s.cfg.LivenessInterval, s.checkLiveness)
}

func (s *Session) stopMonitor() {
	if s.monitor != nil {
		s.monitor.Stop()
		s.monitor = nil
	}
}

// checkLiveness force-closes a connection that has gone quiet. The reader
// goroutine then reports the close like any other.
func (s *Session) checkLiveness() {
	if s.state != StateOpen {
		return
	}

	since := s.cfg.Now().Sub(s.lastInbound)
	stats := s.stream.Stats()
	log.Printf("Connection stats: state=%s, since last message=%v, queued=%d, scheduled=%d, underruns=%d",
		s.state, since.Round(time.Millisecond), stats.QueueDepth, stats.Scheduled, stats.Underruns)

	if since <= s.cfg.StaleAfter {
		return
	}

	log.Printf("No message for %v, forcing reconnect", since.Round(time.Millisecond))
	s.cfg.Observer.StaleConnection()
	s.stopMonitor()
	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *Session) touch() {
	s.lastInbound = s.cfg.Now()
}

func (s *Session) transcript(text string) {
	if s.cfg.OnTranscript != nil {
		s.cfg.OnTranscript(text)
	}
}

func (s *Session) setState(state State) {
	if s.state == state {
		return
	}
	log.Printf("Session state: %s -> %s", s.state, state)
	s.state = state
	if s.cfg.OnStateChange != nil {
		s.cfg.OnStateChange(state)
	}
}

// fail records err, releases everything and reports it
func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()

	log.Printf("Session failed: %v", err)
	s.shutdown()

	if s.cfg.OnError != nil {
		s.cfg.OnError(err)
	}
}

func (s *Session) shutdown() {
	if s.state == StateClosed {
		return
	}
	s.setState(StateClosing)

	s.stopMonitor()
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
	s.stream.Stop()
	if s.stopCapture != nil {
		s.stopCapture()
		s.stopCapture = nil
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connID = ""
	s.cancel()

	s.setState(StateClosed)

	s.mu.Lock()
	s.final = s.snapshot()
	s.mu.Unlock()

	close(s.done)
	s.loopCancel()
}

// Stop closes the session and releases every resource. Safe to call in any
// state and more than once.
func (s *Session) Stop() {
	s.loop.Do(s.shutdown)
	<-s.done
}

// SendAudio encodes samples at the send rate and streams them
func (s *Session) SendAudio(samples []float32) error {
	return s.send(s.encoder.MimeType(), s.encoder.Encode(samples))
}

// SendMedia streams arbitrary media such as a JPEG frame
func (s *Session) SendMedia(mimeType string, data []byte) error {
	return s.send(mimeType, base64.StdEncoding.EncodeToString(data))
}

func (s *Session) send(mimeType, data string) error {
	var conn protocol.Conn
	stopped := false
	ok := s.loop.Do(func() {
		switch s.state {
		case StateOpen:
			conn = s.conn
		case StateClosing, StateClosed:
			stopped = true
		}
	})
	if !ok || stopped {
		return ErrStopped
	}
	if conn == nil {
		return ErrNotOpen
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return protocol.WriteJSON(conn, protocol.NewRealtimeInput(mimeType, data))
}

// StartCapture streams src until it ends, the session stops or a new
// capture replaces it. The end of capture stops the session.
func (s *Session) StartCapture(src Source) error {
	ctx, cancel := context.WithCancel(s.ctx)
	if !s.loop.Do(func() {
		if s.stopCapture != nil {
			s.stopCapture()
		}
		s.stopCapture = cancel
	}) {
		cancel()
		return ErrStopped
	}

	go s.runCapture(ctx, src)
	return nil
}

func (s *Session) runCapture(ctx context.Context, src Source) {
	var resampler *resample.Resampler
	if src.SampleRate() != s.cfg.SendSampleRate {
		resampler = resample.New(src.SampleRate(), s.cfg.SendSampleRate)
		log.Printf("Resampling capture %dHz -> %dHz", src.SampleRate(), s.cfg.SendSampleRate)
	}

	for {
		samples, err := src.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				log.Printf("Capture ended")
				s.Stop()
				return
			}
			s.CaptureFailed(err)
			return
		}

		if resampler != nil {
			samples = resampler.Resample(samples)
		}
		if len(samples) == 0 {
			continue
		}

		if err := s.SendAudio(samples); err != nil {
			if errors.Is(err, ErrStopped) {
				return
			}
			if !errors.Is(err, ErrNotOpen) {
				log.Printf("Failed to send audio: %v", err)
			}
		}
	}
}

// CaptureFailed stops the session with a CaptureError
func (s *Session) CaptureFailed(err error) {
	s.loop.Do(func() {
		if s.state == StateClosed {
			return
		}
		s.fail(&CaptureError{Err: err})
	})
	<-s.done
}

// Status returns a snapshot of the session
func (s *Session) Status() Status {
	var st Status
	if s.loop.Do(func() { st = s.snapshot() }) {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.final
}

func (s *Session) snapshot() Status {
	st := Status{
		SessionID:         s.id,
		State:             s.state,
		ReconnectAttempts: s.attempts,
		Playback:          s.stream.Stats(),
	}
	if !s.lastInbound.IsZero() {
		st.SinceLastMessage = s.cfg.Now().Sub(s.lastInbound)
	}
	return st
}

// Done is closed once the session reaches the closed state
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that ended the session, or nil after a plain Stop
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
