// ABOUTME: Local stand-in for the Gemini Live BidiGenerateContent service
// ABOUTME: Accepts setup, answers with tone audio turns and counts traffic
package mockserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/PpiNeaPpLe/livevoice/pkg/audio"
	"github.com/PpiNeaPpLe/livevoice/pkg/protocol"
)

const (
	// Path matches the path of the real endpoint
	Path = "/ws/google.ai.generativelanguage.v1alpha.GenerativeService.BidiGenerateContent"

	DefaultToneFrequency = 440.0
	DefaultChunkSamples  = 2400
	DefaultChunksPerTurn = 10
	DefaultTurnEvery     = 20
	DefaultTranscript    = "This is a test reply."
)

// Config holds mock service configuration
type Config struct {
	Addr          string
	ToneFrequency float64
	// ChunkSamples is the number of 24kHz samples per audio message
	ChunkSamples  int
	ChunksPerTurn int
	// TurnEvery replies after this many inbound audio chunks; 0 disables
	TurnEvery int
	// Greeting sends one turn right after setup
	Greeting bool
	// Pace is the delay between audio messages of a turn
	Pace       time.Duration
	Transcript string
	// Silent sends nothing after setupComplete
	Silent bool
}

func (c *Config) applyDefaults() {
	if c.ToneFrequency <= 0 {
		c.ToneFrequency = DefaultToneFrequency
	}
	if c.ChunkSamples <= 0 {
		c.ChunkSamples = DefaultChunkSamples
	}
	if c.ChunksPerTurn <= 0 {
		c.ChunksPerTurn = DefaultChunksPerTurn
	}
}

// Stats counts traffic across all connections
type Stats struct {
	Connections int64
	Setups      int64
	AudioChunks int64
	MediaChunks int64
	Turns       int64
	LastModel   string
	LastVoice   string
}

// Server is the mock service. It is an http.Handler so tests can mount it
// on an httptest server.
type Server struct {
	config   Config
	serverID string
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*connection]struct{}
	stats Stats
}

type connection struct {
	id      string
	ws      *websocket.Conn
	tone    *tone
	writeMu sync.Mutex
	turnMu  sync.Mutex
	turns   sync.WaitGroup
}

// New creates a mock service
func New(config Config) *Server {
	config.applyDefaults()
	return &Server{
		config:   config,
		serverID: uuid.New().String(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*connection]struct{}),
	}
}

// ListenAndServe serves on config.Addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", s)

	httpServer := &http.Server{
		Addr:    s.config.Addr,
		Handler: mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	log.Printf("Mock service %s listening on ws://%s%s", s.serverID, s.config.Addr, Path)

	var serverErr error
	select {
	case <-ctx.Done():
		log.Printf("Mock service shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
	}

	s.DropAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// ServeHTTP upgrades the request and runs the connection until it closes
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	c := &connection{
		id:   uuid.New().String(),
		ws:   ws,
		tone: newTone(s.config.ToneFrequency, audio.OutputSampleRate),
	}
	log.Printf("New WebSocket connection %s from %s", c.id, r.RemoteAddr)

	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.stats.Connections++
	s.mu.Unlock()

	s.handleConnection(c)

	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	log.Printf("Connection %s closed", c.id)
}

func (s *Server) handleConnection(c *connection) {
	defer func() {
		_ = c.ws.Close()
		c.turns.Wait()
	}()

	_, data, err := c.ws.ReadMessage()
	if err != nil {
		log.Printf("Error reading setup: %v", err)
		return
	}
	msg, err := protocol.DecodeClientMessage(data)
	if err != nil || msg.Setup == nil {
		log.Printf("Expected setup as first message")
		_ = s.send(c, protocol.ServerMessage{Error: &protocol.ServerError{
			Code:    400,
			Message: "first message must be setup",
			Status:  "INVALID_ARGUMENT",
		}})
		return
	}
	if msg.Setup.Model == "" {
		_ = s.send(c, protocol.ServerMessage{Error: &protocol.ServerError{
			Code:    400,
			Message: "setup.model is required",
			Status:  "INVALID_ARGUMENT",
		}})
		return
	}

	voice := ""
	if sc := msg.Setup.GenerationConfig.SpeechConfig; sc != nil {
		voice = sc.VoiceConfig.PrebuiltVoiceConfig.VoiceName
	}
	log.Printf("Setup on %s: model=%s voice=%s", c.id, msg.Setup.Model, voice)

	s.mu.Lock()
	s.stats.Setups++
	s.stats.LastModel = msg.Setup.Model
	s.stats.LastVoice = voice
	s.mu.Unlock()

	if err := s.send(c, protocol.ServerMessage{SetupComplete: &protocol.SetupComplete{}}); err != nil {
		log.Printf("Error sending setupComplete: %v", err)
		return
	}

	if s.config.Greeting {
		s.startTurn(c)
	}

	audioChunks := 0
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		msg, err := protocol.DecodeClientMessage(data)
		if err != nil || msg.RealtimeInput == nil {
			log.Printf("Ignoring unexpected client message on %s", c.id)
			continue
		}

		for _, chunk := range msg.RealtimeInput.MediaChunks {
			if !strings.HasPrefix(chunk.MimeType, "audio/") {
				s.mu.Lock()
				s.stats.MediaChunks++
				s.mu.Unlock()
				continue
			}

			s.mu.Lock()
			s.stats.AudioChunks++
			s.mu.Unlock()

			audioChunks++
			if s.config.TurnEvery > 0 && audioChunks%s.config.TurnEvery == 0 {
				s.startTurn(c)
			}
		}
	}
}

// startTurn streams one reply in the background. Turns on a connection
// never interleave.
func (s *Server) startTurn(c *connection) {
	if s.config.Silent {
		return
	}
	c.turns.Add(1)
	go func() {
		defer c.turns.Done()
		c.turnMu.Lock()
		defer c.turnMu.Unlock()
		if err := s.sendTurn(c); err != nil {
			log.Printf("Turn on %s aborted: %v", c.id, err)
		}
	}()
}

func (s *Server) sendTurn(c *connection) error {
	mimeType := audio.PCMMimeType(audio.OutputSampleRate)

	for i := 0; i < s.config.ChunksPerTurn; i++ {
		chunk := base64.StdEncoding.EncodeToString(c.tone.next(s.config.ChunkSamples))
		msg := protocol.ServerMessage{ServerContent: &protocol.ServerContent{
			ModelTurn: &protocol.Content{
				Role:  "model",
				Parts: []protocol.Part{{InlineData: &protocol.Blob{MimeType: mimeType, Data: chunk}}},
			},
		}}
		if err := s.send(c, msg); err != nil {
			return err
		}
		if s.config.Pace > 0 {
			time.Sleep(s.config.Pace)
		}
	}

	if s.config.Transcript != "" {
		msg := protocol.ServerMessage{ServerContent: &protocol.ServerContent{
			OutputTranscription: &protocol.Transcription{Text: s.config.Transcript},
		}}
		if err := s.send(c, msg); err != nil {
			return err
		}
	}

	if err := s.send(c, protocol.ServerMessage{ServerContent: &protocol.ServerContent{TurnComplete: true}}); err != nil {
		return err
	}

	s.mu.Lock()
	s.stats.Turns++
	s.mu.Unlock()
	return nil
}

// send writes msg as a binary frame, the way the service does
func (s *Server) send(c *connection, msg protocol.ServerMessage) error {
	data, err := protocol.Marshal(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.BinaryMessage, data)
}

// Interrupt tells every client that the current turn was cut off
func (s *Server) Interrupt() {
	for _, c := range s.connections() {
		if err := s.send(c, protocol.ServerMessage{ServerContent: &protocol.ServerContent{Interrupted: true}}); err != nil {
			log.Printf("Error sending interrupt to %s: %v", c.id, err)
		}
	}
}

// DropAll closes every open connection without a close handshake
func (s *Server) DropAll() {
	for _, c := range s.connections() {
		_ = c.ws.Close()
	}
}

func (s *Server) connections() []*connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	conns := make([]*connection, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	return conns
}

// Stats returns a snapshot of the traffic counters
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Open returns the number of live connections
func (s *Server) Open() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
