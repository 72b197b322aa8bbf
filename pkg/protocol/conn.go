// ABOUTME: WebSocket transport for the Gemini Live endpoint
// ABOUTME: Dials the service and adapts gorilla connections to a small interface
package protocol

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/PpiNeaPpLe/livevoice/internal/version"
)

const (
	// DefaultEndpoint is the BidiGenerateContent WebSocket endpoint
	DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1alpha.GenerativeService.BidiGenerateContent"

	// TextMessage and BinaryMessage mirror the WebSocket frame types
	TextMessage   = websocket.TextMessage
	BinaryMessage = websocket.BinaryMessage

	defaultHandshakeTimeout = 10 * time.Second
)

// Conn is a message-oriented duplex connection. Reads and writes may run
// concurrently with each other but not with themselves.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens connections to the service
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// WebSocketDialer dials with gorilla/websocket
type WebSocketDialer struct {
	HandshakeTimeout time.Duration
}

// Dial opens a WebSocket connection to endpoint
func (d WebSocketDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}

	header := http.Header{}
	header.Set("User-Agent", version.UserAgent())

	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	log.Printf("Connected to %s", redact(endpoint))
	return conn, nil
}

// WriteJSON marshals v and writes it as a single text frame
func WriteJSON(conn Conn, v any) error {
	data, err := Marshal(v)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(TextMessage, data); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

// EndpointURL appends the API key to base
func EndpointURL(base, apiKey string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", base, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("invalid endpoint scheme %q", u.Scheme)
	}
	if apiKey != "" {
		q := u.Query()
		q.Set("key", apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// redact hides the API key when logging an endpoint
func redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
