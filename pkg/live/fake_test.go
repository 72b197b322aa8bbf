// ABOUTME: Test doubles for the live session
// ABOUTME: Provides in-memory connections and a scripted dialer
package live

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/PpiNeaPpLe/livevoice/pkg/protocol"
)

var errConnClosed = errors.New("connection closed")

type inbound struct {
	msgType int
	data    []byte
}

// fakeConn is an in-memory protocol.Conn
type fakeConn struct {
	inbox  chan inbound
	closed chan struct{}

	mu         sync.Mutex
	written    [][]byte
	closeCount int
	closeOnce  sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbox:  make(chan inbound, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case msg := <-c.inbox:
		return msg.msgType, msg.data, nil
	case <-c.closed:
		return 0, nil, errConnClosed
	}
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closeCount++
	c.mu.Unlock()
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) send(msgType int, data string) {
	c.inbox <- inbound{msgType: msgType, data: []byte(data)}
}

func (c *fakeConn) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCount
}

func (c *fakeConn) Written() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.written...)
}

// dialResult is one scripted outcome; a nil conn with nil err fails the dial
type dialResult struct {
	conn *fakeConn
	err  error
}

// fakeDialer hands out scripted results in order and fails once they run out
type fakeDialer struct {
	mu      sync.Mutex
	results []dialResult
	dials   int
}

func (d *fakeDialer) Dial(_ context.Context, _ string) (protocol.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials++
	if len(d.results) == 0 {
		return nil, errors.New("no scripted connection")
	}
	r := d.results[0]
	d.results = d.results[1:]
	if r.conn == nil {
		if r.err == nil {
			r.err = errors.New("dial refused")
		}
		return nil, r.err
	}
	return r.conn, nil
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// waitFor polls cond until it holds or the test times out
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func waitState(t *testing.T, s *Session, want State) {
	t.Helper()
	waitFor(t, "state "+want.String(), func() bool {
		return s.Status().State == want
	})
}

// fakeSink records router output
type fakeSink struct {
	chunks     []string
	completes  int
	interrupts int
	failOn     string
}

func (f *fakeSink) AddChunk(chunk string) error {
	if chunk == f.failOn {
		return errors.New("bad chunk")
	}
	f.chunks = append(f.chunks, chunk)
	return nil
}

func (f *fakeSink) Complete() {
	f.completes++
}

func (f *fakeSink) Interrupt() {
	f.interrupts++
}

// countingObserver counts session events
type countingObserver struct {
	mu           sync.Mutex
	received     int
	dropped      int
	decodeErrors int
	reconnects   []int
	stale        int
}

func (o *countingObserver) MessageReceived() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.received++
}

func (o *countingObserver) MessageDropped() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropped++
}

func (o *countingObserver) DecodeError() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.decodeErrors++
}

func (o *countingObserver) StaleConnection() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stale++
}

func (o *countingObserver) Reconnecting(attempt int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reconnects = append(o.reconnects, attempt)
}

func (o *countingObserver) Stale() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stale
}

// audioMessage builds a serverContent message carrying n silent samples
func audioMessage(n int) string {
	data := base64.StdEncoding.EncodeToString(make([]byte, n*2))
	return `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"` + data + `"}}]}}}`
}
