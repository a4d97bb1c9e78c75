package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/squadboard/internal/apitest"
	"github.com/five82/squadboard/internal/banana"
)

type recordingSink struct {
	mu       sync.Mutex
	statuses []bool
	events   []banana.Event
	notify   chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{notify: make(chan struct{}, 64)}
}

func (s *recordingSink) Status(connected bool) {
	s.mu.Lock()
	s.statuses = append(s.statuses, connected)
	s.mu.Unlock()
	s.notify <- struct{}{}
}

func (s *recordingSink) Event(ev banana.Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	s.notify <- struct{}{}
}

func (s *recordingSink) snapshot() ([]bool, []banana.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.statuses...), append([]banana.Event(nil), s.events...)
}

type fakeConn struct {
	frames [][]byte
	closed bool
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	if len(c.frames) == 0 {
		return 0, nil, errors.New("connection reset")
	}
	frame := c.frames[0]
	c.frames = c.frames[1:]
	return websocket.TextMessage, frame, nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

// scriptedDialer returns conns in order, then errors. It cancels the run
// after the given number of attempts.
type scriptedDialer struct {
	conns    []Conn
	attempts int
	stopAt   int
	cancel   context.CancelFunc
}

func (d *scriptedDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.attempts++
	if d.attempts >= d.stopAt {
		d.cancel()
	}
	if len(d.conns) > 0 {
		c := d.conns[0]
		d.conns = d.conns[1:]
		return c, nil
	}
	return nil, errors.New("connection refused")
}

func TestManager_RetriesOncePerDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dialer := &scriptedDialer{stopAt: 4, cancel: cancel}
	m := New("ws://example.invalid/ws", WithDialer(dialer))

	var waits []time.Duration
	m.after = func(d time.Duration) <-chan time.Time {
		waits = append(waits, d)
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}

	sink := newRecordingSink()
	require.NoError(t, m.Run(ctx, sink))

	assert.Equal(t, 4, dialer.attempts)
	assert.Equal(t, []time.Duration{DefaultReconnectDelay, DefaultReconnectDelay, DefaultReconnectDelay}, waits)
	statuses, _ := sink.snapshot()
	assert.Equal(t, []bool{false, false, false}, statuses, "each failed dial reports disconnected")
}

func TestManager_DeliversEventsAndDropsMalformed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn := &fakeConn{frames: [][]byte{
		[]byte(`{"type":"job_started","job_id":"abc","data":{"prompt":"a cat"}}`),
		[]byte(`not json`),
		[]byte(`{"type":"stage_changed"}`),
		[]byte(`{"type":"stage_changed","job_id":"abc","data":{"stage":"generating"}}`),
	}}
	dialer := &scriptedDialer{conns: []Conn{conn}, stopAt: 2, cancel: cancel}
	m := New("ws://example.invalid/ws", WithDialer(dialer), WithDelay(time.Millisecond))
	m.after = func(time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}

	sink := newRecordingSink()
	require.NoError(t, m.Run(ctx, sink))

	statuses, events := sink.snapshot()
	assert.Equal(t, []bool{true, false}, statuses)
	require.Len(t, events, 2)
	assert.Equal(t, banana.EventJobStarted, events[0].Type)
	assert.Equal(t, banana.EventStageChanged, events[1].Type)
	assert.True(t, conn.closed)
}

func TestManager_ReconnectsToLiveServer(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	client, err := banana.NewClient(srv.URL, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := New(client.StreamURL(), WithDelay(10*time.Millisecond))
	sink := newRecordingSink()
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, sink) }()

	require.True(t, srv.WaitStream(2*time.Second))
	require.NoError(t, srv.Broadcast(banana.Event{Type: banana.EventJobStarted, JobID: "abc"}))
	waitFor(t, sink, func(_ []bool, events []banana.Event) bool { return len(events) == 1 })

	srv.DropStreams()
	require.True(t, srv.WaitStream(2*time.Second), "manager did not reconnect")
	require.NoError(t, srv.Broadcast(banana.Event{Type: banana.EventJobCompleted, JobID: "abc"}))
	waitFor(t, sink, func(_ []bool, events []banana.Event) bool { return len(events) == 2 })

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	statuses, _ := sink.snapshot()
	assert.Equal(t, []bool{true, false, true, false}, statuses)
}

func waitFor(t *testing.T, sink *recordingSink, cond func([]bool, []banana.Event) bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond(sink.snapshot()) {
			return
		}
		select {
		case <-sink.notify:
		case <-deadline:
			t.Fatal("timed out waiting for stream")
		}
	}
}
