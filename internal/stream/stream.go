package stream

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/five82/squadboard/internal/banana"
)

// DefaultReconnectDelay is the pause between connection attempts.
const DefaultReconnectDelay = 3 * time.Second

const handshakeTimeout = 10 * time.Second

// Conn is one open event stream.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	Close() error
}

// Dialer opens event stream connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Sink receives connection state changes and decoded events. Calls are made
// from the manager's goroutine, one at a time, in arrival order.
type Sink interface {
	Status(connected bool)
	Event(ev banana.Event)
}

// WebsocketDialer dials the pipeline's websocket endpoint.
type WebsocketDialer struct {
	Header http.Header
}

// Dial implements Dialer.
func (d WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, url, d.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Manager keeps at most one event stream open, reconnecting after a fixed
// delay whenever it closes or fails to open.
type Manager struct {
	url    string
	dialer Dialer
	delay  time.Duration
	logger zerolog.Logger
	after  func(time.Duration) <-chan time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithDialer replaces the websocket dialer.
func WithDialer(d Dialer) Option {
	return func(m *Manager) { m.dialer = d }
}

// WithDelay sets the reconnect delay. Non-positive values keep the default.
func WithDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// New returns a manager for the stream at url.
func New(url string, opts ...Option) *Manager {
	m := &Manager{
		url:    url,
		dialer: WebsocketDialer{},
		delay:  DefaultReconnectDelay,
		logger: zerolog.Nop(),
		after:  time.After,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// URL returns the stream address.
func (m *Manager) URL() string { return m.url }

// Run connects and delivers events to sink until ctx is cancelled. Attempts
// are serialized and retried indefinitely. It returns nil on cancellation.
func (m *Manager) Run(ctx context.Context, sink Sink) error {
	attempt := 0
	for {
		attempt++
		conn, err := m.dialer.Dial(ctx, m.url)
		switch {
		case err == nil:
			m.logger.Info().Str("url", m.url).Int("attempt", attempt).Msg("event stream connected")
			attempt = 0
			sink.Status(true)
			err = m.read(ctx, conn, sink)
			sink.Status(false)
			if ctx.Err() == nil {
				m.logger.Warn().Err(err).Str("url", m.url).Msg("event stream closed")
			}
		case ctx.Err() == nil:
			m.logger.Warn().Err(err).Str("url", m.url).Int("attempt", attempt).Dur("retry_in", m.delay).Msg("event stream connect failed")
			sink.Status(false)
		}

		if ctx.Err() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-m.after(m.delay):
		}
	}
}

// read pumps frames until the connection fails or ctx is cancelled.
func (m *Manager) read(ctx context.Context, conn Conn, sink Sink) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errors.New("closed by server")
			}
			return err
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		ev, err := banana.ParseEvent(data)
		if err != nil {
			m.logger.Warn().Err(err).Int("bytes", len(data)).Msg("dropping malformed event")
			continue
		}
		m.logger.Debug().Str("type", ev.Type).Str("job_id", ev.JobID).Msg("event")
		sink.Event(ev)
	}
}
