package transport

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/arena-sync/internal/logging"
	"github.com/vovakirdan/arena-sync/internal/wire"
)

// Config holds worker timings and mailbox size.
type Config struct {
	HeartbeatInterval time.Duration
	HandshakeTimeout  time.Duration
	WriteTimeout      time.Duration
	MailboxSize       int
	ReadLimit         int64
}

// DefaultConfig returns the standard worker settings.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 10 * time.Second,
		HandshakeTimeout:  5 * time.Second,
		WriteTimeout:      5 * time.Second,
		MailboxSize:       256,
		ReadLimit:         1 << 20,
	}
}

// Dialer opens websocket connections. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Stats are running counters, safe to read from any goroutine.
type Stats struct {
	Sent       int64
	Dropped    int64
	Heartbeats int64
	Received   int64
}

type command interface{ isCommand() }

type connectCmd struct{ url string }
type sendCmd struct{ data []byte }
type closeCmd struct{}

func (connectCmd) isCommand() {}
func (sendCmd) isCommand()    {}
func (closeCmd) isCommand()   {}

type connection struct {
	ws      *websocket.Conn
	gen     uint64
	closing atomic.Bool
}

// Worker owns at most one websocket at a time.
type Worker struct {
	config Config
	dialer Dialer
	logger *log.Logger

	inbox    chan command
	events   chan Event
	done     chan struct{}
	stopOnce sync.Once

	sent       atomic.Int64
	dropped    atomic.Int64
	heartbeats atomic.Int64
	received   atomic.Int64

	// Owned by the run loop.
	conn *connection
	gen  uint64
}

// NewWorker creates a worker. A nil dialer uses a websocket.Dialer with the
// configured handshake timeout.
func NewWorker(cfg Config, dialer Dialer, logger *log.Logger) *Worker {
	if cfg.MailboxSize < 1 {
		cfg.MailboxSize = DefaultConfig().MailboxSize
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultConfig().HeartbeatInterval
	}
	if dialer == nil {
		dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		}
	}
	return &Worker{
		config: cfg,
		dialer: dialer,
		logger: logging.Or(logger),
		inbox:  make(chan command, cfg.MailboxSize),
		events: make(chan Event, cfg.MailboxSize),
		done:   make(chan struct{}),
	}
}

// Start runs the worker loop until ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop shuts the worker down and closes any open socket.
// Safe to call multiple times.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

// Events returns the outbound mailbox.
func (w *Worker) Events() <-chan Event {
	return w.events
}

// Connect closes any open socket and dials url.
func (w *Worker) Connect(url string) {
	w.post(connectCmd{url: url})
}

// Close closes the open socket, if any.
func (w *Worker) Close() {
	w.post(closeCmd{})
}

// Send queues a frame for the open socket. Frames are dropped when the
// mailbox is full or no socket is open.
func (w *Worker) Send(frame []byte) {
	select {
	case w.inbox <- sendCmd{data: frame}:
	case <-w.done:
	default:
		w.dropped.Add(1)
	}
}

// Stats returns a snapshot of the counters.
func (w *Worker) Stats() Stats {
	return Stats{
		Sent:       w.sent.Load(),
		Dropped:    w.dropped.Load(),
		Heartbeats: w.heartbeats.Load(),
		Received:   w.received.Load(),
	}
}

func (w *Worker) post(cmd command) {
	select {
	case w.inbox <- cmd:
	case <-w.done:
	}
}

func (w *Worker) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(w.config.HeartbeatInterval)
	defer ticker.Stop()
	defer w.closeConn()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-w.inbox:
			w.handle(ctx, cmd)
		case <-ticker.C:
			w.heartbeat()
		}
	}
}

func (w *Worker) handle(ctx context.Context, cmd command) {
	switch c := cmd.(type) {
	case connectCmd:
		w.dial(ctx, c.url)
	case sendCmd:
		if w.conn == nil {
			w.dropped.Add(1)
			return
		}
		w.write(c.data)
	case closeCmd:
		w.closeConn()
	}
}

// dial never reuses a socket: any open connection is closed first and the
// new one gets the next generation.
func (w *Worker) dial(ctx context.Context, url string) {
	w.closeConn()
	w.gen++
	gen := w.gen

	dctx := ctx
	if w.config.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, w.config.HandshakeTimeout)
		defer cancel()
	}

	w.logger.Debug("dialing", "url", url, "conn", gen)
	ws, _, err := w.dialer.DialContext(dctx, url, nil)
	if err != nil {
		w.logger.Warn("dial failed", "url", url, "conn", gen, "error", err)
		w.emit(ctx, Failed{Conn: gen, URL: url, Err: err})
		return
	}
	if w.config.ReadLimit > 0 {
		ws.SetReadLimit(w.config.ReadLimit)
	}

	c := &connection{ws: ws, gen: gen}
	w.conn = c
	w.logger.Info("connected", "url", url, "conn", gen)
	w.emit(ctx, Connected{Conn: gen, URL: url})
	go w.read(ctx, c)
}

// read relays frames in socket order. It is the only goroutine that emits
// Message and Disconnected for its connection, so Disconnected always comes
// last.
func (w *Worker) read(ctx context.Context, c *connection) {
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if c.closing.Load() {
				err = nil
			}
			w.emit(ctx, Disconnected{Conn: c.gen, Err: err})
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		w.received.Add(1)
		w.emit(ctx, Message{Conn: c.gen, Data: data})
	}
}

func (w *Worker) write(frame []byte) {
	c := w.conn
	if w.config.WriteTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
	}
	if err := c.ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		// The reader sees the broken socket and reports it.
		w.logger.Warn("write failed", "conn", c.gen, "error", err)
		_ = c.ws.Close()
		w.conn = nil
		w.dropped.Add(1)
		return
	}
	w.sent.Add(1)
}

func (w *Worker) heartbeat() {
	if w.conn == nil {
		return
	}
	w.heartbeats.Add(1)
	w.write(wire.EncodeCommand(wire.Heartbeat{}))
}

func (w *Worker) closeConn() {
	c := w.conn
	if c == nil {
		return
	}
	w.conn = nil
	c.closing.Store(true)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = c.ws.Close()
	w.logger.Debug("closed", "conn", c.gen)
}

func (w *Worker) emit(ctx context.Context, ev Event) {
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}
