// Package network keeps the local match state in sync with the game server.
//
// A Manager owns the connection lifecycle, decodes every inbound frame into
// the state store and turns user intents into commands. All of its state is
// touched by a single goroutine (Run); other goroutines hand it work through
// Do. Timers are deadlines checked on every simulation tick, so tests drive
// the manager with explicit times instead of sleeping.
package network

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vovakirdan/arena-sync/internal/hooks"
	"github.com/vovakirdan/arena-sync/internal/logging"
	"github.com/vovakirdan/arena-sync/internal/prediction"
	"github.com/vovakirdan/arena-sync/internal/skins"
	"github.com/vovakirdan/arena-sync/internal/state"
	"github.com/vovakirdan/arena-sync/internal/transport"
	"github.com/vovakirdan/arena-sync/internal/wire"
)

// TracerName is the OpenTelemetry instrumentation name.
const TracerName = "github.com/vovakirdan/arena-sync/internal/network"

// ErrNotOpen is returned by intents issued while the connection is down.
var ErrNotOpen = errors.New("network: connection not open")

// State is the connection lifecycle state.
type State int

const (
	Disconnected State = iota
	Connecting
	Open
	// Closing is terminal: Run has returned and the socket is being torn
	// down. No reconnect is scheduled from it.
	Closing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closing:
		return "closing"
	default:
		return "disconnected"
	}
}

// Config holds the manager timings.
type Config struct {
	ReconnectDelay time.Duration
	ResyncTimeout  time.Duration
	TickInterval   time.Duration
	StatusInterval time.Duration
	LookupTimeout  time.Duration
	InboxSize      int
	// Dev marks attempts that skip the load balancer. Only used for tracing.
	Dev bool
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay: 3000 * time.Millisecond,
		ResyncTimeout:  2000 * time.Millisecond,
		TickInterval:   time.Second / 60,
		StatusInterval: 250 * time.Millisecond,
		LookupTimeout:  5 * time.Second,
		InboxSize:      256,
	}
}

// Transport is the socket owner the manager drives. *transport.Worker
// implements it.
type Transport interface {
	Connect(url string)
	Send(frame []byte)
	Close()
	Events() <-chan transport.Event
}

// Renderer draws the store once per tick. pending is the optimistic
// placement, or nil.
type Renderer interface {
	Render(store *state.Store, pending *state.Building)
}

// Deps are the collaborators of a Manager. Transport, Resolver and Store are
// required; everything else has a default.
type Deps struct {
	Transport  Transport
	Resolver   Resolver
	Store      *state.Store
	Prediction *prediction.Cache
	Skins      *skins.Cache
	Hub        *hooks.Hub
	Metrics    *Metrics
	Logger     *log.Logger
	Renderer   Renderer
	Tracer     trace.Tracer
	Clock      func() time.Time
}

type message interface {
	apply(m *Manager, now time.Time)
}

type doMsg func(*Manager)

func (fn doMsg) apply(m *Manager, _ time.Time) { fn(m) }

type resolvedMsg struct {
	attempt int
	url     string
	err     error
}

func (r resolvedMsg) apply(m *Manager, now time.Time) { m.onResolved(r, now) }

// Manager is the client's network manager.
type Manager struct {
	config    Config
	transport Transport
	resolver  Resolver
	store     *state.Store
	cache     *prediction.Cache
	skins     *skins.Cache
	hub       *hooks.Hub
	metrics   *Metrics
	logger    *log.Logger
	renderer  Renderer
	tracer    trace.Tracer
	clock     func() time.Time

	inbox   chan message
	stopped chan struct{}
	ctx     context.Context

	state       State
	attempt     int
	conn        uint64
	url         string
	span        trace.Span
	reconnectAt time.Time
	resyncAt    time.Time
	join        *wire.Join
	lastStatus  time.Time
}

// New creates a manager. It does nothing until Start or Run.
func New(cfg Config, deps Deps) *Manager {
	def := DefaultConfig()
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = def.ReconnectDelay
	}
	if cfg.ResyncTimeout <= 0 {
		cfg.ResyncTimeout = def.ResyncTimeout
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = def.StatusInterval
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = def.LookupTimeout
	}
	if cfg.InboxSize < 1 {
		cfg.InboxSize = def.InboxSize
	}

	m := &Manager{
		config:    cfg,
		transport: deps.Transport,
		resolver:  deps.Resolver,
		store:     deps.Store,
		cache:     deps.Prediction,
		skins:     deps.Skins,
		hub:       deps.Hub,
		metrics:   deps.Metrics,
		logger:    logging.Or(deps.Logger).WithPrefix(logging.PrefixNet),
		renderer:  deps.Renderer,
		tracer:    deps.Tracer,
		clock:     deps.Clock,
		inbox:     make(chan message, cfg.InboxSize),
		stopped:   make(chan struct{}),
		ctx:       context.Background(),
	}
	if m.cache == nil {
		m.cache = prediction.New()
	}
	if m.skins == nil {
		m.skins = skins.New(nil)
	}
	if m.hub == nil {
		m.hub = hooks.NewHub()
	}
	if m.metrics == nil {
		m.metrics = NewMetrics(nil)
	}
	if m.tracer == nil {
		m.tracer = otel.Tracer(TracerName)
	}
	if m.clock == nil {
		m.clock = time.Now
	}
	return m
}

// Store returns the state store. Only touch it from the manager goroutine.
func (m *Manager) Store() *state.Store { return m.store }

// Prediction returns the placement prediction cache.
func (m *Manager) Prediction() *prediction.Cache { return m.cache }

// Hub returns the notification hub.
func (m *Manager) Hub() *hooks.Hub { return m.hub }

// State returns the lifecycle state.
func (m *Manager) State() State { return m.state }

// Attempt returns the number of connection attempts so far.
func (m *Manager) Attempt() int { return m.attempt }

// Do runs fn on the manager goroutine. It returns false if the manager has
// stopped.
func (m *Manager) Do(fn func(*Manager)) bool {
	return m.post(doMsg(fn))
}

func (m *Manager) post(msg message) bool {
	select {
	case <-m.stopped:
		return false
	default:
	}
	select {
	case m.inbox <- msg:
		return true
	case <-m.stopped:
		return false
	}
}

// Run starts the first connection attempt and processes transport events,
// posted work and simulation ticks until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	m.ctx = ctx
	defer close(m.stopped)

	ticker := time.NewTicker(m.config.TickInterval)
	defer ticker.Stop()

	last := m.clock()
	m.Start(last)

	events := m.transport.Events()
	for {
		select {
		case <-ctx.Done():
			m.shutdown(ctx.Err())
			return ctx.Err()
		case ev := <-events:
			m.HandleTransport(ev, m.clock())
		case msg := <-m.inbox:
			msg.apply(m, m.clock())
		case <-ticker.C:
			now := m.clock()
			m.Tick(now, now.Sub(last))
			last = now
		}
	}
}

// Start begins a connection attempt unless one is already running or open.
// Address resolution runs off the manager goroutine and reports back
// through the inbox.
func (m *Manager) Start(now time.Time) {
	if m.state != Disconnected {
		return
	}
	m.state = Connecting
	m.attempt++
	m.reconnectAt = time.Time{}
	m.metrics.ConnectAttempts.Inc()

	m.endSpan(errors.New("superseded"))
	_, m.span = m.tracer.Start(m.ctx, "arena.connect", trace.WithAttributes(
		attribute.Int("attempt", m.attempt),
		attribute.Bool("dev", m.config.Dev),
	))
	m.logger.Debug("connecting", "attempt", m.attempt)

	attempt := m.attempt
	ctx := m.ctx
	resolver := m.resolver
	timeout := m.config.LookupTimeout
	go func() {
		rctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		url, err := resolver.Resolve(rctx)
		m.post(resolvedMsg{attempt: attempt, url: url, err: err})
	}()
}

func (m *Manager) onResolved(r resolvedMsg, now time.Time) {
	if r.attempt != m.attempt || m.state != Connecting {
		return
	}
	if r.err != nil {
		m.logger.Warn("server lookup failed", "attempt", r.attempt, "error", r.err)
		m.disconnect(now, r.err)
		return
	}
	m.url = r.url
	if m.span != nil {
		m.span.SetAttributes(attribute.String("url", r.url))
	}
	m.transport.Connect(r.url)
}

// HandleTransport applies one worker event. Events from a connection
// generation older than the newest one seen are ignored.
func (m *Manager) HandleTransport(ev transport.Event, now time.Time) {
	switch e := ev.(type) {
	case transport.Connected:
		if e.Conn < m.conn {
			return
		}
		m.conn = e.Conn
		if m.state != Connecting {
			return
		}
		m.open(e.URL, now)

	case transport.Failed:
		if e.Conn < m.conn {
			return
		}
		m.conn = e.Conn
		if m.state == Connecting {
			m.disconnect(now, e.Err)
		}

	case transport.Disconnected:
		if e.Conn != m.conn || m.state != Open {
			return
		}
		err := e.Err
		if err == nil {
			err = errors.New("closed")
		}
		m.disconnect(now, err)

	case transport.Message:
		if e.Conn != m.conn || m.state != Open {
			return
		}
		m.HandleFrame(e.Data, now)
	}
}

func (m *Manager) open(url string, now time.Time) {
	m.state = Open
	m.url = url
	m.resyncAt = now.Add(m.config.ResyncTimeout)
	m.skins.ForgetRequests()
	m.metrics.Connections.Inc()
	m.metrics.Open.Set(1)
	m.endSpan(nil)
	m.logger.Info("connection open", "url", url, "attempt", m.attempt)
	m.hub.Publish(hooks.ConnectionChanged{Open: true, Attempt: m.attempt, URL: url})

	if m.join != nil {
		m.send(*m.join)
	}
}

func (m *Manager) disconnect(now time.Time, err error) {
	wasOpen := m.state == Open
	m.state = Disconnected
	m.resyncAt = time.Time{}
	m.reconnectAt = now.Add(m.config.ReconnectDelay)
	m.cache.Reset()
	m.store.Placements = 0
	m.metrics.Disconnects.Inc()
	m.metrics.Open.Set(0)
	m.endSpan(err)

	if wasOpen {
		m.logger.Warn("connection lost", "url", m.url, "error", err, "retry_in", m.config.ReconnectDelay)
	} else {
		m.logger.Warn("connection attempt failed", "attempt", m.attempt, "error", err, "retry_in", m.config.ReconnectDelay)
	}
	m.hub.Publish(hooks.ConnectionChanged{Open: false, Attempt: m.attempt, URL: m.url})
}

// shutdown moves to Closing and closes the socket.
func (m *Manager) shutdown(err error) {
	wasOpen := m.state == Open
	m.state = Closing
	m.reconnectAt = time.Time{}
	m.resyncAt = time.Time{}
	m.cache.Reset()
	m.metrics.Open.Set(0)
	m.endSpan(err)
	m.transport.Close()
	m.logger.Debug("closing", "was_open", wasOpen)
	if wasOpen {
		m.hub.Publish(hooks.ConnectionChanged{Open: false, Attempt: m.attempt, URL: m.url})
	}
}

func (m *Manager) endSpan(err error) {
	if m.span == nil {
		return
	}
	if err != nil {
		m.span.RecordError(err)
		m.span.SetStatus(codes.Error, err.Error())
	} else {
		m.span.SetStatus(codes.Ok, "")
	}
	m.span.End()
	m.span = nil
}

// Update checks every deadline against now: the reconnect delay, the resync
// watchdog and the prediction grace period.
func (m *Manager) Update(now time.Time) {
	if m.state == Disconnected && !m.reconnectAt.IsZero() && !now.Before(m.reconnectAt) {
		m.reconnectAt = time.Time{}
		m.Start(now)
	}

	if m.state == Open && !m.resyncAt.IsZero() && !now.Before(m.resyncAt) {
		m.logger.Debug("no resource update, requesting resync", "timeout", m.config.ResyncTimeout)
		m.requestResync("watchdog", now)
	}

	switch m.cache.Expire(now) {
	case prediction.Expired:
		m.metrics.Predictions.WithLabelValues("expired").Inc()
		m.logger.Debug("placement prediction expired")
	case prediction.Cleared:
		m.metrics.Predictions.WithLabelValues("cleared").Inc()
	}
}

// Tick runs one simulation step: deadlines, interpolation, status and
// rendering.
func (m *Manager) Tick(now time.Time, dt time.Duration) {
	m.Update(now)
	m.store.Update(dt)
	if now.Sub(m.lastStatus) >= m.config.StatusInterval {
		m.lastStatus = now
		m.hub.Publish(m.Status())
	}
	if m.renderer != nil {
		m.renderer.Render(m.store, m.cache.Pending())
	}
}

// Status summarises the match for status views.
func (m *Manager) Status() hooks.Status {
	s := hooks.Status{
		Open:       m.state == Open,
		LocalID:    m.store.LocalID,
		HasLocal:   m.store.HasLocal,
		Gold:       m.store.Gold,
		Tick:       m.store.Tick,
		Players:    m.store.Players.Len(),
		Neutral:    m.store.Neutral.Len(),
		Placements: m.store.Placements,
		Pending:    m.cache.Pending() != nil,
		Chat:       m.store.Chat.Lines(),
	}
	if b, ok := m.store.LocalBase(); ok {
		s.LocalName = b.Name
	}
	count := func(_ uint8, b *state.Base) {
		s.Buildings += b.Buildings.Len()
		s.Units += b.Units.Len()
		s.Bullets += b.Bullets.Len()
	}
	m.store.Players.Each(count)
	m.store.Neutral.Each(count)
	return s
}

func (m *Manager) requestResync(reason string, now time.Time) {
	m.resyncAt = now.Add(m.config.ResyncTimeout)
	if m.send(wire.ResyncRequest{}) == nil {
		m.metrics.Resyncs.WithLabelValues(reason).Inc()
	}
}

// send encodes cmd and hands it to the transport. Nothing is sent unless the
// connection is open.
func (m *Manager) send(cmd wire.Command) error {
	tag := cmd.Tag().String()
	if m.state != Open {
		m.metrics.CommandsDropped.WithLabelValues(tag).Inc()
		return ErrNotOpen
	}
	m.transport.Send(wire.EncodeCommand(cmd))
	m.metrics.CommandsSent.WithLabelValues(tag).Inc()
	return nil
}
