// Package devserver is a small authoritative game server speaking the arena
// wire protocol, plus the load balancer endpoints the client resolves
// servers through. It exists for local development and integration tests.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vovakirdan/arena-sync/internal/lb"
	"github.com/vovakirdan/arena-sync/internal/logging"
)

// Config holds server settings.
type Config struct {
	Address      string
	TickInterval time.Duration
	StartGold    uint32
	GoldPerTick  uint32
	// PublicURL is returned by /get-server. Derived from the request host
	// when empty.
	PublicURL string
	Width     float64
	Height    float64
	// SpawnEvery is the number of ticks between units of an active barracks.
	SpawnEvery   int
	MaxUnits     int
	SendBuffer   int
	WriteTimeout time.Duration
	ReadLimit    int64
}

// DefaultConfig returns the standard dev server settings.
func DefaultConfig() Config {
	return Config{
		Address:      ":8080",
		TickInterval: 100 * time.Millisecond,
		StartGold:    500,
		GoldPerTick:  1,
		Width:        4000,
		Height:       4000,
		SpawnEvery:   30,
		MaxUnits:     50,
		SendBuffer:   256,
		WriteTimeout: 5 * time.Second,
		ReadLimit:    1 << 16,
	}
}

type metrics struct {
	sessions  prometheus.Gauge
	players   prometheus.Gauge
	commands  *prometheus.CounterVec
	malformed prometheus.Counter
	ticks     prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	const ns, sub = "arena", "dev"
	return &metrics{
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub,
			Name: "sessions",
			Help: "Open websocket sessions",
		}),
		players: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub,
			Name: "players",
			Help: "Joined players",
		}),
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "commands_total",
			Help: "Commands received, by tag",
		}, []string{"tag"}),
		malformed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "malformed_commands_total",
			Help: "Frames that failed to decode",
		}),
		ticks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "ticks_total",
			Help: "Server ticks",
		}),
	}
}

// Server serves the game socket and the load balancer API.
type Server struct {
	config   Config
	logger   *log.Logger
	registry *prometheus.Registry
	game     *Game
	upgrader websocket.Upgrader
	router   chi.Router

	nextSession atomic.Uint64
}

// New creates a server. Zero config fields take their defaults.
func New(cfg Config, logger *log.Logger) *Server {
	def := DefaultConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.SpawnEvery <= 0 {
		cfg.SpawnEvery = def.SpawnEvery
	}
	if cfg.MaxUnits <= 0 {
		cfg.MaxUnits = def.MaxUnits
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = def.ReadLimit
	}

	logger = logging.Or(logger).WithPrefix(logging.PrefixDev)
	reg := prometheus.NewRegistry()
	s := &Server{
		config:   cfg,
		logger:   logger,
		registry: reg,
		game:     newGame(cfg, logger, newMetrics(reg)),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWS)
	r.Get(lb.PathGetServer, s.handleGetServer)
	r.Head(lb.PathPing, s.handlePing)
	r.Get(lb.PathPing, s.handlePing)
	r.Get(lb.PathCheck, s.handleCheck)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

// Handler returns the HTTP handler. Start must be called for the game to
// tick.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Game returns the match.
func (s *Server) Game() *Game {
	return s.game
}

// Start runs the game loop.
func (s *Server) Start() {
	s.game.Start()
}

// Stop halts the game loop and closes every session.
func (s *Server) Stop() {
	s.game.Stop()
}

// ListenAndServe serves on the configured address until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.Start()
	defer s.Stop()

	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("dev server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	id := SessionID(s.nextSession.Add(1))
	sess := newSession(id, ws, s.config.SendBuffer, s.config.WriteTimeout)
	s.logger.Debug("session opened", "session", id, "remote", r.RemoteAddr)

	s.game.Send(connectMsg{session: sess})
	go sess.writePump()
	go sess.readPump(s.game, s.config.ReadLimit)
}

func (s *Server) handleGetServer(w http.ResponseWriter, r *http.Request) {
	addr := s.config.PublicURL
	if addr == "" {
		addr = "ws://" + r.Host + "/ws"
	}
	writeJSON(w, lb.ServerResponse{ServerAddress: addr})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	fp, err := strconv.ParseUint(r.URL.Query().Get("fingerprint"), 10, 32)
	if err != nil {
		http.Error(w, "invalid fingerprint", http.StatusBadRequest)
		return
	}
	writeJSON(w, lb.CheckResponse{Valid: s.game.KnownFingerprint(uint32(fp))})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
