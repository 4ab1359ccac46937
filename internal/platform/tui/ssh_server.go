package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/arena-sync/internal/client"
	"github.com/vovakirdan/arena-sync/internal/config"
	"github.com/vovakirdan/arena-sync/internal/logging"
	"github.com/vovakirdan/arena-sync/internal/storage"
	"github.com/vovakirdan/arena-sync/internal/wire"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.arena/host_key.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// Client is the template every session's client is built from. The
	// player name is replaced by the SSH user.
	Client config.ClientConfig
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		IdleTimeout: 30 * time.Minute,
		Client:      config.DefaultClientConfig(),
	}
}

// SSHServer hosts one arena client per SSH session.
type SSHServer struct {
	config   SSHServerConfig
	server   *ssh.Server
	logger   *log.Logger
	sessions atomic.Int64
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig, logger *log.Logger) (*SSHServer, error) {
	srv := &SSHServer{
		config: cfg,
		logger: logging.Or(logger).WithPrefix(logging.PrefixSSH),
	}

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		hostKeyPath = "~/.arena/host_key"
	}
	hostKeyPath, err := storage.ExpandHome(hostKeyPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", err)
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}
	srv.server = server
	return srv, nil
}

// teaHandler builds a client and an arena screen for each SSH session. The
// client runs until the session context ends.
func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sess.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sess.User())
		return nil, nil
	}

	cfg := s.config.Client
	cfg.Player.Name = wire.TruncateUTF8(sess.User(), wire.NameSize)

	view := NewArenaView(pty.Window.Width, pty.Window.Height)
	c, err := client.New(cfg, client.Options{
		Logger:   s.logger.With("user", sess.User()),
		Renderer: view,
		Memory:   true,
	})
	if err != nil {
		s.logger.Error("cannot build client", "user", sess.User(), "error", err)
		return nil, nil
	}

	ctx := sess.Context()
	go func() {
		defer c.Close()
		if err := c.Run(ctx); err != nil {
			s.logger.Warn("client stopped", "user", sess.User(), "error", err)
		}
	}()

	model := NewModel(c.Manager(), view, pty.Window.Width, pty.Window.Height, cfg.Network.TickRate/2)
	return model, []tea.ProgramOption{tea.WithAltScreen(), tea.WithReportFocus()}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		active := s.sessions.Add(1)
		s.logger.Info("session started",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
			"active", active,
		)
		next(sess)
		active = s.sessions.Add(-1)
		s.logger.Info("session ended",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
			"active", active,
		)
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	errc := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}

// Sessions returns the number of connected sessions.
func (s *SSHServer) Sessions() int64 {
	return s.sessions.Load()
}
