// Package client assembles a running arena client from a ClientConfig: the
// skin cache on SQLite, the websocket worker, the server resolver, the state
// store, the prediction cache and the network manager that ties them
// together.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vovakirdan/arena-sync/internal/config"
	"github.com/vovakirdan/arena-sync/internal/core"
	"github.com/vovakirdan/arena-sync/internal/lb"
	"github.com/vovakirdan/arena-sync/internal/logging"
	"github.com/vovakirdan/arena-sync/internal/network"
	"github.com/vovakirdan/arena-sync/internal/prediction"
	"github.com/vovakirdan/arena-sync/internal/skins"
	"github.com/vovakirdan/arena-sync/internal/state"
	"github.com/vovakirdan/arena-sync/internal/storage"
	"github.com/vovakirdan/arena-sync/internal/transport"
)

var _ skins.KV = (*storage.Store)(nil)

// DefaultViewport is the camera viewport in world pixels.
var DefaultViewport = core.V(1280, 720)

// Options tune how a client is assembled.
type Options struct {
	// Logger replaces the logger built from the config. The client does not
	// close it.
	Logger *log.Logger
	// Renderer is called once per tick from the manager goroutine.
	Renderer network.Renderer
	// Registry collects client metrics. When nil a private registry is used.
	Registry *prometheus.Registry
	// Memory keeps skins and the fingerprint in memory instead of SQLite.
	Memory bool
	// Viewport overrides DefaultViewport.
	Viewport core.Vec
}

// Client is a fully wired arena client.
type Client struct {
	config   config.ClientConfig
	logger   *log.Logger
	registry *prometheus.Registry
	worker   *transport.Worker
	manager  *network.Manager
	skins    *skins.Cache
	closers  []io.Closer
}

// New builds a client. Nothing touches the network until Run.
func New(cfg config.ClientConfig, opts Options) (*Client, error) {
	c := &Client{config: cfg, registry: opts.Registry}

	c.logger = opts.Logger
	if c.logger == nil {
		logger, closer, err := logging.New(cfg.Log)
		if err != nil {
			return nil, err
		}
		c.logger = logger
		c.closers = append(c.closers, closer)
	}

	var kv skins.KV
	if !opts.Memory {
		store, err := storage.Open(cfg.Storage.DBPath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("client: %w", err)
		}
		kv = store
		c.closers = append(c.closers, store)
	}
	c.skins = skins.New(kv)

	if c.registry == nil {
		c.registry = prometheus.NewRegistry()
		c.registry.MustRegister(collectors.NewGoCollector())
	}

	c.worker = transport.NewWorker(transport.Config{
		HeartbeatInterval: cfg.Network.HeartbeatInterval,
		HandshakeTimeout:  cfg.Network.HandshakeTimeout,
		WriteTimeout:      cfg.Network.WriteTimeout,
		MailboxSize:       cfg.Network.MailboxSize,
		ReadLimit:         transport.DefaultConfig().ReadLimit,
	}, nil, c.logger)

	viewport := opts.Viewport
	if viewport == (core.Vec{}) {
		viewport = DefaultViewport
	}

	cache := prediction.New()
	cache.Grace = cfg.Prediction.Grace
	cache.ClearDelay = cfg.Prediction.ClearDelay

	c.manager = network.New(network.Config{
		ReconnectDelay: cfg.Network.ReconnectDelay,
		ResyncTimeout:  cfg.Network.ResyncTimeout,
		TickInterval:   cfg.TickInterval(),
		StatusInterval: cfg.Network.StatusInterval,
		LookupTimeout:  cfg.Network.LookupTimeout,
		InboxSize:      cfg.Network.MailboxSize,
		Dev:            cfg.Server.Dev,
	}, network.Deps{
		Transport:  c.worker,
		Resolver:   NewResolver(cfg),
		Store:      state.NewStore(cfg.MapBounds(), viewport),
		Prediction: cache,
		Skins:      c.skins,
		Metrics:    network.NewMetrics(c.registry),
		Logger:     c.logger,
		Renderer:   opts.Renderer,
	})
	return c, nil
}

// NewResolver picks the server resolver for the configured mode.
func NewResolver(cfg config.ClientConfig) network.Resolver {
	if cfg.Server.Dev {
		return network.StaticResolver(cfg.Server.URL)
	}
	return network.LBResolver{
		Client:  lb.NewClient(cfg.Network.LookupTimeout),
		URL:     cfg.Server.LBURL,
		Regions: cfg.Server.Regions,
	}
}

// Manager returns the network manager. Interact with it through Do once Run
// has started.
func (c *Client) Manager() *network.Manager { return c.manager }

// Skins returns the skin cache.
func (c *Client) Skins() *skins.Cache { return c.skins }

// Registry returns the metrics registry.
func (c *Client) Registry() *prometheus.Registry { return c.registry }

// Logger returns the client logger.
func (c *Client) Logger() *log.Logger { return c.logger }

// Run joins with the configured player, connects and blocks until ctx is
// cancelled. The metrics endpoint is served alongside when configured.
func (c *Client) Run(ctx context.Context) error {
	c.manager.Join(c.config.Player.Name, c.config.Player.Skin)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.worker.Start(ctx)
	defer c.worker.Stop()

	if addr := c.config.Metrics.Address; addr != "" {
		go c.serveMetrics(ctx, addr)
	}

	if !c.config.Server.Dev && c.config.Server.LBURL != "" {
		go c.logSession(ctx)
	}

	c.logger.Info("client starting", "player", c.config.Player.Name, "dev", c.config.Server.Dev)
	err := c.manager.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// CheckSession asks the load balancer whether this client's fingerprint
// belongs to a session it still knows. Dev mode has no load balancer and
// always reports false.
func (c *Client) CheckSession(ctx context.Context) (bool, error) {
	if c.config.Server.Dev || c.config.Server.LBURL == "" {
		return false, nil
	}
	fp, err := c.skins.Fingerprint()
	if err != nil {
		return false, err
	}
	return lb.NewClient(c.config.Network.LookupTimeout).CheckSession(ctx, c.config.Server.LBURL, fp)
}

func (c *Client) logSession(ctx context.Context) {
	returning, err := c.CheckSession(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("session check failed", "error", err)
		}
		return
	}
	c.logger.Info("session checked", "returning", returning)
}

func (c *Client) serveMetrics(ctx context.Context, addr string) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	c.logger.Info("metrics listening", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		c.logger.Error("metrics server failed", "error", err)
	}
}

// Close releases storage and the log file.
func (c *Client) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
