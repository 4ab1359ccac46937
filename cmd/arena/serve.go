package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/arena-sync/internal/config"
	"github.com/vovakirdan/arena-sync/internal/devserver"
	"github.com/vovakirdan/arena-sync/internal/logging"
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the development game server",
	Long: `Start a local game server that speaks the client protocol, together
with the load balancer endpoints the client uses to find it.

Endpoints:
  GET  /ws          - Game websocket
  GET  /get-server  - Load balancer lookup
  HEAD /ping        - Latency probe
  GET  /check       - Fingerprint check
  GET  /metrics     - Prometheus metrics

Examples:
  arena serve                  # Listen on :8080
  arena serve --addr :9000     # Listen on port 9000

Clients can connect with:
  arena play --dev --server ws://localhost:8080/ws
  arena play                   # via the load balancer at lb_url`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "Listen address (default: devserver.address from config)")
}

func runServe(cmd *cobra.Command, _ []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		exitf("Error: %v", err)
	}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		exitf("Error: %v", err)
	}
	defer closer.Close()

	srvCfg := devServerConfig(cfg)
	if flagServeAddr != "" {
		srvCfg.Address = flagServeAddr
	}
	srv := devserver.New(srvCfg, logger)

	fmt.Printf("Starting arena dev server on %s\n", srvCfg.Address)
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		stop()
		closer.Close()
		os.Exit(1)
	}
}

// devServerConfig maps the devserver section onto the server settings. The
// map size is shared with the client so local placement checks agree.
func devServerConfig(cfg config.ClientConfig) devserver.Config {
	srvCfg := devserver.DefaultConfig()
	srvCfg.Address = cfg.DevServer.Address
	srvCfg.TickInterval = cfg.DevServer.TickInterval
	srvCfg.StartGold = cfg.DevServer.StartGold
	srvCfg.GoldPerTick = cfg.DevServer.GoldPerTick
	srvCfg.PublicURL = cfg.DevServer.PublicURL
	srvCfg.Width = cfg.Map.Width
	srvCfg.Height = cfg.Map.Height
	srvCfg.WriteTimeout = cfg.Network.WriteTimeout
	return srvCfg
}
