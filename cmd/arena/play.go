package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/arena-sync/internal/client"
	"github.com/vovakirdan/arena-sync/internal/platform/tui"
	"github.com/vovakirdan/arena-sync/internal/storage"
)

const defaultPlayLog = "~/.arena/arena.log"

var (
	flagName    string
	flagSkin    uint8
	flagMetrics string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Join a match",
	Long: `Connect to a game server and play with the terminal UI.

Outside dev mode the server is picked by the load balancer (or the fastest
of the configured regions). The connection is retried until you quit.

Controls:
  Arrows/hjkl  - Move the cursor
  1-5          - Pick mine, barracks, turret, wall or healer
  Enter/Space  - Place the building under the cursor
  x / u        - Sell / upgrade the building under the cursor
  s            - Toggle unit spawning of a barracks
  a / m        - Select units near the cursor / send them to the cursor
  t            - Chat
  r            - Ask the server for a full resync
  Q/Ctrl+C     - Quit

Logs go to ~/.arena/arena.log unless --log-file is set, since the terminal
belongs to the UI.

Examples:
  arena play
  arena play --name ada --skin 3
  arena play --dev --server ws://localhost:8080/ws
  arena play --metrics :9100`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagName, "name", "", "Player name (default: from config)")
	playCmd.Flags().Uint8Var(&flagSkin, "skin", 0, "Base skin ID")
	playCmd.Flags().StringVar(&flagMetrics, "metrics", "", "Serve Prometheus metrics on this address")
}

func runPlay(cmd *cobra.Command, _ []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		exitf("Error: %v", err)
	}
	if flagName != "" {
		cfg.Player.Name = flagName
	}
	if cmd.Flags().Changed("skin") {
		cfg.Player.Skin = flagSkin
	}
	if flagMetrics != "" {
		cfg.Metrics.Address = flagMetrics
	}
	if cfg.Log.File == "" {
		cfg.Log.File = defaultPlayLog
	}
	if cfg.Log.File, err = storage.ExpandHome(cfg.Log.File); err != nil {
		exitf("Error: %v", err)
	}

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	view := tui.NewArenaView(width, height)
	c, err := client.New(cfg, client.Options{Renderer: view})
	if err != nil {
		exitf("Error creating client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	runErr := tui.Run(ctx, c.Manager(), view, c.Run, width, height, cfg.Network.TickRate/2)
	stop()

	if err := c.Close(); err != nil {
		c.Logger().Warn("close failed", "error", err)
	}
	if runErr != nil {
		exitf("Error running client: %v", runErr)
	}
}
