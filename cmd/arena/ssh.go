package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/arena-sync/internal/logging"
	"github.com/vovakirdan/arena-sync/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var sshCmd = &cobra.Command{
	Use:   "ssh",
	Short: "Host the arena client over SSH",
	Long: `Start an SSH server where every connection gets its own arena client.

The SSH user name becomes the player name. Sessions keep their skin cache in
memory, so each connection is a fresh player to the game server.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.arena/host_key

Examples:
  arena ssh                              # Listen on :23234 with auto-generated key
  arena ssh --ssh :2222                  # Listen on port 2222
  arena ssh --dev --server ws://localhost:8080/ws

Users can connect with:
  ssh ada@localhost -p 23234`,
	Args: cobra.NoArgs,
	Run:  runSSH,
}

func init() {
	sshCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	sshCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	sshCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
}

func runSSH(cmd *cobra.Command, _ []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		exitf("Error: %v", err)
	}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		exitf("Error: %v", err)
	}
	defer closer.Close()

	srvCfg := tui.SSHServerConfig{
		Address:     flagSSHAddr,
		HostKeyPath: flagHostKey,
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
		Client:      cfg,
	}
	server, err := tui.NewSSHServer(srvCfg, logger)
	if err != nil {
		exitf("Error creating server: %v", err)
	}

	fmt.Printf("Starting arena SSH server on %s\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.ListenAndServe(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		stop()
		closer.Close()
		os.Exit(1)
	}
}
