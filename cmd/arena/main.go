// arena is a terminal client for the multiplayer arena game, plus a local
// development server that speaks the same protocol.
//
// Usage:
//
//	arena play               - Join a match with the terminal UI
//	arena serve              - Start the development game server
//	arena ssh                - Host the client UI over SSH
//	arena list               - List building and unit kinds
//	arena skins              - Inspect or clear the skin cache
//
// Global flags:
//
//	--config <path>    - Client config YAML (default: search ~/.arena/configs, ./configs)
//	--fps <rate>       - Client tick rate (default: from config)
//	--db <path>        - Skin cache database (default: ~/.arena/arena.db)
//	--log-file <path>  - Write logs to a rotating file
//	--dev              - Connect straight to --server instead of the load balancer
//	--server <url>     - Game server websocket URL
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/arena-sync/internal/config"
)

var (
	// Global flags
	flagConfig  string
	flagFPS     int
	flagDBPath  string
	flagLogFile string
	flagDev     bool
	flagServer  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "arena",
	Short: "Arena - real-time strategy in your terminal",
	Long: `Arena is a terminal client for a multiplayer real-time strategy game.
Build mines and barracks around your base, send units at your rivals and
capture neutral bases.

Available commands:
  play     - Join a match with the terminal UI
  serve    - Start the development game server
  ssh      - Host the client UI over SSH
  list     - Show building and unit kinds
  skins    - Inspect or clear the skin cache

Examples:
  arena serve
  arena play --dev --server ws://localhost:8080/ws
  arena play --config ./client.yaml
  arena list
  arena skins --clear`,
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to client config YAML")
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 0, "Client tick rate (0 = from config)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to skin cache database (empty = from config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&flagDev, "dev", false, "Connect straight to the game server, skipping the load balancer")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "Game server websocket URL")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sshCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(skinsCmd)
}

// loadConfig resolves the client config: .env files, then the YAML search
// path, then ARENA_* variables, then command line flags.
func loadConfig(cmd *cobra.Command) (config.ClientConfig, error) {
	if err := config.LoadEnv(); err != nil {
		return config.ClientConfig{}, err
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("fps") {
		cfg.Network.TickRate = flagFPS
	}
	if flags.Changed("db") {
		cfg.Storage.DBPath = flagDBPath
	}
	if flags.Changed("log-file") {
		cfg.Log.File = flagLogFile
	}
	if flags.Changed("dev") {
		cfg.Server.Dev = flagDev
	}
	if flags.Changed("server") {
		cfg.Server.URL = flagServer
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
