package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/arena-sync/internal/logging"
)

//go:embed defaults/client.yaml
var defaultClientYAML []byte

// DefaultClientConfig returns the hardcoded configuration used when no file
// (not even the embedded one) can be parsed.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Server: ServerConfig{
			URL:   "ws://localhost:8080/ws",
			LBURL: "http://localhost:8080",
		},
		Player: PlayerConfig{
			Name: "player",
		},
		Network: NetworkConfig{
			TickRate:          60,
			ReconnectDelay:    3 * time.Second,
			ResyncTimeout:     2 * time.Second,
			HeartbeatInterval: 10 * time.Second,
			HandshakeTimeout:  5 * time.Second,
			WriteTimeout:      5 * time.Second,
			LookupTimeout:     5 * time.Second,
			MailboxSize:       256,
			StatusInterval:    250 * time.Millisecond,
		},
		Prediction: PredictionConfig{
			Grace:      500 * time.Millisecond,
			ClearDelay: 20 * time.Millisecond,
		},
		Map: MapConfig{
			Width:  4000,
			Height: 4000,
		},
		Storage: StorageConfig{
			DBPath: "~/.arena/arena.db",
		},
		Log: logging.DefaultConfig(),
		DevServer: DevServerConfig{
			Address:      ":8080",
			TickInterval: 100 * time.Millisecond,
			StartGold:    500,
			GoldPerTick:  1,
		},
	}
}
