// Package config provides YAML-based configuration loading for the arena
// client and its development server, with .env and ARENA_* environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/vovakirdan/arena-sync/internal/core"
	"github.com/vovakirdan/arena-sync/internal/logging"
)

// ClientConfig contains all configuration for the client and dev server.
type ClientConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Player     PlayerConfig     `yaml:"player"`
	Network    NetworkConfig    `yaml:"network"`
	Prediction PredictionConfig `yaml:"prediction"`
	Map        MapConfig        `yaml:"map"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        logging.Config   `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	DevServer  DevServerConfig  `yaml:"devserver"`
}

// ServerConfig selects how the game server address is found.
type ServerConfig struct {
	// Dev connects straight to URL instead of asking the load balancer.
	Dev     bool     `yaml:"dev"`
	URL     string   `yaml:"url"`
	LBURL   string   `yaml:"lb_url"`
	Regions []string `yaml:"regions"` // optional load balancer URLs probed for latency
}

// PlayerConfig defines the identity sent with Join.
type PlayerConfig struct {
	Name string `yaml:"name"`
	Skin uint8  `yaml:"skin"`
}

// NetworkConfig defines connection timings.
type NetworkConfig struct {
	TickRate          int           `yaml:"tick_rate"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	ResyncTimeout     time.Duration `yaml:"resync_timeout"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	LookupTimeout     time.Duration `yaml:"lookup_timeout"`
	MailboxSize       int           `yaml:"mailbox_size"`
	StatusInterval    time.Duration `yaml:"status_interval"`
}

// PredictionConfig defines the optimistic placement timings.
type PredictionConfig struct {
	Grace      time.Duration `yaml:"grace"`
	ClearDelay time.Duration `yaml:"clear_delay"`
}

// MapConfig defines the world size used by local placement checks.
type MapConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// StorageConfig defines where the skin cache lives.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// MetricsConfig enables the Prometheus endpoint when Address is set.
type MetricsConfig struct {
	Address string `yaml:"address"`
}

// DevServerConfig configures `arena serve`.
type DevServerConfig struct {
	Address      string        `yaml:"address"`
	TickInterval time.Duration `yaml:"tick_interval"`
	StartGold    uint32        `yaml:"start_gold"`
	GoldPerTick  uint32        `yaml:"gold_per_tick"`
	// PublicURL is the websocket URL handed out by /get-server. Derived from
	// the request host when empty.
	PublicURL string `yaml:"public_url"`
}

// TickInterval returns the simulation tick length.
func (c ClientConfig) TickInterval() time.Duration {
	if c.Network.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.Network.TickRate)
}

// MapBounds returns the world rectangle.
func (c ClientConfig) MapBounds() core.Rect {
	return core.NewRect(0, 0, c.Map.Width, c.Map.Height)
}

// Validate rejects configurations the client cannot run with.
func (c ClientConfig) Validate() error {
	var errs []error
	positive := map[string]time.Duration{
		"network.reconnect_delay":    c.Network.ReconnectDelay,
		"network.resync_timeout":     c.Network.ResyncTimeout,
		"network.heartbeat_interval": c.Network.HeartbeatInterval,
		"network.handshake_timeout":  c.Network.HandshakeTimeout,
		"network.lookup_timeout":     c.Network.LookupTimeout,
		"prediction.grace":           c.Prediction.Grace,
		"prediction.clear_delay":     c.Prediction.ClearDelay,
	}
	for _, name := range sortedKeys(positive) {
		if positive[name] <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, positive[name]))
		}
	}
	if c.Network.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("network.tick_rate must be positive, got %d", c.Network.TickRate))
	}
	if c.Network.MailboxSize <= 0 {
		errs = append(errs, fmt.Errorf("network.mailbox_size must be positive, got %d", c.Network.MailboxSize))
	}
	if c.Map.Width <= 0 || c.Map.Height <= 0 {
		errs = append(errs, fmt.Errorf("map size must be positive, got %vx%v", c.Map.Width, c.Map.Height))
	}
	if c.Server.Dev && c.Server.URL == "" {
		errs = append(errs, errors.New("server.url is required in dev mode"))
	}
	if !c.Server.Dev && c.Server.LBURL == "" && len(c.Server.Regions) == 0 {
		errs = append(errs, errors.New("server.lb_url or server.regions is required outside dev mode"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func sortedKeys(m map[string]time.Duration) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
