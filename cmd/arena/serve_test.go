package main

import (
	"testing"

	"github.com/vovakirdan/arena-sync/internal/config"
)

func TestDevServerConfig(t *testing.T) {
	cfg := config.DefaultClientConfig()
	cfg.Map.Width, cfg.Map.Height = 2000, 1500
	cfg.DevServer.StartGold = 42
	cfg.DevServer.PublicURL = "ws://example.test/ws"

	got := devServerConfig(cfg)
	if got.Width != 2000 || got.Height != 1500 {
		t.Errorf("map = %vx%v, expected 2000x1500", got.Width, got.Height)
	}
	if got.StartGold != 42 {
		t.Errorf("StartGold = %d, expected 42", got.StartGold)
	}
	if got.PublicURL != cfg.DevServer.PublicURL {
		t.Errorf("PublicURL = %q", got.PublicURL)
	}
	if got.Address != cfg.DevServer.Address {
		t.Errorf("Address = %q, expected %q", got.Address, cfg.DevServer.Address)
	}
	if got.MaxUnits == 0 || got.ReadLimit == 0 {
		t.Error("unset fields should keep server defaults")
	}
}
