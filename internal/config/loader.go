package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the loaded file.
const (
	EnvServerURL  = "ARENA_SERVER_URL"
	EnvLBURL      = "ARENA_LB_URL"
	EnvDev        = "ARENA_DEV"
	EnvPlayerName = "ARENA_PLAYER_NAME"
	EnvSkin       = "ARENA_SKIN"
	EnvLogLevel   = "ARENA_LOG_LEVEL"
)

// Load loads the client configuration.
// Search order: customPath -> ~/.arena/configs/client.yaml -> ./configs/client.yaml -> embedded default
//
// Files are decoded over the defaults, so a partial file only overrides the
// keys it names.
func Load(customPath string) (ClientConfig, error) {
	cfg := DefaultClientConfig()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("client.yaml"); userCfgPath != "" {
		if parsed, ok := tryFile(userCfgPath); ok {
			return parsed, nil
		}
	}

	// Try local configs directory
	if parsed, ok := tryFile(filepath.Join("configs", "client.yaml")); ok {
		return parsed, nil
	}

	// Use embedded default YAML
	parsed := DefaultClientConfig()
	if err := yaml.Unmarshal(defaultClientYAML, &parsed); err != nil {
		return DefaultClientConfig(), nil // Fallback to hardcoded if embed fails
	}
	return parsed, nil
}

func tryFile(path string) (ClientConfig, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ClientConfig{}, false
	}
	cfg := DefaultClientConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ClientConfig{}, false
	}
	return cfg, true
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".arena", "configs", filename)
}

// LoadEnv reads .env files into the process environment. Missing files are
// skipped; with no arguments it looks for ./.env. Variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to stat env file %s: %w", f, err)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg with ARENA_* variables.
func ApplyEnv(cfg *ClientConfig) error {
	if v, ok := lookup(EnvServerURL); ok {
		cfg.Server.URL = v
	}
	if v, ok := lookup(EnvLBURL); ok {
		cfg.Server.LBURL = v
	}
	if v, ok := lookup(EnvDev); ok {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvDev, v, err)
		}
		cfg.Server.Dev = dev
	}
	if v, ok := lookup(EnvPlayerName); ok {
		cfg.Player.Name = v
	}
	if v, ok := lookup(EnvSkin); ok {
		skin, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvSkin, v, err)
		}
		cfg.Player.Skin = uint8(skin)
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.Log.Level = v
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
