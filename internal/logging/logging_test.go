package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "arena.log")

	logger, closer, err := New(Config{Level: "debug", File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	logger.WithPrefix(PrefixNet).Debug("connected", "url", "ws://example")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if !strings.Contains(string(data), "connected") || !strings.Contains(string(data), PrefixNet) {
		t.Errorf("log file missing entry: %q", data)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("New() should reject an unknown level")
	}
}

func TestOr(t *testing.T) {
	if Or(nil) == nil {
		t.Error("Or(nil) should return a usable logger")
	}
	l := Discard()
	if Or(l) != l {
		t.Error("Or() should return the given logger")
	}
}
