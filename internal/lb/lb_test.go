package lb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathGetServer {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(ServerResponse{ServerAddress: "ws://game.test/ws"})
	}))
	defer srv.Close()

	addr, err := NewClient(time.Second).GetServer(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("GetServer() failed: %v", err)
	}
	if addr != "ws://game.test/ws" {
		t.Errorf("GetServer() = %q", addr)
	}
}

func TestGetServerUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"503", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) }},
		{"empty address", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"server_address":""}`)) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			_, err := NewClient(time.Second).GetServer(context.Background(), srv.URL)
			if !errors.Is(err, ErrNoServer) {
				t.Errorf("GetServer() error = %v, expected ErrNoServer", err)
			}
		})
	}
}

func TestGetServerBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()
	if _, err := NewClient(time.Second).GetServer(context.Background(), srv.URL); err == nil {
		t.Error("GetServer() should fail on a bad body")
	}
}

func TestFastest(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	defer slow.Close()
	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer fast.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	down.Close()

	region, rtt, err := NewClient(time.Second).Fastest(context.Background(), []string{slow.URL, down.URL, fast.URL})
	if err != nil {
		t.Fatalf("Fastest() failed: %v", err)
	}
	if region != fast.URL {
		t.Errorf("Fastest() = %s, expected %s", region, fast.URL)
	}
	if rtt <= 0 {
		t.Errorf("Fastest() rtt = %s", rtt)
	}
}

func TestFastestAllDown(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	down.Close()

	_, _, err := NewClient(time.Second).Fastest(context.Background(), []string{down.URL})
	if !errors.Is(err, ErrNoServer) {
		t.Errorf("Fastest() error = %v, expected ErrNoServer", err)
	}
	if _, _, err := NewClient(time.Second).Fastest(context.Background(), nil); !errors.Is(err, ErrNoServer) {
		t.Errorf("Fastest(nil) error = %v, expected ErrNoServer", err)
	}
}

func TestCheckSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(CheckResponse{Valid: r.URL.Query().Get("fingerprint") == "42"})
	}))
	defer srv.Close()

	c := NewClient(time.Second)
	ok, err := c.CheckSession(context.Background(), srv.URL, 42)
	if err != nil || !ok {
		t.Errorf("CheckSession(42) = %v, %v", ok, err)
	}
	ok, err = c.CheckSession(context.Background(), srv.URL, 7)
	if err != nil || ok {
		t.Errorf("CheckSession(7) = %v, %v", ok, err)
	}
}
