// Package lb talks to the load balancer that assigns game servers.
package lb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNoServer is returned when the load balancer has no server to offer.
var ErrNoServer = errors.New("lb: no server available")

// Endpoint paths served by the load balancer.
const (
	PathGetServer = "/get-server"
	PathPing      = "/ping"
	PathCheck     = "/check"
)

// ServerResponse is the body of GET /get-server.
type ServerResponse struct {
	ServerAddress string `json:"server_address"`
}

// CheckResponse is the body of GET /check.
type CheckResponse struct {
	Valid bool `json:"valid"`
}

// Client queries one or more load balancer regions.
type Client struct {
	HTTP *http.Client
}

// NewClient returns a client whose requests time out after timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{HTTP: &http.Client{Timeout: timeout}}
}

func (c *Client) http() *http.Client {
	if c == nil || c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

// GetServer asks base for a game server and returns its websocket URL.
func (c *Client) GetServer(ctx context.Context, base string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, join(base, PathGetServer), nil)
	if err != nil {
		return "", fmt.Errorf("lb: build request: %w", err)
	}
	resp, err := c.http().Do(req)
	if err != nil {
		return "", fmt.Errorf("lb: get server: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusNotFound:
		return "", ErrNoServer
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("lb: get server: unexpected status %s", resp.Status)
	}

	var body ServerResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil {
		return "", fmt.Errorf("lb: decode server response: %w", err)
	}
	if body.ServerAddress == "" {
		return "", ErrNoServer
	}
	return body.ServerAddress, nil
}

// Ping measures the round trip of HEAD /ping.
func (c *Client) Ping(ctx context.Context, base string) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, join(base, PathPing), nil)
	if err != nil {
		return 0, fmt.Errorf("lb: build request: %w", err)
	}
	start := time.Now()
	resp, err := c.http().Do(req)
	if err != nil {
		return 0, fmt.Errorf("lb: ping %s: %w", base, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("lb: ping %s: unexpected status %s", base, resp.Status)
	}
	return time.Since(start), nil
}

// Fastest pings every region concurrently and returns the one with the
// lowest round trip. Regions that fail to answer are skipped.
func (c *Client) Fastest(ctx context.Context, regions []string) (string, time.Duration, error) {
	if len(regions) == 0 {
		return "", 0, ErrNoServer
	}
	type result struct {
		region string
		rtt    time.Duration
		err    error
	}
	results := make(chan result, len(regions))
	for _, r := range regions {
		go func(region string) {
			rtt, err := c.Ping(ctx, region)
			results <- result{region, rtt, err}
		}(r)
	}

	best := result{}
	var errs []error
	for range regions {
		res := <-results
		if res.err != nil {
			errs = append(errs, res.err)
			continue
		}
		if best.region == "" || res.rtt < best.rtt {
			best = res
		}
	}
	if best.region == "" {
		return "", 0, fmt.Errorf("%w: %w", ErrNoServer, errors.Join(errs...))
	}
	return best.region, best.rtt, nil
}

// CheckSession asks whether the load balancer still knows fingerprint.
func (c *Client) CheckSession(ctx context.Context, base string, fingerprint uint32) (bool, error) {
	u := join(base, PathCheck) + "?fingerprint=" + url.QueryEscape(strconv.FormatUint(uint64(fingerprint), 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("lb: build request: %w", err)
	}
	resp, err := c.http().Do(req)
	if err != nil {
		return false, fmt.Errorf("lb: check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("lb: check: unexpected status %s", resp.Status)
	}
	var body CheckResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil {
		return false, fmt.Errorf("lb: decode check response: %w", err)
	}
	return body.Valid, nil
}

func join(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
