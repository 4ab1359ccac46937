package network

import (
	"context"
	"errors"

	"github.com/vovakirdan/arena-sync/internal/lb"
)

// Resolver finds the game server address for a connection attempt.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

// StaticResolver always returns the same URL. Used in dev mode.
type StaticResolver string

// Resolve returns the fixed URL.
func (r StaticResolver) Resolve(context.Context) (string, error) {
	if r == "" {
		return "", errors.New("network: no server url configured")
	}
	return string(r), nil
}

// LBResolver asks the load balancer for a server. When Regions are set the
// fastest one is picked on every attempt; otherwise URL is used.
type LBResolver struct {
	Client  *lb.Client
	URL     string
	Regions []string
}

// Resolve returns the server address the load balancer assigns.
func (r LBResolver) Resolve(ctx context.Context) (string, error) {
	base := r.URL
	if len(r.Regions) > 0 {
		region, _, err := r.Client.Fastest(ctx, r.Regions)
		if err != nil {
			return "", err
		}
		base = region
	}
	return r.Client.GetServer(ctx, base)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context) (string, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context) (string, error) {
	return f(ctx)
}
