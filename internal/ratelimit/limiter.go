package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/miko-factory/creamdash/internal/logger"
)

// Limiter throttles outbound requests per remote host
type Limiter interface {
	// Wait blocks until a request to rawURL's host is allowed or ctx is done
	Wait(ctx context.Context, rawURL string) error
}

// DefaultMaxHosts bounds how many host buckets are remembered
const DefaultMaxHosts = 1024

// Config holds the per-host token bucket settings
type Config struct {
	// RequestsPerSecond per host; zero or less disables limiting
	RequestsPerSecond float64
	Burst             int
	// MaxHosts caps the number of host buckets kept; DefaultMaxHosts when zero
	MaxHosts int
}

type hostEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

type hostLimiter struct {
	config Config
	mu     sync.Mutex
	hosts  map[string]*hostEntry
}

// NewHostLimiter creates a limiter keeping one token bucket per host
func NewHostLimiter(cfg Config) Limiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxHosts <= 0 {
		cfg.MaxHosts = DefaultMaxHosts
	}
	return &hostLimiter{
		config: cfg,
		hosts:  make(map[string]*hostEntry),
	}
}

func (l *hostLimiter) Wait(ctx context.Context, rawURL string) error {
	if l.config.RequestsPerSecond <= 0 {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	limiter := l.limiterFor(u.Host, time.Now())
	if limiter.Tokens() < 1 {
		logger.DebugCtx(ctx, "Waiting for rate limit", zap.String("host", u.Host))
	}
	return limiter.Wait(ctx)
}

func (l *hostLimiter) limiterFor(host string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.hosts[host]; ok {
		e.lastUsed = now
		return e.limiter
	}

	if len(l.hosts) >= l.config.MaxHosts {
		l.evict(now)
	}

	e := &hostEntry{
		limiter:  rate.NewLimiter(rate.Limit(l.config.RequestsPerSecond), l.config.Burst),
		lastUsed: now,
	}
	l.hosts[host] = e
	return e.limiter
}

// evict drops every bucket that has refilled, since a full bucket behaves like
// a new one. When all buckets are still draining the least recently used goes.
func (l *hostLimiter) evict(now time.Time) {
	full := float64(l.config.Burst)
	for host, e := range l.hosts {
		if e.limiter.TokensAt(now) >= full {
			delete(l.hosts, host)
		}
	}
	if len(l.hosts) < l.config.MaxHosts {
		return
	}

	var oldest string
	var oldestAt time.Time
	for host, e := range l.hosts {
		if oldest == "" || e.lastUsed.Before(oldestAt) {
			oldest, oldestAt = host, e.lastUsed
		}
	}
	delete(l.hosts, oldest)
}
