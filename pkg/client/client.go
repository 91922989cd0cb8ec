// Package client provides the public BOJ time-series statistics API
// client: the Pagination Driver (C11) orchestrating the Code/Layer
// Pager, Transport, Cache Gateway, Consistency Guard, Resume Token
// Codec, Deduper, and canonical ordering described in the component
// design.
package client

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/ysakurai/bojstat-go/pkg/cache"
	"github.com/ysakurai/bojstat-go/pkg/logging"
	"github.com/ysakurai/bojstat-go/pkg/parser"
	"github.com/ysakurai/bojstat-go/pkg/ratelimit"
	"github.com/ysakurai/bojstat-go/pkg/transport"
)

// Client is the concurrency-safe entry point: one Client value owns
// one rate limiter, one cache directory, and one connection pool,
// shared across every call made through it.
type Client struct {
	config    Config
	transport *transport.Transport
	cache     *cache.Manager
}

// New constructs a Client from cfg, validating it first.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if reflect.DeepEqual(logger, zerolog.Logger{}) {
		logger = logging.NewLogger("bojstat-client")
	}

	mgr, err := cache.NewManager(cfg.Cache.Dir, cfg.Cache.TTL, logger)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}

	limiter := ratelimit.NewLimiter(cfg.RateLimitPerSecond)
	var httpClient *http.Client
	if cfg.HTTPTimeout > 0 {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	tr := transport.New(cfg.BaseURL, cfg.UserAgent, httpClient, limiter, cfg.Retry, parser.NewDefault(), logger)

	return &Client{config: cfg, transport: tr, cache: mgr}, nil
}

// Close releases nothing and always returns nil: idle HTTP connections
// stay in the transport's connection pool, and the cache and limiter
// hold no resources requiring explicit teardown.
func (c *Client) Close() error {
	return nil
}
