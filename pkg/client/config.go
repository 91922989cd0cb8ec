package client

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/ysakurai/bojstat-go/pkg/boj"
	"github.com/ysakurai/bojstat-go/pkg/consistency"
	"github.com/ysakurai/bojstat-go/pkg/retry"
)

// CacheConfig governs the local Cache Gateway.
type CacheConfig struct {
	Dir          string
	TTL          time.Duration
	Mode         boj.CacheMode
	PublishWindow consistency.PublishWindow
}

// Config is the client-wide configuration, mirroring the three-way
// split of the original implementation's ClientConfig/CacheConfig/
// RetryConfig.
type Config struct {
	BaseURL   string
	UserAgent string
	Lang      boj.Lang
	Format    boj.Format

	RateLimitPerSecond float64
	HTTPTimeout        time.Duration

	Cache CacheConfig
	Retry retry.Config

	ConsistencyMode    boj.ConsistencyMode
	ConflictResolution boj.ConflictResolution
	OutputOrder        boj.OutputOrder
	AllowRawOverride   bool
	CaptureFullResponse bool

	MetadataFreshnessStrict bool

	Logger zerolog.Logger
}

// DefaultConfig returns the documented defaults: rate 1 req/s, cache
// TTL 24h, default publish window, 5 max retry attempts.
func DefaultConfig() Config {
	return Config{
		BaseURL:            boj.DefaultBaseURL,
		UserAgent:          boj.DefaultUserAgent,
		Lang:               boj.LangEN,
		Format:             boj.FormatJSON,
		RateLimitPerSecond: 1,
		HTTPTimeout:        30 * time.Second,
		Cache: CacheConfig{
			TTL:           24 * time.Hour,
			Mode:          boj.CacheIfStale,
			PublishWindow: consistency.DefaultPublishWindow(),
		},
		Retry:              retry.DefaultConfig(),
		ConsistencyMode:    boj.ConsistencyBestEffort,
		ConflictResolution: boj.ConflictLatestLastUpdate,
		OutputOrder:        boj.OutputCanonical,
		Logger:             zerolog.Nop(),
	}
}

// Validate enforces construction-time invariants the config itself is
// responsible for, independent of any particular Request.
func (c Config) Validate() error {
	if c.UserAgent == "" {
		return &boj.ValidationError{Code: "user_agent_required"}
	}
	if c.BaseURL == "" {
		return &boj.ValidationError{Code: "base_url_required"}
	}
	return nil
}
