// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Client configuration with defaults and functional options.

package control

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultUserAgent is sent on every request unless overridden.
const DefaultUserAgent = "Macintosh;Intel Mac OS X"

// Config holds all configurable parameters shared by the clients.
// Zero durations disable the corresponding deadline.
type Config struct {
	UserAgent       string
	DialTimeout     time.Duration // per-candidate connect timeout
	IOTimeout       time.Duration // deadline for each request/response exchange
	CloseTimeout    time.Duration // wait for the peer's close frame
	MaxHeaderBytes  int           // status line plus headers
	MaxBodyBytes    int64
	MaxMessageBytes int64 // reassembled WebSocket message
	Logger          *zap.Logger
	Metrics         *MetricsRegistry
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		UserAgent:       DefaultUserAgent,
		DialTimeout:     10 * time.Second,
		IOTimeout:       30 * time.Second,
		CloseTimeout:    5 * time.Second,
		MaxHeaderBytes:  64 << 10,
		MaxBodyBytes:    64 << 20,
		MaxMessageBytes: 16 << 20,
		Logger:          zap.NewNop(),
	}
}

// NewConfig applies opts over DefaultConfig and validates the result.
func NewConfig(opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.DialTimeout < 0 {
		errs = append(errs, fmt.Errorf("dial timeout %v is negative", c.DialTimeout))
	}
	if c.IOTimeout < 0 {
		errs = append(errs, fmt.Errorf("io timeout %v is negative", c.IOTimeout))
	}
	if c.CloseTimeout < 0 {
		errs = append(errs, fmt.Errorf("close timeout %v is negative", c.CloseTimeout))
	}
	if c.MaxHeaderBytes <= 0 {
		errs = append(errs, fmt.Errorf("max header bytes must be positive, got %d", c.MaxHeaderBytes))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max body bytes must be positive, got %d", c.MaxBodyBytes))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, fmt.Errorf("max message bytes must be positive, got %d", c.MaxMessageBytes))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Deadline returns the earlier of now+timeout and the context deadline.
// The zero time means no deadline.
func Deadline(now time.Time, timeout time.Duration, ctxDeadline time.Time, hasCtxDeadline bool) time.Time {
	var dl time.Time
	if timeout > 0 {
		dl = now.Add(timeout)
	}
	if hasCtxDeadline && (dl.IsZero() || ctxDeadline.Before(dl)) {
		dl = ctxDeadline
	}
	return dl
}

// WithUserAgent sets the User-Agent header value.
func WithUserAgent(ua string) Option {
	return func(c *Config) { c.UserAgent = ua }
}

// WithDialTimeout sets the per-candidate connect timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Config) { c.DialTimeout = d }
}

// WithIOTimeout sets the exchange deadline.
func WithIOTimeout(d time.Duration) Option {
	return func(c *Config) { c.IOTimeout = d }
}

// WithCloseTimeout bounds the wait for the peer's close frame.
func WithCloseTimeout(d time.Duration) Option {
	return func(c *Config) { c.CloseTimeout = d }
}

// WithMaxHeaderBytes caps the size of response status line and headers.
func WithMaxHeaderBytes(n int) Option {
	return func(c *Config) { c.MaxHeaderBytes = n }
}

// WithMaxBodyBytes caps the size of a response body.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Config) { c.MaxBodyBytes = n }
}

// WithMaxMessageBytes caps a reassembled WebSocket message.
func WithMaxMessageBytes(n int64) Option {
	return func(c *Config) { c.MaxMessageBytes = n }
}

// WithLogger sets the logger. nil restores the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithMetrics attaches a counter registry.
func WithMetrics(m *MetricsRegistry) Option {
	return func(c *Config) { c.Metrics = m }
}
