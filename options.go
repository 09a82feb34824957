package giiker

import (
	"time"

	"go.uber.org/zap"
)

// Option configures Session and device behavior.
type Option func(*config)

type config struct {
	logger         *zap.Logger
	batteryTimeout time.Duration
	moveHistory    bool
	namePrefix     string
	scanTimeout    time.Duration
}

// DefaultNamePrefix is the advertised name prefix of Giiker cubes.
const DefaultNamePrefix = "Gi"

func defaultConfig() *config {
	return &config{
		logger:         zap.NewNop(),
		batteryTimeout: 5 * time.Second,
		moveHistory:    true,
		namePrefix:     DefaultNamePrefix,
		scanTimeout:    10 * time.Second,
	}
}

func newConfig(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithLogger sets the logger used for frame diagnostics.
// A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l == nil {
			l = zap.NewNop()
		}
		c.logger = l
	}
}

// WithBatteryTimeout bounds how long BatteryLevel waits for the device to
// answer. Zero disables the bound; the caller's context still applies.
func WithBatteryTimeout(d time.Duration) Option {
	return func(c *config) {
		c.batteryTimeout = d
	}
}

// WithMoveHistory enables or disables move history tracking.
// When enabled (default), all emitted moves are stored and accessible via Moves().
// Disable this for long sessions to reduce memory usage.
func WithMoveHistory(enabled bool) Option {
	return func(c *config) {
		c.moveHistory = enabled
	}
}

// WithNamePrefix sets the advertised name prefix used to recognise cubes
// during a scan.
func WithNamePrefix(prefix string) Option {
	return func(c *config) {
		c.namePrefix = prefix
	}
}

// WithScanTimeout sets how long ConnectFirst scans before giving up.
func WithScanTimeout(d time.Duration) Option {
	return func(c *config) {
		c.scanTimeout = d
	}
}
