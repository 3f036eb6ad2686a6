package throttle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// maxKeyLength bounds keys handed to stores; longer keys are hashed.
const maxKeyLength = 64

// hashedKeyBytes is the digest prefix kept for long keys (48 hex chars).
const hashedKeyBytes = 24

// Config configures failed login throttling.
type Config struct {
	Enabled     bool          `env:"THROTTLE_ENABLED" envDefault:"true"`
	MaxAttempts int           `env:"THROTTLE_MAX_ATTEMPTS" envDefault:"5"`
	Window      time.Duration `env:"THROTTLE_WINDOW" envDefault:"15m"`
}

// DefaultConfig returns the default throttle configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		MaxAttempts: 5,
		Window:      15 * time.Minute,
	}
}

func (c Config) validate() error {
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max attempts must be positive, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %v", ErrInvalidConfig, c.Window)
	}
	return nil
}

// Store keeps failure counters.
type Store interface {
	// Incr increments the counter for key and returns the new value.
	// The first increment of a window starts the window.
	Incr(ctx context.Context, key string, window time.Duration) (int, error)
	// Count returns the counter for key, zero when absent or expired.
	Count(ctx context.Context, key string) (int, error)
	// Reset removes the counter for key.
	Reset(ctx context.Context, key string) error
}

// Limiter applies Config to a Store.
type Limiter struct {
	store Store
	cfg   Config
}

// New creates a Limiter. A disabled config yields a limiter that never
// refuses and never touches the store.
func New(store Store, cfg Config) (*Limiter, error) {
	if !cfg.Enabled {
		return &Limiter{cfg: cfg}, nil
	}
	if store == nil {
		return nil, ErrNoStore
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Limiter{store: store, cfg: cfg}, nil
}

// Check returns ErrThrottled when key has used up its attempts.
func (l *Limiter) Check(ctx context.Context, key string) error {
	if l == nil || !l.cfg.Enabled {
		return nil
	}
	n, err := l.store.Count(ctx, key)
	if err != nil {
		return err
	}
	if n >= l.cfg.MaxAttempts {
		return ErrThrottled
	}
	return nil
}

// Fail records a rejected attempt for key.
func (l *Limiter) Fail(ctx context.Context, key string) error {
	if l == nil || !l.cfg.Enabled {
		return nil
	}
	_, err := l.store.Incr(ctx, key, l.cfg.Window)
	return err
}

// Reset clears the counter for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if l == nil || !l.cfg.Enabled {
		return nil
	}
	return l.store.Reset(ctx, key)
}

// Key builds a throttle key from a username and a client IP.
// Usernames are compared case-insensitively. Keys longer than 64 bytes are
// replaced by a truncated SHA-256 digest, so a chosen username cannot land
// on another user's counter. Digests never contain "|" and cannot collide
// with short keys.
func Key(username, ip string) string {
	key := strings.ToLower(strings.TrimSpace(username)) + "|" + ip
	if len(key) <= maxKeyLength {
		return key
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:hashedKeyBytes])
}
