package signin

import "time"

const maxIDLength = 64

// Config holds correlation store configuration.
type Config struct {
	CookiePrefix       string        `env:"SIGNIN_COOKIE_PREFIX" envDefault:"SignInMessage."`
	SignOutCookie      string        `env:"SIGNOUT_COOKIE_NAME" envDefault:"SignOutMessage"`
	TTL                time.Duration `env:"SIGNIN_TTL" envDefault:"10m"`
	MaxConcurrentFlows int           `env:"SIGNIN_MAX_CONCURRENT_FLOWS" envDefault:"10"`
}

// DefaultConfig returns the default correlation store configuration.
func DefaultConfig() Config {
	return Config{
		CookiePrefix:       "SignInMessage.",
		SignOutCookie:      "SignOutMessage",
		TTL:                10 * time.Minute,
		MaxConcurrentFlows: 10,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CookiePrefix == "" {
		c.CookiePrefix = d.CookiePrefix
	}
	if c.SignOutCookie == "" {
		c.SignOutCookie = d.SignOutCookie
	}
	if c.TTL <= 0 {
		c.TTL = d.TTL
	}
	if c.MaxConcurrentFlows <= 0 {
		c.MaxConcurrentFlows = d.MaxConcurrentFlows
	}
	return c
}
