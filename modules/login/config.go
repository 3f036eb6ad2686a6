package login

import (
	"strings"
	"time"

	"github.com/dmitrymomot/idsrv/pkg/authn"
)

// Config holds sign-in flow settings.
type Config struct {
	// BasePath is the path the module is mounted under. Links rendered into
	// pages and provider challenges are built relative to it.
	BasePath string `env:"LOGIN_BASE_PATH" envDefault:""`
	SiteName string `env:"SITE_NAME" envDefault:"idsrv"`

	EnableLocalLogin     bool `env:"AUTH_ENABLE_LOCAL_LOGIN" envDefault:"true"`
	DisableSignOutPrompt bool `env:"AUTH_DISABLE_SIGNOUT_PROMPT" envDefault:"false"`
	RememberLastUsername bool `env:"AUTH_REMEMBER_LAST_USERNAME" envDefault:"false"`

	// EndSessionCallbackURL is this server's own front-channel logout
	// endpoint, rendered as the first iframe on the logged-out page.
	EndSessionCallbackURL string `env:"AUTH_END_SESSION_CALLBACK_URL"`
	// ProtocolLogoutURLs are additional front-channel logout targets.
	ProtocolLogoutURLs []string `env:"AUTH_PROTOCOL_LOGOUT_URLS" envSeparator:","`

	FullCookie         string        `env:"AUTH_COOKIE_NAME" envDefault:"idsrv"`
	PartialCookie      string        `env:"AUTH_PARTIAL_COOKIE_NAME" envDefault:"idsrv.partial"`
	ExternalCookie     string        `env:"AUTH_EXTERNAL_COOKIE_NAME" envDefault:"idsrv.external"`
	LastUsernameCookie string        `env:"AUTH_LAST_USERNAME_COOKIE_NAME" envDefault:"idsrv.username"`
	PartialLifetime    time.Duration `env:"AUTH_PARTIAL_LIFETIME" envDefault:"10m"`
	ExternalLifetime   time.Duration `env:"AUTH_EXTERNAL_LIFETIME" envDefault:"10m"`

	Cookie authn.CookiePolicy
}

// DefaultConfig returns the default sign-in configuration.
func DefaultConfig() Config {
	return Config{
		SiteName:           "idsrv",
		EnableLocalLogin:   true,
		FullCookie:         "idsrv",
		PartialCookie:      "idsrv.partial",
		ExternalCookie:     "idsrv.external",
		LastUsernameCookie: "idsrv.username",
		PartialLifetime:    10 * time.Minute,
		ExternalLifetime:   10 * time.Minute,
		Cookie: authn.CookiePolicy{
			AllowRememberMe: true,
			Lifetime:        10 * time.Hour,
		},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	c.BasePath = strings.TrimRight(c.BasePath, "/")
	if c.SiteName == "" {
		c.SiteName = d.SiteName
	}
	if c.FullCookie == "" {
		c.FullCookie = d.FullCookie
	}
	if c.PartialCookie == "" {
		c.PartialCookie = d.PartialCookie
	}
	if c.ExternalCookie == "" {
		c.ExternalCookie = d.ExternalCookie
	}
	if c.LastUsernameCookie == "" {
		c.LastUsernameCookie = d.LastUsernameCookie
	}
	if c.PartialLifetime <= 0 {
		c.PartialLifetime = d.PartialLifetime
	}
	if c.ExternalLifetime <= 0 {
		c.ExternalLifetime = d.ExternalLifetime
	}
	if c.Cookie.Lifetime <= 0 {
		c.Cookie.Lifetime = d.Cookie.Lifetime
	}
	return c
}

func (c Config) path(p string) string {
	return c.BasePath + p
}
