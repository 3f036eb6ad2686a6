package authn

import "time"

// Persistence of the primary authentication cookie.
type Persistence int

const (
	SessionOnly Persistence = iota
	Persistent
)

func (p Persistence) String() string {
	if p == Persistent {
		return "persistent"
	}
	return "session"
}

// CookiePolicy configures the lifetime of the primary authentication cookie.
type CookiePolicy struct {
	AllowRememberMe bool          `env:"AUTH_ALLOW_REMEMBER_ME" envDefault:"true"`
	IsPersistent    bool          `env:"AUTH_COOKIE_PERSISTENT" envDefault:"false"`
	Lifetime        time.Duration `env:"AUTH_COOKIE_LIFETIME" envDefault:"10h"`
}

// Decide returns the persistence of a new primary cookie.
// When remember-me is allowed and the user answered the checkbox, the answer
// wins; otherwise the configured default applies.
func (p CookiePolicy) Decide(rememberMe *bool) Persistence {
	persistent := p.IsPersistent
	if p.AllowRememberMe && rememberMe != nil {
		persistent = *rememberMe
	}
	if persistent {
		return Persistent
	}
	return SessionOnly
}
