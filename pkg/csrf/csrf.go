// Package csrf implements a double-submit anti-forgery token.
//
// The token lives in a protected cookie and is echoed by every rendered form
// in a hidden field. A state-changing request is accepted only when both are
// present and equal.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/idsrv/pkg/cookie"
	"github.com/dmitrymomot/idsrv/pkg/logger"
)

const (
	purpose    = "csrf"
	tokenBytes = 32
)

// Config holds anti-forgery settings.
type Config struct {
	CookieName string        `env:"CSRF_COOKIE_NAME" envDefault:"idsrv.xsrf"`
	FieldName  string        `env:"CSRF_FIELD_NAME" envDefault:"idsrv.xsrf"`
	TTL        time.Duration `env:"CSRF_TTL" envDefault:"8h"`
}

// DefaultConfig returns the default anti-forgery configuration.
func DefaultConfig() Config {
	return Config{
		CookieName: "idsrv.xsrf",
		FieldName:  "idsrv.xsrf",
		TTL:        8 * time.Hour,
	}
}

// Guard issues and validates anti-forgery tokens.
type Guard struct {
	cfg     Config
	cookies *cookie.Manager
	logger  *slog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithLogger sets the logger used to report rejected requests.
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a Guard.
func New(cookies *cookie.Manager, cfg Config, opts ...Option) (*Guard, error) {
	if cookies == nil {
		return nil, ErrNoCookieManager
	}
	d := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = d.CookieName
	}
	if cfg.FieldName == "" {
		cfg.FieldName = d.FieldName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = d.TTL
	}

	g := &Guard{cfg: cfg, cookies: cookies, logger: logger.Discard()}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// FieldName is the form field forms must carry the token in.
func (g *Guard) FieldName() string {
	return g.cfg.FieldName
}

// Token returns the token to embed in a rendered form. The token already
// held by the browser is reused; otherwise a new one is issued.
func (g *Guard) Token(w http.ResponseWriter, r *http.Request) (string, error) {
	if token, err := g.current(r); err == nil {
		return token, nil
	}

	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(b)

	if err := g.cookies.SetProtected(w, g.cfg.CookieName, purpose, token, g.cfg.TTL); err != nil {
		return "", err
	}
	return token, nil
}

// Validate checks the submitted form field against the cookie token.
func (g *Guard) Validate(r *http.Request) error {
	expected, err := g.current(r)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenMissing, err)
	}

	submitted := r.PostFormValue(g.cfg.FieldName)
	if submitted == "" {
		return ErrTokenMissing
	}
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(expected)) != 1 {
		return ErrTokenMismatch
	}
	return nil
}

// Protect validates every unsafe request before next sees it. Failures are
// passed to onError, which renders the response.
func (g *Guard) Protect(onError func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if safeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if err := g.Validate(r); err != nil {
				g.logger.WarnContext(r.Context(), "anti-forgery check failed",
					logger.Component("csrf"),
					logger.Error(err),
					slog.String("path", r.URL.Path),
				)
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IsRejection reports whether err was produced by Validate.
func IsRejection(err error) bool {
	return errors.Is(err, ErrTokenMissing) || errors.Is(err, ErrTokenMismatch)
}

func (g *Guard) current(r *http.Request) (string, error) {
	var token string
	if _, err := g.cookies.GetProtected(r, g.cfg.CookieName, purpose, &token); err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrTokenMissing
	}
	return token, nil
}

func safeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
