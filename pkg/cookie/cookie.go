package cookie

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/idsrv/pkg/ticket"
)

type Manager struct {
	protector *ticket.Protector
	defaults  Options
}

func New(protector *ticket.Protector, opts ...Option) (*Manager, error) {
	if protector == nil {
		return nil, ErrNoProtector
	}

	defaults := Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{
		protector: protector,
		defaults:  applyOptions(defaults, opts),
	}, nil
}

// Defaults returns the attributes applied to every cookie.
func (m *Manager) Defaults() Options {
	return m.defaults
}

func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) error {
	if !validName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	options := applyOptions(m.defaults, opts)

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   options.MaxAge,
		Expires:  options.Expires,
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	})
	return nil
}

func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	return c.Value, nil
}

// Delete emits an expiry header for name. It does not look at the request,
// so clearing a cookie the browser never had is harmless.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     m.defaults.Path,
		Domain:   m.defaults.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: m.defaults.HttpOnly,
		SameSite: m.defaults.SameSite,
		Secure:   m.defaults.Secure,
	})
}

// SetProtected seals v for purpose and stores it under name.
// ttl bounds the payload itself; cookie persistence is controlled by opts.
func (m *Manager) SetProtected(w http.ResponseWriter, name, purpose string, v any, ttl time.Duration, opts ...Option) error {
	value, err := m.protector.Protect(purpose, v, ttl)
	if err != nil {
		return fmt.Errorf("protect cookie %s: %w", name, err)
	}
	return m.Set(w, name, value, opts...)
}

// GetProtected opens the cookie name sealed for purpose into v.
func (m *Manager) GetProtected(r *http.Request, name, purpose string, v any) (ticket.Envelope, error) {
	value, err := m.Get(r, name)
	if err != nil {
		return ticket.Envelope{}, err
	}
	return m.protector.Unprotect(purpose, value, v)
}

// Has reports whether the request carries a cookie called name.
func (m *Manager) Has(r *http.Request, name string) bool {
	_, err := r.Cookie(name)
	return err == nil
}

// NamesWithPrefix returns the names of request cookies starting with prefix,
// in the order the browser sent them.
func (m *Manager) NamesWithPrefix(r *http.Request, prefix string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, c := range r.Cookies() {
		if !strings.HasPrefix(c.Name, prefix) {
			continue
		}
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		names = append(names, c.Name)
	}
	return names
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c <= ' ' || c >= 0x7f || strings.IndexByte("()<>@,;:\\\"/[]?={}", c) >= 0 {
			return false
		}
	}
	return true
}
