package clientip

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Config lists the proxy headers trusted to carry the client address.
// Headers are consulted in order; an empty list means only the TCP peer
// address is used, which is the safe choice when the server is exposed
// directly.
type Config struct {
	TrustedHeaders []string `env:"CLIENTIP_TRUSTED_HEADERS" envSeparator:","`
}

// Resolver extracts the client IP from a request.
type Resolver struct {
	headers []string
}

// New creates a resolver trusting the given headers, in priority order.
func New(headers ...string) *Resolver {
	clean := make([]string, 0, len(headers))
	for _, h := range headers {
		if h = strings.TrimSpace(h); h != "" {
			clean = append(clean, http.CanonicalHeaderKey(h))
		}
	}
	return &Resolver{headers: clean}
}

// NewFromConfig creates a resolver from cfg.
func NewFromConfig(cfg Config) *Resolver {
	return New(cfg.TrustedHeaders...)
}

// Resolve returns the normalized client IP, or "" when none is valid.
// For X-Forwarded-For the leftmost valid entry wins.
func (rv *Resolver) Resolve(r *http.Request) string {
	for _, h := range rv.headers {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		if h == "X-Forwarded-For" {
			for part := range strings.SplitSeq(v, ",") {
				if ip := parse(part); ip != "" {
					return ip
				}
			}
			continue
		}
		if ip := parse(v); ip != "" {
			return ip
		}
	}
	return remoteIP(r.RemoteAddr)
}

// Middleware stores the resolved IP in the request context.
func (rv *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), rv.Resolve(r))))
	})
}

type contextKey struct{}

// WithContext stores ip in ctx.
func WithContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKey{}, ip)
}

// FromContext returns the IP stored by Middleware, or "".
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextKey{}).(string)
	return ip
}

// GetIP returns the IP resolved by Middleware, falling back to the TCP peer
// address when the middleware is not installed.
func GetIP(r *http.Request) string {
	if ip := FromContext(r.Context()); ip != "" {
		return ip
	}
	return remoteIP(r.RemoteAddr)
}

func remoteIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return parse(host)
	}
	return parse(addr)
}

func parse(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	addr, err := netip.ParseAddr(s)
	if err != nil || addr.Zone() != "" {
		return ""
	}
	return addr.Unmap().String()
}
