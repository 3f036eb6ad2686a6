package signin

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/idsrv/pkg/cookie"
	"github.com/dmitrymomot/idsrv/pkg/logger"
)

const (
	purposeSignIn  = "signin"
	purposeSignOut = "signout"
)

// Store keeps sign-in and sign-out messages in protected cookies.
// One cookie per sign-in flow, named <prefix><id>, so concurrent flows in
// several tabs do not overwrite each other.
type Store struct {
	cfg     Config
	cookies *cookie.Manager
	logger  *slog.Logger
	now     func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for purge diagnostics.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source for CreatedAt stamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a correlation store on top of the cookie manager.
func NewStore(cookies *cookie.Manager, cfg Config, opts ...StoreOption) (*Store, error) {
	if cookies == nil {
		return nil, ErrNoCookieWriter
	}
	s := &Store{
		cfg:     cfg.withDefaults(),
		cookies: cookies,
		logger:  logger.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CookieName returns the cookie name carrying the sign-in message id.
func (s *Store) CookieName(id string) string {
	return s.cfg.CookiePrefix + id
}

// Begin writes msg and returns its id. An empty msg.ID gets a fresh random id.
// When the browser already holds MaxConcurrentFlows sign-in cookies, the
// oldest ones are expired in the same response.
func (s *Store) Begin(w http.ResponseWriter, r *http.Request, msg Message) (string, error) {
	if strings.TrimSpace(msg.ReturnURL) == "" {
		return "", ErrMissingReturn
	}
	if msg.ID == "" {
		msg.ID = NewID()
	}
	if !ValidID(msg.ID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, msg.ID)
	}
	msg.CreatedAt = s.now().UTC().Truncate(time.Second)

	if r != nil {
		s.purge(w, r, msg.ID)
	}

	if err := s.cookies.SetProtected(w, s.CookieName(msg.ID), purposeSignIn, msg, s.cfg.TTL); err != nil {
		return "", fmt.Errorf("write sign-in message: %w", err)
	}
	return msg.ID, nil
}

// Resolve reads the sign-in message with the given id. A missing, expired,
// tampered or malformed cookie is reported as ErrNotFound.
func (s *Store) Resolve(r *http.Request, id string) (Message, error) {
	if !ValidID(id) {
		return Message{}, ErrNotFound
	}

	var msg Message
	if _, err := s.cookies.GetProtected(r, s.CookieName(id), purposeSignIn, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if msg.ID != id {
		return Message{}, ErrNotFound
	}
	return msg, nil
}

// Clear expires the cookie of a single sign-in flow.
func (s *Store) Clear(w http.ResponseWriter, id string) {
	if ValidID(id) {
		s.cookies.Delete(w, s.CookieName(id))
	}
}

// ClearAll expires every sign-in cookie the browser sent and the sign-out cookie.
func (s *Store) ClearAll(w http.ResponseWriter, r *http.Request) {
	for _, name := range s.cookies.NamesWithPrefix(r, s.cfg.CookiePrefix) {
		s.cookies.Delete(w, name)
	}
	s.cookies.Delete(w, s.cfg.SignOutCookie)
}

// BeginSignOut writes msg into the sign-out cookie and returns its id.
func (s *Store) BeginSignOut(w http.ResponseWriter, msg SignOutMessage) (string, error) {
	if msg.ID == "" {
		msg.ID = NewID()
	}
	if !ValidID(msg.ID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, msg.ID)
	}
	msg.CreatedAt = s.now().UTC().Truncate(time.Second)

	if err := s.cookies.SetProtected(w, s.cfg.SignOutCookie, purposeSignOut, msg, s.cfg.TTL); err != nil {
		return "", fmt.Errorf("write sign-out message: %w", err)
	}
	return msg.ID, nil
}

// ResolveSignOut reads the sign-out message and checks that it carries id.
func (s *Store) ResolveSignOut(r *http.Request, id string) (SignOutMessage, error) {
	if !ValidID(id) {
		return SignOutMessage{}, ErrNotFound
	}

	var msg SignOutMessage
	if _, err := s.cookies.GetProtected(r, s.cfg.SignOutCookie, purposeSignOut, &msg); err != nil {
		return SignOutMessage{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if msg.ID != id {
		return SignOutMessage{}, ErrNotFound
	}
	return msg, nil
}

// ClearSignOut expires the sign-out cookie.
func (s *Store) ClearSignOut(w http.ResponseWriter) {
	s.cookies.Delete(w, s.cfg.SignOutCookie)
}

// purge expires the oldest flows so that, together with the flow being
// started, no more than MaxConcurrentFlows remain. Unreadable cookies go first.
func (s *Store) purge(w http.ResponseWriter, r *http.Request, keep string) {
	names := s.cookies.NamesWithPrefix(r, s.cfg.CookiePrefix)
	names = slices.DeleteFunc(names, func(n string) bool { return n == s.CookieName(keep) })
	excess := len(names) - (s.cfg.MaxConcurrentFlows - 1)
	if excess <= 0 {
		return
	}

	type flow struct {
		name    string
		created time.Time
	}
	flows := make([]flow, 0, len(names))
	for _, name := range names {
		var msg Message
		f := flow{name: name}
		if _, err := s.cookies.GetProtected(r, name, purposeSignIn, &msg); err == nil {
			f.created = msg.CreatedAt
		}
		flows = append(flows, f)
	}
	slices.SortStableFunc(flows, func(a, b flow) int { return a.created.Compare(b.created) })

	for _, f := range flows[:excess] {
		s.cookies.Delete(w, f.name)
	}
	s.logger.DebugContext(r.Context(), "purged stale sign-in flows",
		logger.Component("signin"),
		slog.Int("purged", excess),
	)
}

// NewID returns a random correlation id.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
