package login

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrymomot/idsrv/handler"
	"github.com/dmitrymomot/idsrv/pkg/authn"
	"github.com/dmitrymomot/idsrv/pkg/cookie"
	"github.com/dmitrymomot/idsrv/pkg/logger"
	"github.com/dmitrymomot/idsrv/pkg/signin"
)

// signIn issues the ticket for an accepted result and redirects. Full
// results go to the sign-in message's return URL, partial results to their
// resume URL with the resume id appended.
func (s *Service) signIn(ctx handler.Context, flow string, msg signin.Message, res authn.Result, rememberMe *bool) handler.Response {
	w := ctx.ResponseWriter()

	switch v := res.(type) {
	case authn.Full:
		persistence := s.cfg.Cookie.Decide(rememberMe)
		if err := s.issueFull(w, v, persistence); err != nil {
			return s.fail(ctx, err)
		}
		s.signins.Clear(w, msg.ID)
		s.metrics.IncLogin(flow, v.Kind())
		s.logger.InfoContext(ctx, "signed in",
			logger.Subject(v.Subject),
			logger.SignInID(msg.ID),
			logger.ClientID(msg.ClientID),
			logger.Provider(v.IdentityProvider),
			logger.Outcome(persistence.String()),
		)
		return handler.Redirect(msg.ReturnURL)

	case authn.Partial:
		target, err := s.issuePartial(w, v, msg)
		if err != nil {
			return s.fail(ctx, err)
		}
		s.metrics.IncLogin(flow, v.Kind())
		s.logger.InfoContext(ctx, "partially signed in",
			logger.Subject(v.TempSubject),
			logger.SignInID(msg.ID),
			logger.ClientID(msg.ClientID),
		)
		return handler.Redirect(target)

	default:
		return s.fail(ctx, fmt.Errorf("%w: cannot sign in with %s result", authn.ErrInvalidResult, res.Kind()))
	}
}

func (s *Service) issueFull(w http.ResponseWriter, res authn.Full, persistence authn.Persistence) error {
	t := authn.NewFullTicket(res, s.now(), s.cfg.Cookie.Lifetime, persistence == authn.Persistent)

	var opts []cookie.Option
	if t.Persistent {
		opts = append(opts, cookie.WithExpires(t.ExpiresAt))
	}
	if err := s.cookies.SetProtected(w, s.cfg.FullCookie, authn.PurposeFull, t, s.cfg.Cookie.Lifetime, opts...); err != nil {
		return fmt.Errorf("issue full ticket: %w", err)
	}
	return nil
}

// issuePartial writes the session-only partial ticket and returns the
// resume target.
func (s *Service) issuePartial(w http.ResponseWriter, res authn.Partial, msg signin.Message) (string, error) {
	t := authn.PartialTicket{
		TempSubject:          res.TempSubject,
		Name:                 res.Name,
		AuthenticationMethod: res.AuthenticationMethod,
		IdentityProvider:     res.IdentityProvider,
		ReturnURL:            msg.ReturnURL,
		ResumeID:             signin.NewID(),
		SignInID:             msg.ID,
		IssuedAt:             s.now().UTC(),
	}

	target, err := url.Parse(res.ResumeURL)
	if err != nil {
		return "", fmt.Errorf("parse resume url: %w", err)
	}
	q := target.Query()
	q.Set("resume", t.ResumeID)
	target.RawQuery = q.Encode()

	if err := s.cookies.SetProtected(w, s.cfg.PartialCookie, authn.PurposePartial, t, s.cfg.PartialLifetime); err != nil {
		return "", fmt.Errorf("issue partial ticket: %w", err)
	}
	return target.String(), nil
}

// hasAuthCookie reports whether the browser holds a readable full ticket or
// any partial ticket.
func (s *Service) hasAuthCookie(r *http.Request) bool {
	var t authn.FullTicket
	if _, err := s.cookies.GetProtected(r, s.cfg.FullCookie, authn.PurposeFull, &t); err == nil {
		return true
	}
	return s.cookies.Has(r, s.cfg.PartialCookie)
}

// clearAuthCookies expires every authentication cookie kind. Full,
// partial and external cookies get one expiry header each whether or not
// the browser holds them; sign-in correlation cookies are expired as found.
func (s *Service) clearAuthCookies(w http.ResponseWriter, r *http.Request) {
	s.cookies.Delete(w, s.cfg.FullCookie)
	s.cookies.Delete(w, s.cfg.PartialCookie)
	s.cookies.Delete(w, s.cfg.ExternalCookie)
	s.signins.ClearAll(w, r)
}

// withDefaults fills authentication method and provider for results that
// leave them empty.
func withDefaults(res authn.Result, method, idp string) authn.Result {
	switch v := res.(type) {
	case authn.Full:
		if v.AuthenticationMethod == "" {
			v.AuthenticationMethod = method
		}
		if v.IdentityProvider == "" {
			v.IdentityProvider = idp
		}
		return v
	case authn.Partial:
		if v.AuthenticationMethod == "" {
			v.AuthenticationMethod = method
		}
		if v.IdentityProvider == "" {
			v.IdentityProvider = idp
		}
		return v
	}
	return res
}
