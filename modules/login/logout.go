package login

import (
	"errors"
	"net/url"

	"github.com/dmitrymomot/idsrv/handler"
	"github.com/dmitrymomot/idsrv/pkg/authn"
	"github.com/dmitrymomot/idsrv/pkg/logger"
	"github.com/dmitrymomot/idsrv/pkg/signin"
)

// LogoutRequest optionally names the sign-out message of the client that
// initiated the logout.
type LogoutRequest struct {
	ID string `query:"id"`
}

// logoutPage asks the user to confirm the logout. The prompt is skipped when
// disabled or when there is no session to end.
func (s *Service) logoutPage(ctx handler.Context, req LogoutRequest) handler.Response {
	w, r := ctx.ResponseWriter(), ctx.Request()

	if s.cfg.DisableSignOutPrompt || !s.hasAuthCookie(r) {
		return s.completeLogout(ctx, req)
	}

	msg, client, err := s.signOutContext(ctx, req.ID)
	if err != nil {
		return s.fail(ctx, err)
	}

	token, err := s.csrf.Token(w, r)
	if err != nil {
		return s.fail(ctx, err)
	}

	action := s.cfg.path("/logout")
	if msg.ID != "" {
		action += "?" + url.Values{"id": {msg.ID}}.Encode()
	}
	params := LogoutPromptParams{
		SiteName:   s.cfg.SiteName,
		FormAction: action,
		CSRF:       CSRFField{Name: s.csrf.FieldName(), Value: token},
	}
	if client != nil {
		params.ClientName = client.ClientName
	}
	return handler.Templ(s.views.LogoutPrompt(params), handler.WithTarget("#logout"))
}

func (s *Service) logout(ctx handler.Context, req LogoutRequest) handler.Response {
	return s.completeLogout(ctx, req)
}

// completeLogout expires every authentication cookie and renders the
// logged-out page with the front-channel logout iframes.
func (s *Service) completeLogout(ctx handler.Context, req LogoutRequest) handler.Response {
	w, r := ctx.ResponseWriter(), ctx.Request()

	// Read before clearing; ClearAll expires the sign-out cookie too.
	msg, client, err := s.signOutContext(ctx, req.ID)
	if err != nil {
		return s.fail(ctx, err)
	}

	var t authn.FullTicket
	_, ticketErr := s.cookies.GetProtected(r, s.cfg.FullCookie, authn.PurposeFull, &t)

	s.clearAuthCookies(w, r)
	s.metrics.IncLogout()

	attrs := []any{logger.ClientID(msg.ClientID)}
	if ticketErr == nil {
		attrs = append(attrs, logger.Subject(t.Subject))
	}
	s.logger.InfoContext(ctx, "signed out", attrs...)

	params := LoggedOutParams{
		SiteName:   s.cfg.SiteName,
		ReturnURL:  msg.ReturnURL,
		IFrameURLs: s.frontChannelURLs(client),
	}
	if client != nil {
		params.ClientName = client.ClientName
	}
	return handler.Templ(s.views.LoggedOut(params), handler.WithTarget("#logout"))
}

// signOutContext resolves the optional sign-out message and its client.
// A missing or stale message is not an error; logout proceeds without
// client context.
func (s *Service) signOutContext(ctx handler.Context, id string) (signin.SignOutMessage, *authn.Client, error) {
	if id == "" {
		return signin.SignOutMessage{}, nil, nil
	}
	msg, err := s.signins.ResolveSignOut(ctx.Request(), id)
	if errors.Is(err, signin.ErrNotFound) {
		s.logger.DebugContext(ctx, "sign-out message not found", logger.Error(err))
		return signin.SignOutMessage{}, nil, nil
	}
	if err != nil {
		return signin.SignOutMessage{}, nil, err
	}
	client, err := s.findClient(ctx, msg.ClientID)
	if err != nil {
		return signin.SignOutMessage{}, nil, err
	}
	return msg, client, nil
}

// frontChannelURLs lists the iframe targets of the logged-out page: this
// server's end-session callback, the registered protocol logout URLs and
// the client's own logout URI. Duplicates are rendered once.
func (s *Service) frontChannelURLs(client *authn.Client) []string {
	candidates := make([]string, 0, len(s.cfg.ProtocolLogoutURLs)+2)
	candidates = append(candidates, s.cfg.EndSessionCallbackURL)
	candidates = append(candidates, s.cfg.ProtocolLogoutURLs...)
	if client != nil {
		candidates = append(candidates, client.LogoutURI)
	}

	urls := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, u := range candidates {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls
}
