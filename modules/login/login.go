package login

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/idsrv/handler"
	"github.com/dmitrymomot/idsrv/pkg/authn"
	"github.com/dmitrymomot/idsrv/pkg/clientip"
	"github.com/dmitrymomot/idsrv/pkg/cookie"
	"github.com/dmitrymomot/idsrv/pkg/logger"
	"github.com/dmitrymomot/idsrv/pkg/metrics"
	"github.com/dmitrymomot/idsrv/pkg/signin"
	"github.com/dmitrymomot/idsrv/pkg/throttle"
)

// lastUsernameMaxAge keeps the remembered username for a year.
const lastUsernameMaxAge = int(365 * 24 * time.Hour / time.Second)

// LoginRequest handles both GET (query) and POST (query and form).
type LoginRequest struct {
	SignIn     string `query:"signin"`
	Username   string `form:"username"`
	Password   string `form:"password"`
	RememberMe *bool  `form:"rememberMe"`
}

// loginPage renders the login page after giving the user service a chance
// to sign the user in without interaction.
func (s *Service) loginPage(ctx handler.Context, req LoginRequest) handler.Response {
	r := ctx.Request()

	msg, err := s.signins.Resolve(r, req.SignIn)
	if err != nil {
		return s.fail(ctx, errors.Join(ErrFlowNotFound, err))
	}

	client, err := s.findClient(ctx, msg.ClientID)
	if err != nil {
		return s.fail(ctx, err)
	}

	res, err := s.callUserService(ctx, "pre_authenticate", msg, func(c context.Context) (authn.Result, error) {
		return s.users.PreAuthenticate(c, msg)
	})
	if err != nil {
		s.metrics.IncLogin(metrics.FlowPreAuth, metrics.OutcomeFailure)
		return s.fail(ctx, err)
	}

	switch v := res.(type) {
	case authn.Error:
		s.metrics.IncLogin(metrics.FlowPreAuth, v.Kind())
		return s.errorPage(ctx, http.StatusOK, v.Message)
	case authn.Partial, authn.Full:
		return s.signIn(ctx, metrics.FlowPreAuth, msg, withDefaults(res, "", authn.IdentityProviderLocal), nil)
	}

	localEnabled := client.LocalLoginEnabled(s.cfg.EnableLocalLogin)
	visible := s.providers.Visible(client)

	if msg.IdP != "" && s.visible(visible, msg.IdP) {
		return s.redirectToProvider(ctx, msg, client, msg.IdP)
	}
	if !localEnabled {
		switch len(visible) {
		case 0:
			return s.fail(ctx, ErrNoLoginMethod)
		case 1:
			return s.redirectToProvider(ctx, msg, client, visible[0].Name())
		}
	}

	return s.renderLogin(ctx, msg, client, "", "", nil)
}

// login handles the local credential form.
func (s *Service) login(ctx handler.Context, req LoginRequest) handler.Response {
	r := ctx.Request()

	msg, err := s.signins.Resolve(r, req.SignIn)
	if err != nil {
		return s.fail(ctx, errors.Join(ErrFlowCorrupted, err))
	}

	client, err := s.findClient(ctx, msg.ClientID)
	if err != nil {
		return s.fail(ctx, err)
	}
	if !client.LocalLoginEnabled(s.cfg.EnableLocalLogin) {
		return s.fail(ctx, ErrLocalLoginDisabled)
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		s.metrics.IncLogin(metrics.FlowLocal, metrics.OutcomeInvalid)
		s.logger.InfoContext(ctx, "local login rejected before user service",
			logger.SignInID(msg.ID),
			logger.Error(fmt.Errorf("%w: username is empty", ErrValidation)),
		)
		return s.renderLogin(ctx, msg, client, "", MsgUsernameRequired, req.RememberMe)
	}

	throttleKey := throttle.Key(username, clientip.GetIP(r))
	if err := s.throttle.Check(ctx, throttleKey); err != nil {
		if errors.Is(err, throttle.ErrThrottled) {
			s.metrics.IncLogin(metrics.FlowLocal, metrics.OutcomeThrottled)
			s.logger.WarnContext(ctx, "local login throttled", logger.SignInID(msg.ID), logger.Error(errors.Join(ErrThrottled, err)))
			return s.renderLogin(ctx, msg, client, username, MsgThrottled, req.RememberMe)
		}
		s.logger.ErrorContext(ctx, "throttle check failed", logger.Error(err))
	}

	res, err := s.callUserService(ctx, "authenticate_local", msg, func(c context.Context) (authn.Result, error) {
		return s.users.AuthenticateLocal(c, authn.LocalContext{
			Username: username,
			Password: req.Password,
			SignIn:   msg,
		})
	})
	if err != nil {
		s.metrics.IncLogin(metrics.FlowLocal, metrics.OutcomeFailure)
		return s.fail(ctx, err)
	}

	switch v := res.(type) {
	case authn.None:
		s.rejected(ctx, metrics.FlowLocal, v, throttleKey, msg)
		return s.renderLogin(ctx, msg, client, username, MsgInvalidCredentials, req.RememberMe)
	case authn.Error:
		s.rejected(ctx, metrics.FlowLocal, v, throttleKey, msg)
		return s.renderLogin(ctx, msg, client, username, v.Message, req.RememberMe)
	}

	if err := s.throttle.Reset(ctx, throttleKey); err != nil {
		s.logger.ErrorContext(ctx, "throttle reset failed", logger.Error(err))
	}
	if s.cfg.RememberLastUsername {
		if err := s.cookies.Set(ctx.ResponseWriter(), s.cfg.LastUsernameCookie, url.QueryEscape(username),
			cookie.WithMaxAge(lastUsernameMaxAge)); err != nil {
			s.logger.WarnContext(ctx, "remember username failed", logger.Error(err))
		}
	}
	return s.signIn(ctx, metrics.FlowLocal, msg, withDefaults(res, authn.MethodPassword, authn.IdentityProviderLocal), req.RememberMe)
}

func (s *Service) rejected(ctx handler.Context, flow string, res authn.Result, throttleKey string, msg signin.Message) {
	s.metrics.IncLogin(flow, res.Kind())
	s.logger.InfoContext(ctx, "credentials rejected",
		logger.SignInID(msg.ID),
		logger.ClientID(msg.ClientID),
		logger.Outcome(res.Kind()),
		logger.Error(ErrCredentialsRejected),
	)
	if throttleKey == "" {
		return
	}
	if err := s.throttle.Fail(ctx, throttleKey); err != nil {
		s.logger.ErrorContext(ctx, "throttle update failed", logger.Error(err))
	}
}

// renderLogin renders the login page for msg. username pre-fills the form;
// when empty the login hint and then the remembered username are used.
func (s *Service) renderLogin(ctx handler.Context, msg signin.Message, client *authn.Client, username, errMsg string, rememberMe *bool) handler.Response {
	w, r := ctx.ResponseWriter(), ctx.Request()

	token, err := s.csrf.Token(w, r)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("issue csrf token: %w", err))
	}

	if username == "" {
		username = msg.LoginHint
	}
	if username == "" && s.cfg.RememberLastUsername {
		if v, err := s.cookies.Get(r, s.cfg.LastUsernameCookie); err == nil {
			username, _ = url.QueryUnescape(v)
		}
	}

	lang, errMsg := s.localize(r, msg.UILocales, errMsg)
	params := LoginPageParams{
		SiteName:        s.cfg.SiteName,
		Lang:            lang,
		Username:        username,
		ErrorMessage:    errMsg,
		AllowRememberMe: s.cfg.Cookie.AllowRememberMe,
		RememberMe:      s.cfg.Cookie.Decide(rememberMe) == authn.Persistent,
		CSRF:            CSRFField{Name: s.csrf.FieldName(), Value: token},
	}
	if client != nil {
		params.ClientName = client.ClientName
	}
	if client.LocalLoginEnabled(s.cfg.EnableLocalLogin) {
		params.FormAction = s.cfg.path("/login?" + url.Values{"signin": {msg.ID}}.Encode())
	}
	for _, p := range s.providers.Visible(client) {
		params.Providers = append(params.Providers, ProviderLink{
			Name:    p.Name(),
			Caption: p.Caption(),
			URL:     s.cfg.path("/login/external?" + url.Values{"provider": {p.Name()}, "signin": {msg.ID}}.Encode()),
		})
	}

	return handler.Templ(s.views.Login(params), handler.WithTarget("#login"))
}
