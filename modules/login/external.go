package login

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dmitrymomot/idsrv/handler"
	"github.com/dmitrymomot/idsrv/pkg/authn"
	"github.com/dmitrymomot/idsrv/pkg/external"
	"github.com/dmitrymomot/idsrv/pkg/logger"
	"github.com/dmitrymomot/idsrv/pkg/metrics"
	"github.com/dmitrymomot/idsrv/pkg/signin"
)

// ChallengeRequest selects an external provider for a sign-in flow.
type ChallengeRequest struct {
	Provider string `query:"provider"`
	SignIn   string `query:"signin"`
}

// CallbackRequest is the authorization response of an external provider.
type CallbackRequest struct {
	State            string `query:"state"`
	Code             string `query:"code"`
	Error            string `query:"error"`
	ErrorDescription string `query:"error_description"`
}

func (s *Service) challenge(ctx handler.Context, req ChallengeRequest) handler.Response {
	// Unknown names are rejected before the flow is looked at.
	if _, ok := s.providers.Get(req.Provider); !ok {
		return s.fail(ctx, fmt.Errorf("%w: %q", ErrProviderUnknown, req.Provider))
	}

	msg, err := s.signins.Resolve(ctx.Request(), req.SignIn)
	if err != nil {
		return s.fail(ctx, errors.Join(ErrFlowCorrupted, err))
	}
	client, err := s.findClient(ctx, msg.ClientID)
	if err != nil {
		return s.fail(ctx, err)
	}
	return s.redirectToProvider(ctx, msg, client, req.Provider)
}

// redirectToProvider writes the external-correlation cookie and redirects
// to the provider's authorization endpoint.
func (s *Service) redirectToProvider(ctx handler.Context, msg signin.Message, client *authn.Client, provider string) handler.Response {
	ch, err := s.providers.Challenge(provider, client, msg.ID)
	switch {
	case errors.Is(err, external.ErrProviderUnknown):
		return s.fail(ctx, errors.Join(ErrProviderUnknown, err))
	case errors.Is(err, external.ErrProviderRestricted):
		return s.fail(ctx, errors.Join(ErrProviderRestricted, err))
	case err != nil:
		return s.fail(ctx, err)
	}

	if err := s.cookies.SetProtected(ctx.ResponseWriter(), s.cfg.ExternalCookie, authn.PurposeExternal, ch.State, s.cfg.ExternalLifetime); err != nil {
		return s.fail(ctx, fmt.Errorf("write external correlation: %w", err))
	}

	s.metrics.IncChallenge(provider)
	s.logger.InfoContext(ctx, "redirecting to identity provider",
		logger.SignInID(msg.ID),
		logger.ClientID(msg.ClientID),
		logger.Provider(provider),
	)
	return handler.Redirect(ch.RedirectURL)
}

// callback completes an external login. The external-correlation cookie is
// mandatory and its state must match the one returned by the provider.
// The state is single use: once read, the cookie is expired whatever the
// outcome.
func (s *Service) callback(ctx handler.Context, req CallbackRequest) handler.Response {
	w, r := ctx.ResponseWriter(), ctx.Request()

	var st authn.ExternalState
	if _, err := s.cookies.GetProtected(r, s.cfg.ExternalCookie, authn.PurposeExternal, &st); err != nil {
		return s.fail(ctx, errors.Join(ErrFlowCorrupted, err))
	}
	s.cookies.Delete(w, s.cfg.ExternalCookie)
	if req.State == "" || subtle.ConstantTimeCompare([]byte(req.State), []byte(st.State)) != 1 {
		return s.fail(ctx, fmt.Errorf("%w: state mismatch", ErrFlowCorrupted))
	}

	msg, err := s.signins.Resolve(r, st.SignInID)
	if err != nil {
		return s.fail(ctx, errors.Join(ErrFlowCorrupted, err))
	}
	client, err := s.findClient(ctx, msg.ClientID)
	if err != nil {
		return s.fail(ctx, err)
	}

	if req.Error != "" {
		s.metrics.IncLogin(metrics.FlowExternal, metrics.OutcomeFailure)
		s.logger.WarnContext(ctx, "identity provider returned an error",
			logger.Provider(st.Provider),
			logger.SignInID(msg.ID),
			logger.Error(fmt.Errorf("%s: %s", req.Error, req.ErrorDescription)),
		)
		return s.renderLogin(ctx, msg, client, "", MsgExternalLoginAborted, nil)
	}

	provider, ok := s.providers.Get(st.Provider)
	if !ok {
		return s.fail(ctx, fmt.Errorf("%w: provider %q no longer configured", ErrFlowCorrupted, st.Provider))
	}

	claims, err := provider.Exchange(ctx, req.Code, st.Verifier, st.Nonce)
	if err != nil {
		s.metrics.IncLogin(metrics.FlowExternal, metrics.OutcomeFailure)
		return s.fail(ctx, errors.Join(ErrProviderFailed, err))
	}

	identity, err := authn.NewExternalIdentity(st.Provider, claims)
	if err != nil {
		s.metrics.IncLogin(metrics.FlowExternal, metrics.OutcomeInvalid)
		s.logger.WarnContext(ctx, "external identity rejected",
			logger.Provider(st.Provider),
			logger.SignInID(msg.ID),
			logger.Error(errors.Join(ErrMissingExternalClaims, err)),
		)
		return s.renderLogin(ctx, msg, client, "", MsgNoMatchingAccount, nil)
	}

	res, err := s.callUserService(ctx, "authenticate_external", msg, func(c context.Context) (authn.Result, error) {
		return s.users.AuthenticateExternal(c, authn.ExternalContext{Identity: identity, SignIn: msg})
	})
	if err != nil {
		s.metrics.IncLogin(metrics.FlowExternal, metrics.OutcomeFailure)
		return s.fail(ctx, err)
	}

	switch v := res.(type) {
	case authn.None:
		s.rejected(ctx, metrics.FlowExternal, v, "", msg)
		return s.renderLogin(ctx, msg, client, "", MsgInvalidCredentials, nil)
	case authn.Error:
		s.rejected(ctx, metrics.FlowExternal, v, "", msg)
		return s.renderLogin(ctx, msg, client, "", v.Message, nil)
	}

	return s.signIn(ctx, metrics.FlowExternal, msg, withDefaults(res, authn.MethodExternal, st.Provider), nil)
}

func (s *Service) visible(providers []external.Provider, name string) bool {
	for _, p := range providers {
		if p.Name() == name {
			return true
		}
	}
	return false
}
