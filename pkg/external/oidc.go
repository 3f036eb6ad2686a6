package external

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/idsrv/pkg/authn"
)

const clockSkew = time.Minute

// oidcProvider reads claims from the id_token returned by the token endpoint.
// The token arrives on a direct TLS connection to the issuer's token
// endpoint, so its signature is not checked; issuer, audience, expiry and
// nonce are.
type oidcProvider struct {
	name        string
	caption     string
	conf        *oauth2.Config
	issuer      string
	userInfoURL string
	httpClient  *http.Client
	now         func() time.Time
}

func newOIDCProvider(cfg ProviderConfig, o options) *oidcProvider {
	conf := cfg.oauth2Config()
	if !slices.Contains(conf.Scopes, "openid") {
		conf.Scopes = append([]string{"openid"}, conf.Scopes...)
	}
	return &oidcProvider{
		name:        cfg.Name,
		caption:     cfg.Caption,
		conf:        conf,
		issuer:      cfg.Issuer,
		userInfoURL: cfg.UserInfoURL,
		httpClient:  o.httpClient,
		now:         o.now,
	}
}

func (p *oidcProvider) Name() string    { return p.name }
func (p *oidcProvider) Caption() string { return p.caption }

func (p *oidcProvider) AuthCodeURL(state, verifier, nonce string) string {
	return p.conf.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("nonce", nonce),
	)
}

func (p *oidcProvider) Exchange(ctx context.Context, code, verifier, nonce string) (authn.Claims, error) {
	tok, err := exchange(ctx, p.conf, p.httpClient, code, verifier)
	if err != nil {
		return nil, err
	}

	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, ErrMissingIDToken
	}

	claims, err := p.parseIDToken(raw, nonce)
	if err != nil {
		return nil, err
	}

	if p.userInfoURL != "" {
		extra, err := fetchUserInfo(ctx, p.httpClient, p.userInfoURL, tok.AccessToken)
		if err != nil {
			return nil, err
		}
		for k, vs := range extra {
			if _, exists := claims[k]; exists {
				continue
			}
			claims[k] = vs
		}
	}
	return claims, nil
}

func (p *oidcProvider) parseIDToken(raw, nonce string) (authn.Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser(jwt.WithJSONNumber()).ParseUnverified(raw, mc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIDToken, err)
	}

	v := jwt.NewValidator(
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.conf.ClientID),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(p.now),
	)
	if err := v.Validate(mc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIDToken, err)
	}

	got, _ := mc["nonce"].(string)
	if nonce != "" && subtle.ConstantTimeCompare([]byte(got), []byte(nonce)) != 1 {
		return nil, ErrNonceMismatch
	}

	return flattenClaims(mc), nil
}

var _ Provider = (*oidcProvider)(nil)
