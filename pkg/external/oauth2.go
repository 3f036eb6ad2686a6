package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"

	"github.com/dmitrymomot/idsrv/pkg/authn"
)

type oauth2Provider struct {
	name         string
	caption      string
	conf         *oauth2.Config
	userInfoURL  string
	subjectField string
	httpClient   *http.Client
}

func newOAuth2Provider(cfg ProviderConfig, o options) *oauth2Provider {
	return &oauth2Provider{
		name:         cfg.Name,
		caption:      cfg.Caption,
		conf:         cfg.oauth2Config(),
		userInfoURL:  cfg.UserInfoURL,
		subjectField: cfg.SubjectField,
		httpClient:   o.httpClient,
	}
}

func (p *oauth2Provider) Name() string    { return p.name }
func (p *oauth2Provider) Caption() string { return p.caption }

// AuthCodeURL ignores nonce: plain OAuth2 providers do not echo it back.
func (p *oauth2Provider) AuthCodeURL(state, verifier, _ string) string {
	return p.conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

func (p *oauth2Provider) Exchange(ctx context.Context, code, verifier, _ string) (authn.Claims, error) {
	tok, err := exchange(ctx, p.conf, p.httpClient, code, verifier)
	if err != nil {
		return nil, err
	}

	claims, err := fetchUserInfo(ctx, p.httpClient, p.userInfoURL, tok.AccessToken)
	if err != nil {
		return nil, err
	}
	if claims.First(authn.ClaimSubject) == "" && p.subjectField != "" {
		claims.Add(authn.ClaimSubject, claims.First(p.subjectField))
	}
	return claims, nil
}

func exchange(ctx context.Context, conf *oauth2.Config, client *http.Client, code, verifier string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	tok, err := conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExchangeFailed, err)
	}
	return tok, nil
}

func fetchUserInfo(ctx context.Context, client *http.Client, endpoint, accessToken string) (authn.Claims, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUserInfo, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUserInfo, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUserInfo, resp.StatusCode)
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, 1<<20))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUserInfo, err)
	}
	return flattenClaims(raw), nil
}

// flattenClaims keeps scalar values and arrays of scalars. Nested objects are
// dropped: nothing downstream reads them.
func flattenClaims(raw map[string]any) authn.Claims {
	claims := make(authn.Claims, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case []any:
			for _, item := range val {
				if s, ok := scalarString(item); ok {
					claims.Add(k, s)
				}
			}
		default:
			if s, ok := scalarString(val); ok {
				claims.Add(k, s)
			}
		}
	}
	return claims
}

func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		if val {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}

var _ Provider = (*oauth2Provider)(nil)
