package external

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/dmitrymomot/idsrv/pkg/authn"
)

// Provider is an external identity provider.
type Provider interface {
	// Name is the identifier used in URLs and client restrictions.
	Name() string
	// Caption is the label shown on the login page.
	Caption() string
	// AuthCodeURL returns the challenge URL for the given state, PKCE verifier and nonce.
	AuthCodeURL(state, verifier, nonce string) string
	// Exchange redeems the authorization code and returns the identity claims.
	Exchange(ctx context.Context, code, verifier, nonce string) (authn.Claims, error)
}

// Provider types accepted in configuration.
const (
	TypeOAuth2 = "oauth2"
	TypeOIDC   = "oidc"
	TypeGoogle = "google"
	TypeGitHub = "github"
)

// ProviderConfig describes one external provider.
type ProviderConfig struct {
	Name         string   `yaml:"name"`
	Caption      string   `yaml:"caption"`
	Type         string   `yaml:"type"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	RedirectURL  string   `yaml:"redirect_url"`
	AuthURL      string   `yaml:"auth_url"`
	TokenURL     string   `yaml:"token_url"`
	UserInfoURL  string   `yaml:"userinfo_url"`
	Issuer       string   `yaml:"issuer"`
	Scopes       []string `yaml:"scopes"`
	// SubjectField names the userinfo field copied into the "sub" claim when
	// the provider does not return one (GitHub uses "id").
	SubjectField string `yaml:"subject_field"`
}

func (c ProviderConfig) withPreset() ProviderConfig {
	switch c.Type {
	case TypeGoogle:
		if c.AuthURL == "" {
			c.AuthURL = google.Endpoint.AuthURL
		}
		if c.TokenURL == "" {
			c.TokenURL = google.Endpoint.TokenURL
		}
		if c.Issuer == "" {
			c.Issuer = "https://accounts.google.com"
		}
		if len(c.Scopes) == 0 {
			c.Scopes = []string{"openid", "email", "profile"}
		}
	case TypeGitHub:
		if c.AuthURL == "" {
			c.AuthURL = github.Endpoint.AuthURL
		}
		if c.TokenURL == "" {
			c.TokenURL = github.Endpoint.TokenURL
		}
		if c.UserInfoURL == "" {
			c.UserInfoURL = "https://api.github.com/user"
		}
		if c.SubjectField == "" {
			c.SubjectField = "id"
		}
		if len(c.Scopes) == 0 {
			c.Scopes = []string{"read:user", "user:email"}
		}
	}
	if c.Caption == "" {
		c.Caption = c.Name
	}
	return c
}

func (c ProviderConfig) validate() error {
	var missing []string
	if c.Name == "" {
		missing = append(missing, "name")
	}
	if c.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if c.AuthURL == "" {
		missing = append(missing, "auth_url")
	}
	if c.TokenURL == "" {
		missing = append(missing, "token_url")
	}
	if c.RedirectURL == "" {
		missing = append(missing, "redirect_url")
	}
	switch c.Type {
	case TypeOIDC, TypeGoogle:
		if c.Issuer == "" {
			missing = append(missing, "issuer")
		}
	case TypeOAuth2, TypeGitHub:
		if c.UserInfoURL == "" {
			missing = append(missing, "userinfo_url")
		}
	default:
		return fmt.Errorf("%w: provider %q has unknown type %q", ErrInvalidConfig, c.Name, c.Type)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: provider %q is missing %s", ErrInvalidConfig, c.Name, strings.Join(missing, ", "))
	}
	return nil
}

func (c ProviderConfig) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       c.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.AuthURL,
			TokenURL: c.TokenURL,
		},
	}
}

// New builds a provider from its configuration.
func New(cfg ProviderConfig, opts ...Option) (Provider, error) {
	cfg = cfg.withPreset()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := options{httpClient: &http.Client{Timeout: 10 * time.Second}, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	switch cfg.Type {
	case TypeOIDC, TypeGoogle:
		return newOIDCProvider(cfg, o), nil
	default:
		return newOAuth2Provider(cfg, o), nil
	}
}

// NewFromConfig builds every configured provider.
func NewFromConfig(cfgs []ProviderConfig, opts ...Option) ([]Provider, error) {
	out := make([]Provider, 0, len(cfgs))
	for _, c := range cfgs {
		p, err := New(c, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

type options struct {
	httpClient *http.Client
	now        func() time.Time
}

// Option configures provider adapters.
type Option func(*options)

// WithHTTPClient sets the client used for token and userinfo requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithClock overrides the time source used to validate id_token expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
