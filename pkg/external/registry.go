package external

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/dmitrymomot/idsrv/pkg/authn"
)

// Registry is the ordered set of configured providers.
type Registry struct {
	providers []Provider
	byName    map[string]Provider
}

// NewRegistry creates a registry. Provider names must be unique.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{byName: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if p == nil {
			continue
		}
		if _, exists := r.byName[p.Name()]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProvider, p.Name())
		}
		r.byName[p.Name()] = p
		r.providers = append(r.providers, p)
	}
	return r, nil
}

// Get returns the provider called name.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Len returns the number of configured providers.
func (r *Registry) Len() int {
	return len(r.providers)
}

// Visible returns the providers the client may use, in configuration order.
func (r *Registry) Visible(client *authn.Client) []Provider {
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if client.AllowsProvider(p.Name()) {
			out = append(out, p)
		}
	}
	return out
}

// Challenge is a validated outbound redirect to a provider.
type Challenge struct {
	Provider    Provider
	RedirectURL string
	// State must be stored in the external-correlation cookie before
	// redirecting; the callback is accepted only if it matches.
	State authn.ExternalState
}

// Challenge validates providerName against the configured providers and the
// client restriction list and prepares the redirect.
// An unknown name fails with ErrProviderUnknown, a name outside a non-empty
// client restriction list with ErrProviderRestricted.
func (r *Registry) Challenge(providerName string, client *authn.Client, signInID string) (Challenge, error) {
	p, ok := r.byName[providerName]
	if !ok {
		return Challenge{}, ErrProviderUnknown
	}
	if !client.AllowsProvider(providerName) {
		return Challenge{}, ErrProviderRestricted
	}

	state, err := randomToken()
	if err != nil {
		return Challenge{}, err
	}
	nonce, err := randomToken()
	if err != nil {
		return Challenge{}, err
	}
	verifier := oauth2.GenerateVerifier()

	return Challenge{
		Provider:    p,
		RedirectURL: p.AuthCodeURL(state, verifier, nonce),
		State: authn.ExternalState{
			SignInID: signInID,
			Provider: providerName,
			State:    state,
			Verifier: verifier,
			Nonce:    nonce,
		},
	}, nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
