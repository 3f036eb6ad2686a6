package authn

import (
	"context"
	"slices"

	"github.com/dmitrymomot/idsrv/pkg/signin"
)

// LocalContext is the input of a local credential check.
type LocalContext struct {
	Username string
	Password string
	SignIn   signin.Message
}

// ExternalContext is the input of an external identity check. It carries no
// subject of a current session: external checks always run anonymously.
type ExternalContext struct {
	Identity ExternalIdentity
	SignIn   signin.Message
}

// UserService verifies credentials and maps identities to local subjects.
// A non-nil error is a failure of the service itself, not a rejected login.
type UserService interface {
	PreAuthenticate(ctx context.Context, msg signin.Message) (Result, error)
	AuthenticateLocal(ctx context.Context, in LocalContext) (Result, error)
	AuthenticateExternal(ctx context.Context, in ExternalContext) (Result, error)
}

// Client is the subset of relying party metadata the sign-in flow needs.
type Client struct {
	ClientID                     string   `json:"client_id" yaml:"client_id"`
	ClientName                   string   `json:"client_name" yaml:"client_name"`
	EnableLocalLogin             *bool    `json:"enable_local_login,omitempty" yaml:"enable_local_login,omitempty"`
	IdentityProviderRestrictions []string `json:"identity_provider_restrictions,omitempty" yaml:"identity_provider_restrictions,omitempty"`
	LogoutURI                    string   `json:"logout_uri,omitempty" yaml:"logout_uri,omitempty"`
}

// LocalLoginEnabled reports whether local login is available for the client.
// deployment is the server-wide switch; a client may only narrow it, so both
// must be on. A client without an explicit setting follows deployment.
func (c *Client) LocalLoginEnabled(deployment bool) bool {
	return deployment && (c == nil || c.EnableLocalLogin == nil || *c.EnableLocalLogin)
}

// AllowsProvider reports whether the client may use the named provider.
// An empty restriction list allows every provider.
func (c *Client) AllowsProvider(name string) bool {
	if c == nil || len(c.IdentityProviderRestrictions) == 0 {
		return true
	}
	return slices.Contains(c.IdentityProviderRestrictions, name)
}

// ClientStore resolves client metadata. Unknown clients return
// ErrClientNotFound.
type ClientStore interface {
	FindClientByID(ctx context.Context, clientID string) (*Client, error)
}
