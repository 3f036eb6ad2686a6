package authn

import (
	"maps"
	"slices"
	"strings"
)

// Claim types used to find the subject of an external identity, in order.
const (
	ClaimSubject        = "sub"
	ClaimNameIdentifier = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
)

// Claims is a multimap of claim type to values as presented by an external
// provider.
type Claims map[string][]string

// Add appends a value for claim type t. Empty values are skipped.
func (c Claims) Add(t, v string) {
	if v == "" {
		return
	}
	c[t] = append(c[t], v)
}

// First returns the first value of claim type t.
func (c Claims) First(t string) string {
	if vs := c[t]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Clone returns a deep copy of c.
func (c Claims) Clone() Claims {
	out := make(Claims, len(c))
	for k, v := range c {
		out[k] = slices.Clone(v)
	}
	return out
}

// Types returns the claim types in sorted order.
func (c Claims) Types() []string {
	return slices.Sorted(maps.Keys(c))
}

// ExternalIdentity is an identity asserted by an external provider, reduced
// to the fields the sign-in flow relies on.
type ExternalIdentity struct {
	Provider   string
	ProviderID string
	Claims     Claims
}

// NewExternalIdentity normalizes claims returned by provider. The provider
// subject comes from the "sub" claim, falling back to the name identifier
// claim; when neither is present ErrMissingSubject is returned.
func NewExternalIdentity(provider string, claims Claims) (ExternalIdentity, error) {
	if strings.TrimSpace(provider) == "" {
		return ExternalIdentity{}, ErrMissingProvider
	}

	id := strings.TrimSpace(claims.First(ClaimSubject))
	if id == "" {
		id = strings.TrimSpace(claims.First(ClaimNameIdentifier))
	}
	if id == "" {
		return ExternalIdentity{}, ErrMissingSubject
	}

	return ExternalIdentity{
		Provider:   provider,
		ProviderID: id,
		Claims:     claims.Clone(),
	}, nil
}
