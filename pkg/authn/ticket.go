package authn

import "time"

// Purposes bind protected cookie payloads to the cookie kind they belong to.
const (
	PurposeFull     = "authn.full"
	PurposePartial  = "authn.partial"
	PurposeExternal = "authn.external"
)

// FullTicket is the payload of the primary authentication cookie.
type FullTicket struct {
	Subject              string    `json:"sub"`
	DisplayName          string    `json:"name,omitempty"`
	AuthenticationMethod string    `json:"amr"`
	IdentityProvider     string    `json:"idp"`
	IssuedAt             time.Time `json:"iat"`
	ExpiresAt            time.Time `json:"exp"`
	Persistent           bool      `json:"persistent,omitempty"`
}

// PartialTicket is the payload of the partial-login cookie. ReturnURL is
// copied from the sign-in message that started the flow and is the only
// place a resumed login may go.
type PartialTicket struct {
	TempSubject          string    `json:"sub"`
	Name                 string    `json:"name,omitempty"`
	AuthenticationMethod string    `json:"amr"`
	IdentityProvider     string    `json:"idp"`
	ReturnURL            string    `json:"return_url"`
	ResumeID             string    `json:"resume_id"`
	SignInID             string    `json:"signin_id,omitempty"`
	IssuedAt             time.Time `json:"iat"`
}

// ExternalState is the payload of the external-correlation cookie written
// before redirecting to a provider.
type ExternalState struct {
	SignInID string `json:"signin_id"`
	Provider string `json:"idp"`
	State    string `json:"state"`
	Verifier string `json:"verifier,omitempty"`
	Nonce    string `json:"nonce,omitempty"`
}

// IdentityProviderLocal is recorded for logins verified by this server.
const IdentityProviderLocal = "idsrv"

// NewFullTicket builds the primary ticket for a full result.
func NewFullTicket(r Full, now time.Time, lifetime time.Duration, persistent bool) FullTicket {
	idp := r.IdentityProvider
	if idp == "" {
		idp = IdentityProviderLocal
	}
	return FullTicket{
		Subject:              r.Subject,
		DisplayName:          r.DisplayName,
		AuthenticationMethod: r.AuthenticationMethod,
		IdentityProvider:     idp,
		IssuedAt:             now.UTC().Truncate(time.Second),
		ExpiresAt:            now.Add(lifetime).UTC().Truncate(time.Second),
		Persistent:           persistent,
	}
}

// Promote turns a partial ticket into the full result it stands for.
func (t PartialTicket) Promote() Full {
	return Full{
		Subject:              t.TempSubject,
		DisplayName:          t.Name,
		AuthenticationMethod: t.AuthenticationMethod,
		IdentityProvider:     t.IdentityProvider,
	}
}
