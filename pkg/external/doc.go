// Package external federates sign-in to external identity providers.
//
// A Provider builds the outbound authorization URL and turns the code
// returned on callback into a flat claim set. Two adapters are included, both
// on golang.org/x/oauth2 with PKCE: an OAuth2 adapter reading claims from a
// userinfo endpoint, and an OpenID Connect adapter reading them from the
// id_token (github.com/golang-jwt/jwt/v5). Presets exist for Google and GitHub.
//
// The Registry keeps the configured providers and validates challenges:
//
//	reg, _ := external.NewRegistry(google, github)
//	ch, err := reg.Challenge("google", client, signInID)
//	switch {
//	case errors.Is(err, external.ErrProviderUnknown):
//		// 401
//	case errors.Is(err, external.ErrProviderRestricted):
//		// client is not allowed to use this provider
//	}
//	// store ch.State in the external cookie, redirect to ch.RedirectURL
package external
