// Package login implements the interactive sign-in and sign-out flows of the
// identity server.
//
// A sign-in starts when the protocol layer stores a signin.Message and sends
// the browser to GET /login?signin=<id>. From there the user authenticates
// locally with a username and password, or through an external identity
// provider. The authn.UserService decides the outcome of every attempt and
// returns one of the authn.Result variants:
//
//   - None re-renders the login form with a generic error
//   - Error re-renders the form with the returned message
//   - Partial writes a session-only partial ticket and redirects to the
//     result's resume URL; GET /login/resume later promotes it
//   - Full writes the primary ticket and returns to the sign-in message's
//     return URL
//
// Whether the primary ticket outlives the browser session is decided by the
// authn.CookiePolicy and the "remember me" checkbox.
//
// GET and POST /logout end the session. Every authentication cookie is
// expired and the logged-out page loads the configured front-channel logout
// URLs in hidden iframes.
//
// Built-in messages are English unless WithTranslator is given, in which
// case they are looked up under "login.*" keys in the language picked from
// the sign-in message's ui_locales or the Accept-Language header.
//
// Usage:
//
//	svc, err := login.New(cfg, users, cookies, signins, guard, views.Default(),
//		login.WithClientStore(clients),
//		login.WithProviders(registry),
//		login.WithThrottle(limiter),
//		login.WithTranslator(messages),
//		login.WithLogger(log),
//	)
//	if err != nil {
//		return err
//	}
//	r.Mount("/", svc.Handle())
package login
