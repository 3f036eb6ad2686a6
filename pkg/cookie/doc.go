// Package cookie writes and reads the cookies that carry sign-in state.
//
// The Manager wraps net/http cookies with a set of default attributes and
// delegates payload protection to a ticket.Protector, so every protected
// cookie is encrypted, authenticated and time-boxed.
//
// # Usage
//
//	p, _ := ticket.New(secrets)
//	m, _ := cookie.New(p, cookie.WithSecure(true))
//
//	// protected, session-only
//	_ = m.SetProtected(w, "idsrv", "full", fullTicket, 10*time.Hour)
//
//	// protected, persistent
//	_ = m.SetProtected(w, "idsrv", "full", fullTicket, 10*time.Hour,
//		cookie.WithExpires(time.Now().Add(10*time.Hour)))
//
//	var t FullTicket
//	if err := m.GetProtected(r, "idsrv", "full", &t); err != nil {
//		// cookie.ErrCookieNotFound or a ticket error
//	}
//
//	m.Delete(w, "idsrv")
//
// A cookie written without an expiry or max age is a browser-session cookie.
// Delete always emits an expiry header, whether or not the browser sent the
// cookie.
package cookie
