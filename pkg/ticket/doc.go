// Package ticket seals small JSON payloads into opaque, tamper-evident strings
// suitable for cookie values.
//
// A Protector encrypts an envelope holding the payload together with its issue
// and expiry timestamps using AES-256-GCM. Keys are derived from the configured
// secrets with HKDF-SHA256, one key per purpose, so a value minted for one
// cookie kind never opens as another. The first secret seals; every secret is
// tried when opening, which lets operators rotate secrets without logging
// everybody out.
//
// Basic usage:
//
//	p, err := ticket.New([]string{os.Getenv("TICKET_SECRET")})
//	if err != nil {
//		return err
//	}
//
//	value, err := p.Protect("signin", msg, 10*time.Minute)
//	...
//	var msg SignInMessage
//	env, err := p.Unprotect("signin", value, &msg)
//	switch {
//	case errors.Is(err, ticket.ErrExpired):
//		// flow timed out
//	case err != nil:
//		// tampered, wrong purpose or unknown key
//	}
package ticket
