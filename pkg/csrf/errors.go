package csrf

import "errors"

var (
	ErrNoCookieManager = errors.New("csrf.no_cookie_manager")
	ErrTokenMissing    = errors.New("csrf.token_missing")
	ErrTokenMismatch   = errors.New("csrf.token_mismatch")
)
