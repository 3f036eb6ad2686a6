package signin

import "errors"

var (
	ErrNotFound       = errors.New("signin.not_found")
	ErrInvalidID      = errors.New("signin.invalid_id")
	ErrMissingReturn  = errors.New("signin.missing_return_url")
	ErrNoCookieWriter = errors.New("signin.no_cookie_manager")
)
