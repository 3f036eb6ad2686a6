package cookie

import "errors"

var (
	ErrNoProtector    = errors.New("cookie.no_protector")
	ErrCookieNotFound = errors.New("cookie.not_found")
	ErrInvalidName    = errors.New("cookie.invalid_name")
)
