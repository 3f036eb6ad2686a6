package localusers

import "errors"

var (
	ErrInvalidUser   = errors.New("localusers.invalid_user")
	ErrDuplicateUser = errors.New("localusers.duplicate_user")
)

// Messages returned to the login page in authn.Error results.
const (
	MsgAccountDisabled = "Your account is disabled."
)
