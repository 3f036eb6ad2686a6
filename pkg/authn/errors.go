package authn

import "errors"

var (
	ErrMissingSubject  = errors.New("authn.missing_subject")
	ErrMissingProvider = errors.New("authn.missing_provider")
	ErrInvalidResult   = errors.New("authn.invalid_result")
	ErrClientNotFound  = errors.New("authn.client_not_found")
)
