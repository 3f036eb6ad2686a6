package external

import "errors"

var (
	ErrProviderUnknown    = errors.New("external.provider_unknown")
	ErrProviderRestricted = errors.New("external.provider_restricted")
	ErrDuplicateProvider  = errors.New("external.duplicate_provider")
	ErrInvalidConfig      = errors.New("external.invalid_config")
	ErrExchangeFailed     = errors.New("external.exchange_failed")
	ErrUserInfo           = errors.New("external.userinfo_failed")
	ErrMissingIDToken     = errors.New("external.missing_id_token")
	ErrInvalidIDToken     = errors.New("external.invalid_id_token")
	ErrNonceMismatch      = errors.New("external.nonce_mismatch")
)
