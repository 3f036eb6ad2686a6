package ticket

import "errors"

var (
	ErrNoSecret         = errors.New("ticket.no_secret")
	ErrSecretTooShort   = errors.New("ticket.secret_too_short")
	ErrInvalidPurpose   = errors.New("ticket.invalid_purpose")
	ErrInvalidTTL       = errors.New("ticket.invalid_ttl")
	ErrInvalidFormat    = errors.New("ticket.invalid_format")
	ErrDecryptionFailed = errors.New("ticket.decryption_failed")
	ErrExpired          = errors.New("ticket.expired")
)
