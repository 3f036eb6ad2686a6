package i18n

import "errors"

var (
	ErrEmptyLanguage    = errors.New("i18n: empty language code")
	ErrInvalidLanguage  = errors.New("i18n: invalid language code")
	ErrNoMessages       = errors.New("i18n: language without messages")
	ErrLoadTranslations = errors.New("i18n: failed to load translations")
)
