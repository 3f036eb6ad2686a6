package throttle

import "errors"

var (
	ErrThrottled        = errors.New("throttle.too_many_attempts")
	ErrInvalidConfig    = errors.New("throttle.invalid_config")
	ErrNoStore          = errors.New("throttle.no_store")
	ErrStoreUnavailable = errors.New("throttle.store_unavailable")
)
