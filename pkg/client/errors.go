package client

import "errors"

var (
	ErrInvalidClient   = errors.New("client.invalid")
	ErrDuplicateClient = errors.New("client.duplicate")
	ErrStoreFailure    = errors.New("client.store_failure")
)
