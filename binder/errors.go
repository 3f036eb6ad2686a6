package binder

import "errors"

// Common binding errors
var (
	// ErrBinderNotApplicable tells the handler wrapper to skip a binder for this request.
	ErrBinderNotApplicable  = errors.New("binder not applicable")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrMissingContentType   = errors.New("missing content type")
	ErrInvalidForm          = errors.New("invalid form data")
	ErrInvalidQuery         = errors.New("invalid query parameter")
	ErrInvalidTarget        = errors.New("binder target must be a pointer to a struct")
)
