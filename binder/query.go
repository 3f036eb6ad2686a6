package binder

import (
	"net/http"
)

// Query creates a query parameter binder. Fields are matched by the `query` tag.
//
//	type LoginRequest struct {
//		SignIn string `query:"signin"`
//	}
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrInvalidQuery)
	}
}
