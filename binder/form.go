package binder

import (
	"fmt"
	"mime"
	"net/http"
)

const formMediaType = "application/x-www-form-urlencoded"

// Form creates a binder for application/x-www-form-urlencoded bodies.
//
// Requests without a body method (GET, HEAD, DELETE) are skipped with
// ErrBinderNotApplicable so the same request struct can serve both the page
// render and the form post. Any other content type is rejected with
// ErrUnsupportedMediaType.
//
// Fields are matched by the `form` tag:
//
//	type LoginRequest struct {
//		Username   string `form:"username"`
//		Password   string `form:"password"`
//		RememberMe *bool  `form:"rememberMe"` // nil when the field was not posted
//	}
func Form() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
			return ErrBinderNotApplicable
		}

		if err := RequireForm(r); err != nil {
			return err
		}
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidForm, err)
		}
		return bindToStruct(v, "form", r.PostForm, ErrInvalidForm)
	}
}

// RequireForm checks that r carries a url-encoded form body without reading it.
func RequireForm(r *http.Request) error {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return fmt.Errorf("%w: expected %s", ErrMissingContentType, formMediaType)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != formMediaType {
		return fmt.Errorf("%w: got %s, expected %s", ErrUnsupportedMediaType, contentType, formMediaType)
	}
	return nil
}
