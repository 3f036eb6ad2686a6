// Package handler provides a typed wrapper around http.HandlerFunc.
//
// A HandlerFunc receives a Context and a request struct populated by the
// configured binders, and returns a Response that renders itself. Errors
// from binding or rendering go to an ErrorHandler; NewErrorHandler renders
// a templ error page with a status derived from HTTPError or binder errors.
//
// Responses are DataStar aware: Templ patches elements and Redirect emits
// a client side redirect when the request came from DataStar, and behave
// as plain HTML responses and 302 redirects otherwise.
//
//	r.HandleFunc("/login", handler.Wrap(s.login,
//		handler.WithBinders[handler.Context, LoginRequest](binder.Query(), binder.Form()),
//		handler.WithErrorHandler[handler.Context, LoginRequest](errorHandler),
//	))
package handler
