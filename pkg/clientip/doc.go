// Package clientip resolves the originating client address of a request.
//
// The address keys login throttling, so proxy headers are only honoured when
// explicitly trusted through Config:
//
//	rv := clientip.New("CF-Connecting-IP", "X-Forwarded-For")
//	r.Use(rv.Middleware)
//	...
//	ip := clientip.GetIP(req)
package clientip
