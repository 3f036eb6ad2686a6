// Package requestid assigns a correlation ID to every HTTP request.
//
// The middleware reuses a well-formed X-Request-ID header or generates a
// UUID, stores it in the request context and echoes it in the response.
// The ID is shown on the login error page and attached to log records via
// LoggerExtractor:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware)
package requestid
