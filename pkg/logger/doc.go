// Package logger builds the service's slog loggers and names the attributes
// shared by every component (sub, signin_id, client_id, idp, outcome,
// request_id).
//
// Request-scoped values are injected per record through ContextExtractor
// functions, so a logger created once at startup still tags each line with
// the request id and trace of the context it is called with:
//
//	log, err := logger.NewFromConfig(cfg.Log,
//		logger.WithTraceContext(),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(r.Context(), "sign-in completed",
//		logger.Subject(t.Subject),
//		logger.ClientID(msg.ClientID),
//	)
//
// Attribute helpers return an empty slog.Attr for empty values, which slog
// handlers omit.
package logger
