package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/dmitrymomot/idsrv/binder"
	"github.com/dmitrymomot/idsrv/pkg/logger"
	"github.com/dmitrymomot/idsrv/pkg/requestid"
)

// ErrorPageParams contains data for rendering error pages.
type ErrorPageParams struct {
	Error      string
	StatusCode int
	RequestID  string
}

// ErrorHandlerConfig configures NewErrorHandler.
type ErrorHandlerConfig struct {
	// ErrorPage renders the full error page for regular requests.
	ErrorPage func(ErrorPageParams) templ.Component

	// ErrorTarget is the selector patched for DataStar requests (default: "#error").
	ErrorTarget string
}

// ErrorInfo is the classified form of a handler error.
type ErrorInfo struct {
	StatusCode int
	Message    string
	LogLevel   slog.Level
}

func classifyError(err error) ErrorInfo {
	info := ErrorInfo{
		StatusCode: http.StatusInternalServerError,
		Message:    "An error occurred processing your request",
	}

	var httpErr HTTPError
	switch {
	case errors.As(err, &httpErr):
		info.StatusCode = httpErr.Code
		info.Message = httpErr.Key
	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		info.StatusCode = http.StatusUnsupportedMediaType
		info.Message = ErrUnsupportedMediaType.Key
	case errors.Is(err, binder.ErrInvalidForm), errors.Is(err, binder.ErrInvalidQuery):
		info.StatusCode = http.StatusBadRequest
		info.Message = ErrBadRequest.Key
	}

	info.LogLevel = slog.LevelError
	if info.StatusCode < http.StatusInternalServerError {
		info.LogLevel = slog.LevelWarn
	}
	return info
}

// NewErrorHandler creates an error handler that renders the configured
// error page with the classified status code. DataStar requests receive
// the page as an element patch. Without an ErrorPage it falls back to
// http.Error.
func NewErrorHandler(log *slog.Logger, cfg ErrorHandlerConfig) ErrorHandler[Context] {
	if log == nil {
		log = logger.Discard()
	}
	if cfg.ErrorTarget == "" {
		cfg.ErrorTarget = "#error"
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		w := ctx.ResponseWriter()
		reqID := requestid.FromContext(r.Context())
		info := classifyError(err)

		log.LogAttrs(r.Context(), info.LogLevel, "request error",
			logger.RequestID(reqID),
			logger.Error(err),
			slog.Int("status_code", info.StatusCode),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		if cfg.ErrorPage == nil {
			http.Error(w, info.Message, info.StatusCode)
			return
		}

		page := cfg.ErrorPage(ErrorPageParams{
			Error:      info.Message,
			StatusCode: info.StatusCode,
			RequestID:  reqID,
		})

		var resp Response
		if IsDataStar(r) {
			resp = Templ(page, WithTarget(cfg.ErrorTarget), WithPatchMode(datastar.ElementPatchModeInner))
		} else {
			resp = TemplWithStatus(info.StatusCode, page)
		}
		if rerr := resp.Render(w, r); rerr != nil {
			log.ErrorContext(r.Context(), "failed to render error page",
				logger.RequestID(reqID),
				logger.Error(rerr),
				logger.Event("render_error_page"),
			)
		}
	}
}
