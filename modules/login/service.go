package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/idsrv/binder"
	"github.com/dmitrymomot/idsrv/handler"
	"github.com/dmitrymomot/idsrv/pkg/authn"
	"github.com/dmitrymomot/idsrv/pkg/cookie"
	"github.com/dmitrymomot/idsrv/pkg/csrf"
	"github.com/dmitrymomot/idsrv/pkg/external"
	"github.com/dmitrymomot/idsrv/pkg/i18n"
	"github.com/dmitrymomot/idsrv/pkg/logger"
	"github.com/dmitrymomot/idsrv/pkg/metrics"
	"github.com/dmitrymomot/idsrv/pkg/requestid"
	"github.com/dmitrymomot/idsrv/pkg/signin"
	"github.com/dmitrymomot/idsrv/pkg/throttle"
)

const tracerName = "github.com/dmitrymomot/idsrv/modules/login"

// Service is the sign-in state machine and its HTTP surface.
type Service struct {
	cfg       Config
	users     authn.UserService
	clients   authn.ClientStore
	cookies   *cookie.Manager
	signins   *signin.Store
	providers *external.Registry
	csrf      *csrf.Guard
	throttle  *throttle.Limiter
	views     *Views
	messages  *i18n.Translator

	errorHandler handler.ErrorHandler[handler.Context]
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClientStore sets the client store. Without one every sign-in is
// treated as coming from a client with default settings.
func WithClientStore(cs authn.ClientStore) Option {
	return func(s *Service) { s.clients = cs }
}

// WithProviders sets the external identity providers.
func WithProviders(reg *external.Registry) Option {
	return func(s *Service) {
		if reg != nil {
			s.providers = reg
		}
	}
}

// WithThrottle enables failed local login throttling.
func WithThrottle(l *throttle.Limiter) Option {
	return func(s *Service) { s.throttle = l }
}

// WithTranslator localises the built-in user messages. The language comes
// from the sign-in request's ui_locales, then Accept-Language.
func WithTranslator(t *i18n.Translator) Option {
	return func(s *Service) { s.messages = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracerProvider sets the provider used for user service spans.
// The global provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithErrorHandler sets the handler for binding and rendering errors.
func WithErrorHandler(h handler.ErrorHandler[handler.Context]) Option {
	return func(s *Service) {
		if h != nil {
			s.errorHandler = h
		}
	}
}

// WithClock overrides the time source for ticket timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates the sign-in service.
func New(
	cfg Config,
	users authn.UserService,
	cookies *cookie.Manager,
	signins *signin.Store,
	guard *csrf.Guard,
	views *Views,
	opts ...Option,
) (*Service, error) {
	switch {
	case users == nil:
		return nil, fmt.Errorf("%w: user service", ErrMissingDependency)
	case cookies == nil:
		return nil, fmt.Errorf("%w: cookie manager", ErrMissingDependency)
	case signins == nil:
		return nil, fmt.Errorf("%w: sign-in store", ErrMissingDependency)
	case guard == nil:
		return nil, fmt.Errorf("%w: csrf guard", ErrMissingDependency)
	}
	if err := views.validate(); err != nil {
		return nil, err
	}

	providers, _ := external.NewRegistry()
	s := &Service{
		cfg:       cfg.withDefaults(),
		users:     users,
		cookies:   cookies,
		signins:   signins,
		providers: providers,
		csrf:      guard,
		views:     views,
		logger:    logger.Discard(),
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.errorHandler == nil {
		s.errorHandler = handler.NewErrorHandler(s.logger, handler.ErrorHandlerConfig{
			ErrorPage: func(p handler.ErrorPageParams) templ.Component {
				return s.views.Error(ErrorPageParams{
					SiteName:   s.cfg.SiteName,
					Message:    p.Error,
					StatusCode: p.StatusCode,
					RequestID:  p.RequestID,
				})
			},
		})
	}
	s.logger = s.logger.With(logger.Component("login"))
	return s, nil
}

// Handle returns the router with all sign-in and sign-out routes.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()
	if s.messages != nil {
		r.Use(i18n.Middleware(s.messages, nil))
	}
	protect := s.csrf.Protect(s.rejectForgery)

	r.Get("/login", handler.Wrap(s.loginPage,
		handler.WithBinders[handler.Context, LoginRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, LoginRequest](s.errorHandler),
	))
	r.With(requireForm, protect).Post("/login", handler.Wrap(s.login,
		handler.WithBinders[handler.Context, LoginRequest](
			binder.Query(),
			binder.Form(),
		),
		handler.WithErrorHandler[handler.Context, LoginRequest](s.errorHandler),
	))

	r.Get("/login/external", handler.Wrap(s.challenge,
		handler.WithBinders[handler.Context, ChallengeRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, ChallengeRequest](s.errorHandler),
	))
	r.Get("/login/external/callback", handler.Wrap(s.callback,
		handler.WithBinders[handler.Context, CallbackRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, CallbackRequest](s.errorHandler),
	))

	r.Get("/login/resume", handler.Wrap(s.resume,
		handler.WithBinders[handler.Context, ResumeRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, ResumeRequest](s.errorHandler),
	))

	r.Get("/logout", handler.Wrap(s.logoutPage,
		handler.WithBinders[handler.Context, LogoutRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, LogoutRequest](s.errorHandler),
	))
	r.With(protect).Post("/logout", handler.Wrap(s.logout,
		handler.WithBinders[handler.Context, LogoutRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, LogoutRequest](s.errorHandler),
	))

	return r
}

// requireForm answers 415 to login posts that are not form encoded. It runs
// ahead of the CSRF check, which reads the form.
func requireForm(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := binder.RequireForm(r); err != nil {
			http.Error(w, http.StatusText(http.StatusUnsupportedMediaType), http.StatusUnsupportedMediaType)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) rejectForgery(w http.ResponseWriter, r *http.Request, err error) {
	ctx := handler.NewContext(w, r)
	if rerr := s.fail(ctx, errors.Join(ErrCSRFRejected, err)).Render(w, r); rerr != nil {
		s.errorHandler(ctx, rerr)
	}
}

// fail maps terminal flow errors to their responses: bare status codes for
// protocol level rejections, the error page for everything else.
func (s *Service) fail(ctx handler.Context, err error) handler.Response {
	r := ctx.Request()
	log := s.logger.With(logger.RequestID(requestid.FromContext(r.Context())), logger.Error(err))

	switch {
	case errors.Is(err, ErrFlowNotFound):
		log.InfoContext(ctx, "sign-in flow not found")
		return handler.Status(http.StatusNotFound)
	case errors.Is(err, ErrProviderUnknown):
		log.WarnContext(ctx, "unknown identity provider requested")
		return handler.Status(http.StatusUnauthorized)
	case errors.Is(err, ErrFlowCorrupted):
		log.WarnContext(ctx, "sign-in flow corrupted")
		return s.errorPage(ctx, http.StatusBadRequest, MsgFlowCorrupted)
	case errors.Is(err, ErrCSRFRejected):
		log.WarnContext(ctx, "anti-forgery check failed")
		return s.errorPage(ctx, http.StatusBadRequest, MsgCSRFRejected)
	case errors.Is(err, ErrProviderRestricted):
		log.WarnContext(ctx, "identity provider restricted for client")
		return s.errorPage(ctx, http.StatusBadRequest, MsgProviderRestricted)
	case errors.Is(err, ErrLocalLoginDisabled):
		log.WarnContext(ctx, "local login disabled")
		return s.errorPage(ctx, http.StatusBadRequest, MsgLocalLoginDisabled)
	case errors.Is(err, ErrNoLoginMethod):
		log.WarnContext(ctx, "no login method available")
		return s.errorPage(ctx, http.StatusBadRequest, MsgNoLoginMethod)
	case errors.Is(err, ErrProviderFailed):
		log.ErrorContext(ctx, "external identity provider failed")
		return s.errorPage(ctx, http.StatusBadGateway, MsgProviderFailed)
	default:
		log.ErrorContext(ctx, "sign-in failed")
		return s.errorPage(ctx, http.StatusInternalServerError, MsgUnexpectedError)
	}
}

func (s *Service) errorPage(ctx handler.Context, status int, message string) handler.Response {
	lang, message := s.localize(ctx.Request(), "", message)
	return handler.TemplWithStatus(status, s.views.Error(ErrorPageParams{
		SiteName:   s.cfg.SiteName,
		Lang:       lang,
		Message:    message,
		StatusCode: status,
		RequestID:  requestid.FromContext(ctx.Request().Context()),
	}))
}

// localize returns the page language and message. Built-in messages are
// translated; backend messages have no key and pass through unchanged.
func (s *Service) localize(r *http.Request, uiLocales, message string) (string, string) {
	if s.messages == nil {
		return "", message
	}
	lang := s.messages.Match(uiLocales, i18n.GetLocale(r.Context()))
	if key, ok := messageKeys[message]; ok {
		message = s.messages.Td(lang, key, message)
	}
	return lang, message
}

// findClient resolves the client of a sign-in message. Unknown clients and
// messages without a client yield nil, which means default settings.
func (s *Service) findClient(ctx context.Context, clientID string) (*authn.Client, error) {
	if s.clients == nil || clientID == "" {
		return nil, nil
	}
	c, err := s.clients.FindClientByID(ctx, clientID)
	if errors.Is(err, authn.ErrClientNotFound) {
		s.logger.WarnContext(ctx, "sign-in for unknown client", logger.ClientID(clientID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find client %s: %w", clientID, err)
	}
	return c, nil
}

// callUserService runs one user service call inside a span. A nil result is
// normalised to None; results that cannot be acted upon become errors.
func (s *Service) callUserService(
	ctx context.Context,
	operation string,
	msg signin.Message,
	call func(context.Context) (authn.Result, error),
) (authn.Result, error) {
	ctx, span := s.tracer.Start(ctx, "login."+operation, trace.WithAttributes(
		attribute.String("idsrv.signin_id", msg.ID),
		attribute.String("idsrv.client_id", msg.ClientID),
	))
	defer span.End()

	start := time.Now()
	res, err := call(ctx)
	s.metrics.ObserveUserService(operation, start)

	if err == nil {
		err = authn.Validate(res)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user service failed")
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	if res == nil {
		res = authn.None{}
	}
	span.SetAttributes(attribute.String("idsrv.result", res.Kind()))
	return res, nil
}
