package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Format is the log output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config is the environment-driven logger configuration.
// An empty Level or Format falls back to the defaults for Env: text at
// debug level for development, JSON at info level elsewhere.
type Config struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"SERVICE_NAME" envDefault:"idsrv"`
	Level   string `env:"LOG_LEVEL"`
	Format  Format `env:"LOG_FORMAT"`
}

type options struct {
	level      slog.Level
	format     Format
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
}

// Option configures New.
type Option func(*options)

func WithLevel(l slog.Level) Option {
	return func(o *options) { o.level = l }
}

// WithFormat panics on unknown formats; a misconfigured logger should stop
// startup.
func WithFormat(f Format) Option {
	if f != FormatJSON && f != FormatText {
		panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
	}
	return func(o *options) { o.format = f }
}

func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.output = w
		}
	}
}

// WithAttr adds static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(o *options) { o.attrs = append(o.attrs, attrs...) }
}

// WithContextExtractors registers per-record context extractors.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(o *options) {
		for _, ex := range extractors {
			if ex != nil {
				o.extractors = append(o.extractors, ex)
			}
		}
	}
}

// WithTraceContext adds trace_id and span_id of the active span, if any.
func WithTraceContext() Option {
	return WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
		sc := trace.SpanContextFromContext(ctx)
		if !sc.IsValid() {
			return slog.Attr{}, false
		}
		return Group("trace",
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		), true
	})
}

// New creates a logger. Without options it writes JSON at info level to stdout.
func New(opts ...Option) *slog.Logger {
	o := options{level: slog.LevelInfo, format: FormatJSON, output: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	hopts := &slog.HandlerOptions{Level: o.level}
	var h slog.Handler
	if o.format == FormatText {
		h = slog.NewTextHandler(o.output, hopts)
	} else {
		h = slog.NewJSONHandler(o.output, hopts)
	}
	if len(o.attrs) > 0 {
		h = h.WithAttrs(o.attrs)
	}
	if len(o.extractors) > 0 {
		h = &contextHandler{next: h, extractors: o.extractors}
	}
	return slog.New(h)
}

// NewFromConfig creates a logger from cfg. opts are applied after the
// configuration and may override it.
func NewFromConfig(cfg Config, opts ...Option) (*slog.Logger, error) {
	level, format := slog.LevelInfo, FormatJSON
	if isDevelopment(cfg.Env) {
		level, format = slog.LevelDebug, FormatText
	}
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}
	switch cfg.Format {
	case "":
	case FormatJSON, FormatText:
		format = cfg.Format
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	base := []Option{WithLevel(level), WithFormat(format)}
	if cfg.Service != "" {
		base = append(base, WithAttr(slog.String("service", cfg.Service)))
	}
	if cfg.Env != "" {
		base = append(base, WithAttr(slog.String("env", cfg.Env)))
	}
	return New(append(base, opts...)...), nil
}

// Discard returns a logger that drops every record. Components use it when
// no logger is injected.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func isDevelopment(env string) bool {
	switch strings.ToLower(env) {
	case "", "dev", "development", "local":
		return true
	}
	return false
}
