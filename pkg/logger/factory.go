package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dmitrymomot/tillkit/pkg/config"
)

// Format represents logger output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Option configures logger creation.
type Option func(*options)

func WithLevel(l slog.Level) Option {
	return func(o *options) { o.level = l }
}

// WithLevelName parses "debug", "info", "warn" or "error".
// Unknown names leave the level unchanged.
func WithLevelName(name string) Option {
	return func(o *options) {
		var l slog.Level
		if err := l.UnmarshalText([]byte(strings.TrimSpace(name))); err == nil {
			o.level = l
		}
	}
}

// WithFormat sets output format. Panics for unknown formats so that a
// misconfigured process fails at startup.
func WithFormat(f Format) Option {
	return func(o *options) {
		switch f {
		case FormatJSON, FormatText:
			o.format = f
		default:
			panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
		}
	}
}

// WithOutput sets the destination. Nil writers are ignored.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.output = w
		}
	}
}

// WithAttr adds static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(o *options) {
		o.attrs = append(o.attrs, attrs...)
	}
}

// WithContextExtractors registers functions that add attributes from the
// context of every record. Nil extractors are skipped.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(o *options) {
		for _, ex := range extractors {
			if ex != nil {
				o.extractors = append(o.extractors, ex)
			}
		}
	}
}

// WithEnvironment applies per-stage defaults: text output at debug level in
// development, JSON at info level elsewhere. service and env are attached to
// every record.
func WithEnvironment(env config.Environment, service string) Option {
	return func(o *options) {
		if env == config.Development || env == "" {
			o.level = slog.LevelDebug
			o.format = FormatText
			env = config.Development
		} else {
			o.level = slog.LevelInfo
			o.format = FormatJSON
		}
		if service != "" {
			o.attrs = append(o.attrs, slog.String("service", service))
		}
		o.attrs = append(o.attrs, slog.String("env", string(env)))
	}
}

type options struct {
	level      slog.Level
	format     Format
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
}

// New creates a slog.Logger. Defaults are JSON at info level on stdout.
func New(opts ...Option) *slog.Logger {
	o := &options{
		level:  slog.LevelInfo,
		format: FormatJSON,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(o)
	}

	handlerOpts := &slog.HandlerOptions{Level: o.level}

	var handler slog.Handler
	if o.format == FormatText {
		handler = slog.NewTextHandler(o.output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(o.output, handlerOpts)
	}
	if len(o.attrs) > 0 {
		handler = handler.WithAttrs(o.attrs)
	}

	return slog.New(NewLogHandlerDecorator(handler, o.extractors...))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
