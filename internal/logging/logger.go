package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Log formats accepted by WithFormat.
const (
	FormatText = "text"
	FormatJSON = "json"
)

type options struct {
	writer io.Writer
	format string
}

// Option configures New.
type Option func(*options)

// WithWriter redirects the output, Stderr by default.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithFormat selects FormatText (default) or FormatJSON. Unknown formats fall back to text.
func WithFormat(format string) Option {
	return func(o *options) {
		o.format = strings.ToLower(format)
	}
}

// New creates a configured application logger.
// It writes to Stderr so Stdout stays free for command output and MCP stdio.
// Common keys are standardized ("error" -> "err") and navigation durations are
// reported in milliseconds.
func New(level slog.Level, opts ...Option) *slog.Logger {
	o := options{writer: os.Stderr, format: FormatText}
	for _, opt := range opts {
		opt(&o)
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}
	if o.format == FormatJSON {
		return slog.New(slog.NewJSONHandler(o.writer, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(o.writer, handlerOpts))
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch {
	case a.Key == "error":
		a.Key = "err"
	case a.Key == "duration" && a.Value.Kind() == slog.KindDuration:
		a = slog.Float64("duration_ms", float64(a.Value.Duration().Microseconds())/1000)
	}
	return a
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
