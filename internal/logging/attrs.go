package logging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"contentanalyzer/internal/services"
)

// Attr aliases slog.Attr so callers only import this package.
type Attr = slog.Attr

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// Error records err under the "error" key.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func attrsToArgs(attrs []Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(noopHandler{})
}

// NewComponentLogger tags logger with a component name. A nil logger becomes
// a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// Failure logs err at error level with an event_type and an error_hint. The
// hint is chosen from err's services marker unless attrs already carry one.
func Failure(logger *slog.Logger, msg, eventType string, err error, attrs ...Attr) {
	if logger == nil {
		return
	}
	hasHint := false
	for _, attr := range attrs {
		if attr.Key == FieldErrorHint {
			hasHint = true
			break
		}
	}
	attrs = append(attrs, String(FieldEventType, eventType), Error(err))
	if !hasHint {
		attrs = append(attrs, String(FieldErrorHint, hintFor(err)))
	}
	logger.Error(msg, attrsToArgs(attrs)...)
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrDecode):
		return "check that ffmpeg can read the upload"
	case errors.Is(err, services.ErrTranscription):
		return "check the transcription backend and its model"
	case errors.Is(err, services.ErrAnalysis):
		return "check the analysis API key, quota and network"
	case errors.Is(err, services.ErrConfiguration):
		return "run contentanalyzer check"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "the request was cancelled or timed out"
	default:
		return "check logs for details"
	}
}

type noopHandler struct{}

func (noopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (noopHandler) Handle(context.Context, slog.Record) error { return nil }

func (noopHandler) WithAttrs([]slog.Attr) slog.Handler { return noopHandler{} }

func (noopHandler) WithGroup(string) slog.Handler { return noopHandler{} }
