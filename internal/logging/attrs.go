package logging

import (
	"log/slog"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// Error keys err under "error"; a nil error is rendered explicitly.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Event names what happened, for filtering JSON run logs.
func Event(eventType string) Attr { return slog.String(FieldEventType, eventType) }

// Hint tells the course author what to fix next.
func Hint(text string) Attr { return slog.String(FieldErrorHint, text) }

// Impact states what the build does without the fix.
func Impact(text string) Attr { return slog.String(FieldImpact, text) }

// Unit tags a record with a teaching unit id such as S0001L02.
func Unit[T ~string](id T) Attr { return slog.String(FieldUnitID, string(id)) }

// Tokens records a list of words, such as the untaught vocabulary of a
// rejected basket. Console output joins them with commas.
func Tokens(key string, tokens []string) Attr { return slog.Any(key, tokens) }

func Args(attrs ...Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}

// NewComponentLogger tags logger with a component name shown in console
// headers. A nil logger yields a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// HasAttrKey reports whether attrs contains key.
func HasAttrKey(attrs []Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

const (
	defaultHint   = "see the run log in log_dir for the full record"
	defaultImpact = "build continues with this item left as is"
)

// withGuidance appends the event, hint and, for warnings, impact fields a
// caller left out.
func withGuidance(attrs []Attr, eventType string, impact bool) []Attr {
	if !HasAttrKey(attrs, FieldEventType) {
		attrs = append(attrs, Event(eventType))
	}
	if !HasAttrKey(attrs, FieldErrorHint) {
		attrs = append(attrs, Hint(defaultHint))
	}
	if impact && !HasAttrKey(attrs, FieldImpact) {
		attrs = append(attrs, Impact(defaultImpact))
	}
	return attrs
}

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact: what happened, what to fix, and what the build does meanwhile.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.Warn(msg, Args(withGuidance(attrs, eventType, true)...)...)
}

// ErrorWithContext logs an error that always carries event_type and
// error_hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.Error(msg, Args(withGuidance(attrs, eventType, false)...)...)
}
