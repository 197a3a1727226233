package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// SetupLogger installs a JSON slog handler on os.Stdout as the slog default
// and returns a provider backed by it.
func SetupLogger(loglevel string) LoggerProvider {
	return SetupLoggerWithWriter(os.Stdout, ToLogLevel(loglevel))
}

// SetupLoggerWithWriter is SetupLogger with an explicit destination.
func SetupLoggerWithWriter(w io.Writer, level slog.Level) LoggerProvider {
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     levelVar,
		// Replace attributes to convert to CloudLogging format.
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{
					Key:   "severity",
					Value: attr.Value,
				}
			case slog.MessageKey:
				attr = slog.Attr{
					Key:   "message",
					Value: attr.Value,
				}
			case slog.SourceKey:
				attr = slog.Attr{
					Key:   "logging.googleapis.com/sourceLocation",
					Value: attr.Value,
				}
			}
			return attr
		},
	}
	handler := slog.NewJSONHandler(w, &ops)
	errFmtHandler := WrapByErrFmtHandler(handler)
	logger := slog.New(errFmtHandler)
	slog.SetDefault(logger)
	return &slogProvider{logger: logger, level: levelVar}
}

// ToLogLevel converts a level name to slog.Level. It panics on unknown
// names; use ParseLevel for user input.
func ToLogLevel(level string) slog.Level {
	l, err := ParseLevel(level)
	if err != nil {
		panic(err.Error())
	}
	return l
}

// ParseLevel converts "debug", "info", "warn" or "error" (case-insensitive) to slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level :%s", level)
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// splitError pulls a leading error value out of a field list.
func splitError(fields []any) (error, []any) {
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			return err, fields[1:]
		}
	}
	return nil, fields
}
