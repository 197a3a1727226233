package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	mlerrors "github.com/YuminosukeSato/titanic/pkg/errors"
)

// ZerologProvider is the default LoggerProvider. It writes either a human
// readable console format or one JSON object per line.
type ZerologProvider struct {
	mu    sync.RWMutex
	level zerolog.Level
	base  zerolog.Logger
}

// NewZerologProvider creates a console provider on os.Stderr.
func NewZerologProvider(level slog.Level) *ZerologProvider {
	return NewZerologProviderWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, level)
}

// NewZerologJSONProvider creates a provider emitting JSON lines on os.Stderr.
func NewZerologJSONProvider(level slog.Level) *ZerologProvider {
	return NewZerologProviderWithWriter(os.Stderr, level)
}

// NewZerologProviderWithWriter creates a provider writing to w.
func NewZerologProviderWithWriter(w io.Writer, level slog.Level) *ZerologProvider {
	return &ZerologProvider{
		level: toZerologLevel(Level(level)),
		base:  zerolog.New(w).With().Timestamp().Logger(),
	}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	return &zerologLogger{provider: p, ctx: p.base}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{provider: p, ctx: p.base.With().Str(ComponentKey, name).Logger()}
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = toZerologLevel(level)
}

// InstallWarnSink routes errors.Warn through this provider so that
// warnings are emitted as structured records.
func (p *ZerologProvider) InstallWarnSink() {
	mlerrors.SetZerologWarnFunc(func(w error) {
		zl := p.current(p.base)
		ev := zl.Warn()
		if m, ok := w.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(m)
		}
		ev.Msg(w.Error())
	})
}

func (p *ZerologProvider) current(l zerolog.Logger) zerolog.Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return l.Level(p.level)
}

type zerologLogger struct {
	provider *ZerologProvider
	ctx      zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...any) {
	l.emit(zerolog.DebugLevel, msg, fields)
}

func (l *zerologLogger) Info(msg string, fields ...any) {
	l.emit(zerolog.InfoLevel, msg, fields)
}

func (l *zerologLogger) Warn(msg string, fields ...any) {
	l.emit(zerolog.WarnLevel, msg, fields)
}

func (l *zerologLogger) Error(msg string, fields ...any) {
	l.emit(zerolog.ErrorLevel, msg, fields)
}

func (l *zerologLogger) With(fields ...any) Logger {
	return &zerologLogger{provider: l.provider, ctx: l.ctx.With().Fields(fields).Logger()}
}

func (l *zerologLogger) Enabled(ctx context.Context, level Level) bool {
	l.provider.mu.RLock()
	defer l.provider.mu.RUnlock()
	return toZerologLevel(level) >= l.provider.level
}

func (l *zerologLogger) emit(level zerolog.Level, msg string, fields []any) {
	logger := l.provider.current(l.ctx)
	ev := logger.WithLevel(level)
	if ev == nil {
		return
	}
	err, rest := splitError(fields)
	if err != nil {
		ev = ev.Err(err)
		if st := extractStacktrace(err); st != "" {
			ev = ev.Str(StacktraceAttrKey, st)
		}
		var m zerolog.LogObjectMarshaler
		if errors.As(err, &m) {
			ev = ev.Dict("detail", zerolog.Dict().EmbedObject(m))
		}
	}
	if len(rest) > 0 {
		ev = ev.Fields(rest)
	}
	ev.Msg(msg)
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
