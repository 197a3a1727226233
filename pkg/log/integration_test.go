package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"

	mlerrors "github.com/YuminosukeSato/titanic/pkg/errors"
)

// TestLoggerInterface tests the Logger interface implementation
func TestLoggerInterface(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationFit)
	testLogger.Warn("warning message", ErrorCodeKey, ErrorInvalidInput)
	testLogger.Error("error message", fmt.Errorf("test error"), ErrorCodeKey, ErrorMissingColumn)

	if buffer.String() == "" {
		t.Fatal("Expected log output, got empty string")
	}
	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}
	if !testLogger.ContainsField("key1", "value1") {
		t.Error("Expected field key1=value1 not found")
	}
	if !testLogger.ContainsField("number", 42.0) { // JSON unmarshaling converts numbers to float64
		t.Error("Expected field number=42 not found")
	}
	if !testLogger.ContainsField(ErrAttrKey, "test error") {
		t.Error("Expected leading error to be attached under the error key")
	}
}

// TestLoggerWith tests the With method for context-aware logging
func TestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(
		ModelNameKey, "FareBinning",
		ColumnKey, "fare",
	)
	contextLogger.Info("fit complete", OperationKey, OperationFit)

	if !testLogger.ContainsField(ModelNameKey, "FareBinning") {
		t.Error("Model name context not found")
	}
	if !testLogger.ContainsField(ColumnKey, "fare") {
		t.Error("Column context not found")
	}
	if !testLogger.ContainsField(OperationKey, OperationFit) {
		t.Error("Operation field not found")
	}
}

func TestLoggerEnabled(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelWarn)
	ctx := context.Background()

	if testLogger.Enabled(ctx, LevelDebug) {
		t.Error("debug should be disabled at warn level")
	}
	if !testLogger.Enabled(ctx, LevelError) {
		t.Error("error should be enabled at warn level")
	}

	testLogger.Info("hidden")
	testLogger.Warn("shown")
	if strings.Contains(buffer.String(), "hidden") {
		t.Error("info record leaked through warn level")
	}
	if !strings.Contains(buffer.String(), "shown") {
		t.Error("warn record missing")
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(3), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"debug", "info", "warn", "error"} {
		if _, err := ParseLevel(name); err != nil {
			t.Errorf("ParseLevel(%q) returned error: %v", name, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("ToLogLevel should panic on unknown level")
		}
	}()
	ToLogLevel("verbose")
}

func TestZerologProvider(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProviderWithWriter(&buf, slog.LevelInfo)
	logger := provider.GetLoggerWithName("AgeImputer")

	logger.Debug("dropped")
	logger.Info("fit complete", SamplesKey, 3, ColumnKey, "age")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 record, got %d: %s", len(lines), buf.String())
	}

	var rec map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["message"] != "fit complete" {
		t.Errorf("message = %v", rec["message"])
	}
	if rec[ComponentKey] != "AgeImputer" {
		t.Errorf("component = %v", rec[ComponentKey])
	}
	if rec[SamplesKey] != 3.0 {
		t.Errorf("samples = %v", rec[SamplesKey])
	}

	provider.SetLevel(LevelDebug)
	buf.Reset()
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("SetLevel(debug) did not enable debug records")
	}
	if !logger.Enabled(context.Background(), LevelDebug) {
		t.Error("Enabled(debug) should be true after SetLevel")
	}
}

func TestZerologProviderErrorDetail(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologProviderWithWriter(&buf, slog.LevelInfo).GetLogger()

	err := mlerrors.NewMissingColumnError("transform", "fare")
	logger.Error("transform failed", err, StepKey, "fare_bin")

	out := buf.String()
	for _, want := range []string{
		`"error":"titanic: transform: fare column not found"`,
		`"detail":{`,
		`"pipeline.step":"fare_bin"`,
		`"stacktrace":`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s\n%s", want, out)
		}
	}
}

func TestZerologWarnSink(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProviderWithWriter(&buf, slog.LevelInfo)
	provider.InstallWarnSink()
	defer mlerrors.SetZerologWarnFunc(nil)

	mlerrors.Warn(mlerrors.NewBinReductionWarning("FareBinning", 5, 3))

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("warning not emitted at warn level: %s", out)
	}
	if !strings.Contains(out, "BinReductionWarning") {
		t.Errorf("warning type missing: %s", out)
	}
	if !strings.Contains(out, `"component":"FareBinning"`) {
		t.Errorf("warning fields missing: %s", out)
	}

	// error レベルでは警告は出ない
	buf.Reset()
	provider.SetLevel(LevelError)
	mlerrors.Warn(mlerrors.NewUndefinedStatisticWarning("AgeImputer", "age", "mean"))
	if buf.Len() != 0 {
		t.Errorf("warning emitted below the provider level: %s", buf.String())
	}
}

func TestSlogProvider(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	provider := SetupLoggerWithWriter(&buf, slog.LevelInfo)
	logger := provider.GetLoggerWithName("pipeline")

	logger.Error("save failed", errors.New("disk full"), PathKey, "model.json")

	out := buf.String()
	for _, want := range []string{
		`"severity":"ERROR"`,
		`"message":"save failed"`,
		`"error":"disk full"`,
		`"stacktrace":`,
		`"data.path":"model.json"`,
		`"ml.component":"pipeline"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s\n%s", want, out)
		}
	}

	buf.Reset()
	logger.Debug("hidden")
	provider.SetLevel(LevelDebug)
	logger.Debug("visible")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "visible") {
		t.Errorf("level switch not honoured: %s", buf.String())
	}
}

func TestGlobalProvider(t *testing.T) {
	testProvider, _ := NewTestLoggerProvider(LevelDebug)
	SetProvider(testProvider)
	defer SetProvider(nil)

	GetLoggerWithName("cli").Info("hello", OperationKey, OperationPredict)

	if !testProvider.Logger().ContainsField(ComponentKey, "cli") {
		t.Error("global logger did not route through the installed provider")
	}
}

func TestConcurrentLogging(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			l := testLogger.With("worker", id)
			for j := 0; j < 10; j++ {
				l.Info("row", "j", j)
			}
		}(i)
	}
	wg.Wait()

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("GetLogEntries: %v", err)
	}
	if len(entries) != 100 {
		t.Errorf("expected 100 entries, got %d", len(entries))
	}
}

func BenchmarkLogging(b *testing.B) {
	var buf bytes.Buffer
	logger := NewZerologProviderWithWriter(&buf, slog.LevelInfo).GetLogger()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("transform", OperationKey, OperationTransform, SamplesKey, i)
	}
}
