package errors

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// predictOne はコマンドの predict と同じく先頭の確率を取り出す
func predictOne(probas []float64) error {
	_ = probas[0]
	return nil
}

func TestSafeExecuteCommandPanic(t *testing.T) {
	err := SafeExecute("predict", func() error {
		return predictOne(nil)
	})
	if err == nil {
		t.Fatal("expected an error from the recovered panic")
	}

	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("want *PanicError, got %T", err)
	}
	if panicErr.Operation != "predict" {
		t.Errorf("Operation = %q, want predict", panicErr.Operation)
	}
	if _, ok := panicErr.PanicValue.(runtime.Error); !ok {
		t.Errorf("PanicValue = %T, want runtime.Error", panicErr.PanicValue)
	}
	if !strings.HasPrefix(err.Error(), "panic in predict: runtime error: index out of range") {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !strings.Contains(panicErr.String(), "Stack trace:") || !strings.Contains(panicErr.StackTrace, "predictOne") {
		t.Errorf("stack trace does not point at the panicking function:\n%s", panicErr.StackTrace)
	}
}

func TestSafeExecuteCommandError(t *testing.T) {
	tests := []struct {
		name string
		op   string
		err  error
	}{
		{"success", "train", nil},
		{"missing label column", "train", NewMissingColumnError("ReadCSV", "survived")},
		{"bad sex flag", "predict", NewValidationError("sex", "must be male or female", "x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SafeExecute(tt.op, func() error { return tt.err })
			if err != tt.err {
				t.Fatalf("SafeExecute(%s) = %v, want the error returned by the command unchanged", tt.op, err)
			}
			var panicErr *PanicError
			if err != nil && errors.As(err, &panicErr) {
				t.Errorf("a returned error must not become a PanicError")
			}
		})
	}
}

func TestRecoverKeepsEarlierError(t *testing.T) {
	fitErr := NewNotFittedError("SurvivalModel", "PredictProba")

	run := func() (err error) {
		defer Recover(&err, "evaluate")
		err = fitErr
		panic("plot backend failed")
	}
	err := run()

	if !strings.Contains(err.Error(), "panic in evaluate: plot backend failed") {
		t.Errorf("panic missing from message: %s", err)
	}
	var nf *NotFittedError
	if !errors.As(err, &nf) || nf.ModelName != "SurvivalModel" {
		t.Errorf("earlier error lost: %v", err)
	}
}

func TestRecoverWithoutPanic(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err, "train")
		return nil
	}
	if err := run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecoverPanicValues(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"string", "bad threshold", "bad threshold"},
		{"int", 42, "42"},
		{"error", fmt.Errorf("bundle truncated"), "bundle truncated"},
		{"nil", nil, "panic called with nil argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := func() (err error) {
				defer Recover(&err, "train")
				panic(tt.value)
			}
			var panicErr *PanicError
			if !errors.As(run(), &panicErr) {
				t.Fatal("want *PanicError")
			}
			if got := fmt.Sprintf("%v", panicErr.PanicValue); !strings.HasPrefix(got, tt.want) {
				t.Errorf("PanicValue = %q, want prefix %q", got, tt.want)
			}
		})
	}
}

func TestPanicErrorZerolog(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	logger.Error().EmbedObject(NewPanicError("train", "out of memory")).Msg("command failed")

	out := buf.String()
	for _, want := range []string{`"operation":"train"`, `"panic_value":"out of memory"`, `"type":"PanicError"`} {
		if !strings.Contains(out, want) {
			t.Errorf("%s missing from %s", want, out)
		}
	}
}

func BenchmarkSafeExecute(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = SafeExecute("predict", func() error { return nil })
	}
}
