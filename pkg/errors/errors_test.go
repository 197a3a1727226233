package errors

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "SurvivalModel.Load",
			kind:     "corrupt bundle",
			err:      fmt.Errorf("unexpected EOF"),
			wantMsg:  "titanic: SurvivalModel.Load: corrupt bundle: unexpected EOF",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "SurvivalModel.Save",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "titanic: SurvivalModel.Save: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewMissingColumnError(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		wantMsg string
	}{
		{
			name:    "single column",
			columns: []string{"fare"},
			wantMsg: "titanic: FareBinning.Fit: fare column not found",
		},
		{
			name:    "several columns",
			columns: []string{"sibsp", "parch"},
			wantMsg: "titanic: FareBinning.Fit: columns not found: sibsp, parch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewMissingColumnError("FareBinning.Fit", tt.columns...)
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			var missing *MissingColumnError
			if !As(err, &missing) {
				t.Fatal("Error should be castable to *MissingColumnError")
			}
			if len(missing.Columns) != len(tt.columns) {
				t.Errorf("Columns = %v, want %v", missing.Columns, tt.columns)
			}
		})
	}
}

func TestNewInvalidConfigError(t *testing.T) {
	err := NewInvalidConfigError("FareBinning", "method", "must be 'manual' or 'quantile'", "kmeans")

	want := "titanic: FareBinning: invalid configuration for 'method': must be 'manual' or 'quantile' (got: kmeans)"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var cfgErr *InvalidConfigError
	if !As(err, &cfgErr) {
		t.Fatal("Error should be castable to *InvalidConfigError")
	}
	if cfgErr.Param != "method" {
		t.Errorf("Param = %v, want method", cfgErr.Param)
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Frame.Concat", 10, 9, 0)

	want := "titanic: Frame.Concat: dimension mismatch on axis 0 (rows). Expected 10, got 9"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("AgeImputer", "Transform")

	want := "titanic: AgeImputer: this component is not fitted yet. Call Fit() before using Transform()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewValueError(t *testing.T) {
	err := NewValueError("SibspBinning.Transform", "sibsp must be numeric, got \"two\"")

	want := "titanic: SibspBinning.Transform: sibsp must be numeric, got \"two\""
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var valErr *ValueError
	if !As(err, &valErr) {
		t.Error("Error should be castable to *ValueError")
	}
}

func TestWarnings(t *testing.T) {
	tests := []struct {
		name string
		warn error
		want string
	}{
		{
			name: "convergence",
			warn: NewConvergenceWarning("LogisticRegression", 100, ""),
			want: "LogisticRegression failed to converge after 100 iterations. Consider increasing max_iter or scaling the features.",
		},
		{
			name: "undefined statistic",
			warn: NewUndefinedStatisticWarning("AgeImputer", "age", "mean"),
			want: "AgeImputer: mean of column 'age' is undefined (no non-missing values); missing values will not be filled",
		},
		{
			name: "bin reduction",
			warn: NewBinReductionWarning("FareBinning", 4, 2),
			want: "FareBinning: duplicate quantile edges removed, 4 bins requested but only 2 remain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.warn.Error() != tt.want {
				t.Errorf("Error() = %v, want %v", tt.warn.Error(), tt.want)
			}
		})
	}
}

func TestWarnRouting(t *testing.T) {
	var handled []error
	prev := warningHandler
	SetWarningHandler(func(w error) { handled = append(handled, w) })
	defer SetWarningHandler(prev)

	Warn(NewBinReductionWarning("FareBinning", 4, 3))
	if len(handled) != 1 {
		t.Fatalf("expected the fallback handler to receive 1 warning, got %d", len(handled))
	}

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	SetZerologWarnFunc(func(w error) {
		if m, ok := w.(zerolog.LogObjectMarshaler); ok {
			logger.Warn().EmbedObject(m).Msg(w.Error())
			return
		}
		logger.Warn().Msg(w.Error())
	})
	defer SetZerologWarnFunc(nil)

	Warn(NewUndefinedStatisticWarning("AgeImputer", "age", "mean"))
	if len(handled) != 1 {
		t.Error("zerolog sink should take precedence over the fallback handler")
	}
	if !strings.Contains(buf.String(), `"type":"UndefinedStatisticWarning"`) {
		t.Errorf("expected structured warning in zerolog output, got %s", buf.String())
	}
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrVersionMismatch, "in SurvivalModel.Load")

	if !Is(wrapped, ErrVersionMismatch) {
		t.Error("Expected Is(wrapped, ErrVersionMismatch) to be true")
	}

	if !strings.Contains(wrapped.Error(), "in SurvivalModel.Load") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d rows, got %d", "Fit", 10, 0)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	expectedMsg := "in Fit: expected 10 rows, got 0"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestErrorChaining(t *testing.T) {
	err1 := NewMissingColumnError("AgeImputer.Fit", "age")
	err2 := Wrap(err1, "failed to fit step 'age'")
	err3 := NewModelError("SurvivalModel.Fit", "feature extraction failed", err2)

	if !strings.Contains(err3.Error(), "age column not found") {
		t.Error("Expected error chain to contain the missing column message")
	}

	var missing *MissingColumnError
	if !As(err3, &missing) {
		t.Error("Expected the chain to unwrap to *MissingColumnError")
	}

	formatted := fmt.Sprintf("%+v", err3)
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected detailed error to contain stack trace")
	}
}
