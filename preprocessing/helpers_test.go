package preprocessing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/titanic/core/frame"
	"github.com/YuminosukeSato/titanic/core/model"
	"github.com/YuminosukeSato/titanic/pkg/errors"
	"github.com/YuminosukeSato/titanic/pkg/log"
)

// 全変換器が ColumnTransformer を満たすこと
var (
	_ model.ColumnTransformer = (*PClassEncoder)(nil)
	_ model.ColumnTransformer = (*NameExtractor)(nil)
	_ model.ColumnTransformer = (*SexEncoder)(nil)
	_ model.ColumnTransformer = (*SibspBinning)(nil)
	_ model.ColumnTransformer = (*ParchBinning)(nil)
	_ model.ColumnTransformer = (*TicketExtractorAdvanced)(nil)
	_ model.ColumnTransformer = (*FareBinning)(nil)
	_ model.ColumnTransformer = (*AgeImputer)(nil)
	_ model.ColumnTransformer = (*EmbarkedEncoder)(nil)
	_ model.ColumnTransformer = (*OneHotEncoder)(nil)
	_ model.Transformer       = (*StandardScaler)(nil)
)

// column は単一列の Frame を作る
func column(name string, values ...frame.Value) *frame.Frame {
	f := frame.New(name)
	for _, v := range values {
		if err := f.AppendRow(v); err != nil {
			panic(err)
		}
	}
	return f
}

func nums(xs ...float64) []frame.Value {
	out := make([]frame.Value, len(xs))
	for i, x := range xs {
		out[i] = frame.Num(x)
	}
	return out
}

func strs(ss ...string) []frame.Value {
	out := make([]frame.Value, len(ss))
	for i, s := range ss {
		out[i] = frame.Str(s)
	}
	return out
}

func values(t *testing.T, f *frame.Frame, col string) []frame.Value {
	t.Helper()
	v, err := f.Column(col)
	require.NoError(t, err)
	return v
}

func requireMissingColumn(t *testing.T, err error) {
	t.Helper()
	var mc *errors.MissingColumnError
	require.Truef(t, errors.As(err, &mc), "want MissingColumnError, got %v", err)
}

func requireNotFitted(t *testing.T, err error) {
	t.Helper()
	var nf *errors.NotFittedError
	require.Truef(t, errors.As(err, &nf), "want NotFittedError, got %v", err)
}

func requireInvalidConfig(t *testing.T, err error) {
	t.Helper()
	var ic *errors.InvalidConfigError
	require.Truef(t, errors.As(err, &ic), "want InvalidConfigError, got %v", err)
}

func requireValueError(t *testing.T, err error) {
	t.Helper()
	var ve *errors.ValueError
	require.Truef(t, errors.As(err, &ve), "want ValueError, got %v", err)
}

// quiet は Debug ログを捨てるロガー
func quiet() Option {
	l, _ := log.NewTestLogger(log.LevelError)
	return WithLogger(l)
}

// captureWarnings は errors.Warn に渡された警告を集める
func captureWarnings(t *testing.T) *[]error {
	t.Helper()
	var got []error
	errors.SetWarningHandler(func(w error) { got = append(got, w) })
	t.Cleanup(func() {
		errors.SetWarningHandler(func(error) {})
	})
	return &got
}
