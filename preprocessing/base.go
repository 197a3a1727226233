// Package preprocessing は乗客の生データを分類器が学習に使う特徴量列へ変換する
// 変換器群を提供します。
//
// 各変換器は model.ColumnTransformer を実装し、Fit で学習パラメータを計算、
// Transform で宣言済みの出力列だけを持つ新しい Frame を返します。
// 数値行列向けの StandardScaler もここにあります。
package preprocessing

import (
	"fmt"
	"sort"

	"github.com/YuminosukeSato/titanic/core/frame"
	"github.com/YuminosukeSato/titanic/pkg/errors"
	"github.com/YuminosukeSato/titanic/pkg/log"
)

// Option configures a transformer at construction.
type Option func(*component)

// WithLogger は変換器が使うロガーを差し替える（テストで TestLogger を渡す用途など）
func WithLogger(logger log.Logger) Option {
	return func(c *component) {
		c.logger = logger
	}
}

// component は全変換器に共通の名前・ソース列・出力列・ロガーを保持する
type component struct {
	name    string
	source  string
	outputs []string
	logger  log.Logger
}

func newComponent(name, source string, outputs []string, opts []Option) component {
	c := component{name: name, source: source, outputs: outputs}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = log.GetLoggerWithName(name)
	}
	c.logger = c.logger.With(log.ModelNameKey, name, log.ColumnKey, source)
	return c
}

// OutputSchema returns the output column names in declared order.
func (c *component) OutputSchema() []string {
	out := make([]string, len(c.outputs))
	copy(out, c.outputs)
	return out
}

// require はソース列の存在を確認する
func (c *component) require(X *frame.Frame, method string) error {
	return X.Require(c.name+"."+method, c.source)
}

// mapRows はソース列の各値を fn で出力行に写し、OutputSchema の列を持つ Frame を作る
func (c *component) mapRows(X *frame.Frame, fn func(row int, v frame.Value) ([]frame.Value, error)) (*frame.Frame, error) {
	if err := c.require(X, "Transform"); err != nil {
		return nil, err
	}
	src, err := X.Column(c.source)
	if err != nil {
		return nil, err
	}

	out := frame.New(c.outputs...)
	for i, v := range src {
		row, err := fn(i, v)
		if err != nil {
			return nil, err
		}
		if err := out.AppendRow(row...); err != nil {
			return nil, err
		}
	}

	c.logger.Debug("transform complete",
		log.OperationKey, log.OperationTransform,
		log.SamplesKey, out.Len(),
	)
	return out, nil
}

// fitStateless は学習パラメータを持たない変換器の Fit。列の存在確認だけ行う。
func (c *component) fitStateless(X *frame.Frame) error {
	if err := c.require(X, "Fit"); err != nil {
		return err
	}
	c.logger.Debug("fit complete",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, X.Len(),
	)
	return nil
}

// count は数値として読めるセルを返す。欠損は ok=false。
// 文字列は pandas の比較と同様に型エラー扱いで ValueError。
func (c *component) count(v frame.Value, row int) (x float64, ok bool, err error) {
	switch v.Kind() {
	case frame.KindMissing:
		return 0, false, nil
	case frame.KindNumber:
		x, _ = v.Float()
		return x, true, nil
	default:
		return 0, false, errors.NewValueError(c.name+".Transform",
			fmt.Sprintf("%s row %d: %q is not numeric", c.source, row, v.String()))
	}
}

func indicator(b bool) frame.Value {
	if b {
		return frame.Num(1)
	}
	return frame.Num(0)
}

// stableSortByCount は頻度の降順に並べる。同数は order の順（初出順）を保つ。
func stableSortByCount(order []string, counts map[string]int) []string {
	out := append([]string(nil), order...)
	sort.SliceStable(out, func(i, j int) bool {
		return counts[out[i]] > counts[out[j]]
	})
	return out
}
