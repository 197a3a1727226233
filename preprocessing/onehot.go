package preprocessing

import (
	"fmt"

	gojson "github.com/goccy/go-json"

	"github.com/YuminosukeSato/titanic/core/frame"
	"github.com/YuminosukeSato/titanic/core/model"
	"github.com/YuminosukeSato/titanic/pkg/errors"
	"github.com/YuminosukeSato/titanic/pkg/log"
)

// EncodedColumn は OneHotEncoder が学習した1列分の情報。
// Categories が nil の列は数値列としてそのまま通す。
type EncodedColumn struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories,omitempty"`
}

// OneHotEncoder は文字列の列をカテゴリごとの指示変数 "<列名>_<カテゴリ>" に展開する。
//
// カテゴリは出現頻度の降順（同数は初出順）で、MaxCategories > 0 ならその数までに制限する。
// 学習時にないカテゴリや欠損は全て 0 になる。文字列を含まない列は数値列として
// 同じ位置にそのまま出力する。出力列は Fit で決まる。
type OneHotEncoder struct {
	model.BaseEstimator
	component

	// MaxCategories は1列あたりのカテゴリ数の上限。0 以下なら無制限。
	MaxCategories int

	// Encoded は学習した列の情報（入力列の順）
	Encoded []EncodedColumn
}

// NewOneHotEncoder creates an encoder keeping at most maxCategories per column.
func NewOneHotEncoder(maxCategories int, opts ...Option) *OneHotEncoder {
	return &OneHotEncoder{
		component:     newOneHotComponent(opts),
		MaxCategories: maxCategories,
	}
}

func newOneHotComponent(opts []Option) component {
	return newComponent("OneHotEncoder", "*", nil, opts)
}

// Fit は各列が数値列かカテゴリ列かを判定し、カテゴリを学習する
func (o *OneHotEncoder) Fit(X *frame.Frame) error {
	if X.Len() == 0 {
		return errors.Wrap(errors.ErrEmptyData, o.name+".Fit")
	}

	var encoded []EncodedColumn
	var outputs []string
	seen := make(map[string]bool)
	for _, name := range X.Columns() {
		col, err := X.Column(name)
		if err != nil {
			return err
		}
		ec := EncodedColumn{Name: name}
		if hasString(col) {
			ec.Categories = o.learnCategories(col)
		}
		encoded = append(encoded, ec)

		for _, out := range ec.outputs() {
			if seen[out] {
				return errors.NewValueError(o.name+".Fit", fmt.Sprintf("output column %q is produced twice", out))
			}
			seen[out] = true
			outputs = append(outputs, out)
		}
	}

	o.Encoded = encoded
	o.outputs = outputs
	o.SetFitted()

	o.logger.Debug("fit complete",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, X.Len(),
		log.FeaturesKey, len(outputs),
	)
	return nil
}

func hasString(col []frame.Value) bool {
	for _, v := range col {
		if v.IsString() {
			return true
		}
	}
	return false
}

func (o *OneHotEncoder) learnCategories(col []frame.Value) []string {
	counts := make(map[string]int)
	var order []string
	for _, v := range col {
		if v.IsMissing() {
			continue
		}
		key := v.String()
		if _, ok := counts[key]; !ok {
			order = append(order, key)
		}
		counts[key]++
	}
	ranked := stableSortByCount(order, counts)
	if o.MaxCategories > 0 && len(ranked) > o.MaxCategories {
		ranked = ranked[:o.MaxCategories]
	}
	return ranked
}

func (ec EncodedColumn) outputs() []string {
	if ec.Categories == nil {
		return []string{ec.Name}
	}
	out := make([]string, len(ec.Categories))
	for i, c := range ec.Categories {
		out[i] = ec.Name + "_" + c
	}
	return out
}

// Transform expands the categorical columns. The input must contain every
// column seen by Fit.
func (o *OneHotEncoder) Transform(X *frame.Frame) (*frame.Frame, error) {
	if err := o.CheckFitted(o.name, "Transform"); err != nil {
		return nil, err
	}
	names := make([]string, len(o.Encoded))
	for i, ec := range o.Encoded {
		names[i] = ec.Name
	}
	if err := X.Require(o.name+".Transform", names...); err != nil {
		return nil, err
	}

	out := frame.New(o.outputs...)
	for i := 0; i < X.Len(); i++ {
		row := make([]frame.Value, 0, len(o.outputs))
		for _, ec := range o.Encoded {
			v := X.At(i, ec.Name)
			if ec.Categories == nil {
				if v.IsString() {
					return nil, errors.NewValueError(o.name+".Transform",
						fmt.Sprintf("column %q row %d: %q in a numeric column", ec.Name, i, v.String()))
				}
				row = append(row, v)
				continue
			}
			key := ""
			if !v.IsMissing() {
				key = v.String()
			}
			for _, c := range ec.Categories {
				row = append(row, indicator(!v.IsMissing() && key == c))
			}
		}
		if err := out.AppendRow(row...); err != nil {
			return nil, err
		}
	}

	o.logger.Debug("transform complete",
		log.OperationKey, log.OperationTransform,
		log.SamplesKey, out.Len(),
	)
	return out, nil
}

// FitTransform は Fit と Transform を続けて実行する
func (o *OneHotEncoder) FitTransform(X *frame.Frame) (*frame.Frame, error) {
	if err := o.Fit(X); err != nil {
		return nil, err
	}
	return o.Transform(X)
}

// GetParams returns the configuration.
func (o *OneHotEncoder) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_categories": o.MaxCategories,
	}
}

func (o *OneHotEncoder) String() string {
	if o.IsFitted() {
		return fmt.Sprintf("OneHotEncoder(max_categories=%d, n_features_out=%d)", o.MaxCategories, len(o.outputs))
	}
	return fmt.Sprintf("OneHotEncoder(max_categories=%d)", o.MaxCategories)
}

type oneHotState struct {
	MaxCategories int             `json:"max_categories"`
	Columns       []EncodedColumn `json:"columns,omitempty"`
	Fitted        bool            `json:"fitted"`
}

// MarshalJSON encodes the learned categories.
func (o *OneHotEncoder) MarshalJSON() ([]byte, error) {
	return gojson.Marshal(oneHotState{MaxCategories: o.MaxCategories, Columns: o.Encoded, Fitted: o.IsFitted()})
}

// UnmarshalJSON restores an encoder saved with MarshalJSON.
func (o *OneHotEncoder) UnmarshalJSON(data []byte) error {
	var st oneHotState
	if err := gojson.Unmarshal(data, &st); err != nil {
		return err
	}
	if o.logger == nil {
		o.component = newOneHotComponent(nil)
	}
	o.MaxCategories = st.MaxCategories
	o.Encoded = st.Columns
	o.outputs = nil
	for _, ec := range st.Columns {
		o.outputs = append(o.outputs, ec.outputs()...)
	}
	o.Reset()
	if st.Fitted {
		o.SetFitted()
	}
	return nil
}
