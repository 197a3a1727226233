package preprocessing

import (
	"fmt"

	gojson "github.com/goccy/go-json"

	"github.com/YuminosukeSato/titanic/core/frame"
	"github.com/YuminosukeSato/titanic/core/model"
	"github.com/YuminosukeSato/titanic/pkg/errors"
	"github.com/YuminosukeSato/titanic/pkg/log"
)

// EmbarkedEncoder は乗船港の欠損を最頻値で埋め、is_s = (embarked == "s") を出力する。
//
// 比較は小文字の "s" と完全一致。生データの "S" は一致しない。
type EmbarkedEncoder struct {
	model.BaseEstimator
	component

	// Mode は学習データの最頻値。同数なら先に出現した値。
	Mode frame.Value
}

// NewEmbarkedEncoder creates an EmbarkedEncoder reading the "embarked" column.
func NewEmbarkedEncoder(opts ...Option) *EmbarkedEncoder {
	return &EmbarkedEncoder{
		component: newEmbarkedComponent(opts),
	}
}

func newEmbarkedComponent(opts []Option) component {
	return newComponent("EmbarkedEncoder", "embarked", []string{"is_s"}, opts)
}

// Fit は欠損を除いた最頻値を学習する。すべて欠損なら ValueError。
func (e *EmbarkedEncoder) Fit(X *frame.Frame) error {
	if err := e.require(X, "Fit"); err != nil {
		return err
	}
	col, err := X.Column(e.source)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	first := make(map[string]frame.Value)
	var order []string
	for _, v := range col {
		if v.IsMissing() {
			continue
		}
		key := v.Kind().String() + ":" + v.String()
		if _, seen := counts[key]; !seen {
			order = append(order, key)
			first[key] = v
		}
		counts[key]++
	}
	if len(order) == 0 {
		return errors.NewValueError(e.name+".Fit", "cannot compute the mode of an all-missing embarked column")
	}

	ranked := stableSortByCount(order, counts)
	e.Mode = first[ranked[0]]
	e.SetFitted()

	e.logger.Debug("fit complete",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, X.Len(),
		"mode", e.Mode.String(),
	)
	return nil
}

// Transform returns is_s.
func (e *EmbarkedEncoder) Transform(X *frame.Frame) (*frame.Frame, error) {
	if err := e.CheckFitted(e.name, "Transform"); err != nil {
		return nil, err
	}
	return e.mapRows(X, func(_ int, v frame.Value) ([]frame.Value, error) {
		if v.IsMissing() {
			v = e.Mode
		}
		port, _ := v.Text()
		return []frame.Value{indicator(port == "s")}, nil
	})
}

// FitTransform は Fit と Transform を続けて実行する
func (e *EmbarkedEncoder) FitTransform(X *frame.Frame) (*frame.Frame, error) {
	if err := e.Fit(X); err != nil {
		return nil, err
	}
	return e.Transform(X)
}

// GetParams returns an empty parameter set.
func (e *EmbarkedEncoder) GetParams() map[string]interface{} {
	return map[string]interface{}{}
}

func (e *EmbarkedEncoder) String() string {
	if e.IsFitted() {
		return fmt.Sprintf("EmbarkedEncoder(mode=%s)", e.Mode)
	}
	return "EmbarkedEncoder()"
}

type embarkedState struct {
	Mode   frame.Value `json:"mode"`
	Fitted bool        `json:"fitted"`
}

// MarshalJSON encodes the learned mode.
func (e *EmbarkedEncoder) MarshalJSON() ([]byte, error) {
	return gojson.Marshal(embarkedState{Mode: e.Mode, Fitted: e.IsFitted()})
}

// UnmarshalJSON restores an EmbarkedEncoder saved with MarshalJSON.
func (e *EmbarkedEncoder) UnmarshalJSON(data []byte) error {
	var st embarkedState
	if err := gojson.Unmarshal(data, &st); err != nil {
		return err
	}
	if e.logger == nil {
		e.component = newEmbarkedComponent(nil)
	}
	e.Mode = st.Mode
	e.Reset()
	if st.Fitted {
		e.SetFitted()
	}
	return nil
}
