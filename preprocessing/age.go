package preprocessing

import (
	"fmt"
	"math"

	gojson "github.com/goccy/go-json"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/titanic/core/frame"
	"github.com/YuminosukeSato/titanic/core/model"
	"github.com/YuminosukeSato/titanic/pkg/errors"
	"github.com/YuminosukeSato/titanic/pkg/log"
)

// AgeImputer は欠損した年齢を学習データの平均年齢で埋める。
//
// 学習データの年齢がすべて欠損の場合、平均は NaN になり、Transform は欠損を
// そのまま残す（UndefinedStatisticWarning を出す）。
type AgeImputer struct {
	model.BaseEstimator
	component

	// Mean は欠損を除いた平均年齢
	Mean float64
}

// NewAgeImputer creates an AgeImputer reading and writing the "age" column.
func NewAgeImputer(opts ...Option) *AgeImputer {
	return &AgeImputer{
		component: newAgeComponent(opts),
		Mean:      math.NaN(),
	}
}

func newAgeComponent(opts []Option) component {
	return newComponent("AgeImputer", "age", []string{"age"}, opts)
}

// Fit は欠損を除いた平均年齢を計算する
func (a *AgeImputer) Fit(X *frame.Frame) error {
	if err := a.require(X, "Fit"); err != nil {
		return err
	}
	col, err := X.Column(a.source)
	if err != nil {
		return err
	}

	ages := make([]float64, 0, len(col))
	for i, v := range col {
		x, ok, err := a.count(v, i)
		if err != nil {
			return err
		}
		if ok {
			ages = append(ages, x)
		}
	}

	if len(ages) == 0 {
		a.Mean = math.NaN()
		errors.Warn(errors.NewUndefinedStatisticWarning(a.name, a.source, "mean"))
	} else {
		a.Mean = stat.Mean(ages, nil)
	}
	a.SetFitted()

	a.logger.Debug("fit complete",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, X.Len(),
		"mean", a.Mean,
	)
	return nil
}

// Transform returns age with missing values replaced by Mean.
func (a *AgeImputer) Transform(X *frame.Frame) (*frame.Frame, error) {
	if err := a.CheckFitted(a.name, "Transform"); err != nil {
		return nil, err
	}
	return a.mapRows(X, func(row int, v frame.Value) ([]frame.Value, error) {
		if _, _, err := a.count(v, row); err != nil {
			return nil, err
		}
		if v.IsMissing() {
			// Mean が NaN なら Num は欠損を返す
			return []frame.Value{frame.Num(a.Mean)}, nil
		}
		return []frame.Value{v}, nil
	})
}

// FitTransform は Fit と Transform を続けて実行する
func (a *AgeImputer) FitTransform(X *frame.Frame) (*frame.Frame, error) {
	if err := a.Fit(X); err != nil {
		return nil, err
	}
	return a.Transform(X)
}

// GetParams returns an empty parameter set.
func (a *AgeImputer) GetParams() map[string]interface{} {
	return map[string]interface{}{}
}

func (a *AgeImputer) String() string {
	if a.IsFitted() {
		return fmt.Sprintf("AgeImputer(mean=%.4f)", a.Mean)
	}
	return "AgeImputer()"
}

// JSON は NaN を表せないので、平均が未定義なら null にする
type ageState struct {
	Mean   *float64 `json:"mean"`
	Fitted bool     `json:"fitted"`
}

// MarshalJSON encodes the learned mean; NaN is written as null.
func (a *AgeImputer) MarshalJSON() ([]byte, error) {
	st := ageState{Fitted: a.IsFitted()}
	if !math.IsNaN(a.Mean) {
		m := a.Mean
		st.Mean = &m
	}
	return gojson.Marshal(st)
}

// UnmarshalJSON restores an AgeImputer saved with MarshalJSON.
func (a *AgeImputer) UnmarshalJSON(data []byte) error {
	var st ageState
	if err := gojson.Unmarshal(data, &st); err != nil {
		return err
	}
	if a.logger == nil {
		a.component = newAgeComponent(nil)
	}
	a.Mean = math.NaN()
	if st.Mean != nil {
		a.Mean = *st.Mean
	}
	a.Reset()
	if st.Fitted {
		a.SetFitted()
	}
	return nil
}
