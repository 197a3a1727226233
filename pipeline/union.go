// Package pipeline は特徴量変換器を組み合わせ、生存確率を予測するモデルを組み立てる。
package pipeline

import (
	"github.com/YuminosukeSato/titanic/core/frame"
	"github.com/YuminosukeSato/titanic/core/model"
	"github.com/YuminosukeSato/titanic/pkg/errors"
	"github.com/YuminosukeSato/titanic/pkg/log"
)

// Step は名前付きの変換器
type Step struct {
	Name        string
	Transformer model.ColumnTransformer
}

// FeatureUnion は全ステップを同じ入力に適用し、出力を列方向に連結する。
// 出力列はステップ順に各ステップの OutputSchema を並べたもの。
type FeatureUnion struct {
	steps  []Step
	logger log.Logger
}

// NewFeatureUnion はステップ名と出力列の重複を検査して FeatureUnion を作る
func NewFeatureUnion(logger log.Logger, steps ...Step) (*FeatureUnion, error) {
	if len(steps) == 0 {
		return nil, errors.NewInvalidConfigError("FeatureUnion", "steps", "at least one step is required", 0)
	}
	names := make(map[string]bool, len(steps))
	outputs := make(map[string]string)
	for _, s := range steps {
		if s.Name == "" || s.Transformer == nil {
			return nil, errors.NewInvalidConfigError("FeatureUnion", "steps", "step needs a name and a transformer", s.Name)
		}
		if names[s.Name] {
			return nil, errors.NewInvalidConfigError("FeatureUnion", "steps", "duplicate step name", s.Name)
		}
		names[s.Name] = true
		for _, col := range s.Transformer.OutputSchema() {
			if prev, ok := outputs[col]; ok {
				return nil, errors.NewInvalidConfigError("FeatureUnion", "steps",
					"output column "+col+" is produced by both "+prev+" and "+s.Name, col)
			}
			outputs[col] = s.Name
		}
	}
	if logger == nil {
		logger = log.GetLoggerWithName("FeatureUnion")
	}
	return &FeatureUnion{steps: steps, logger: logger.With(log.ModelNameKey, "FeatureUnion")}, nil
}

// Steps returns the steps in application order.
func (u *FeatureUnion) Steps() []Step {
	out := make([]Step, len(u.steps))
	copy(out, u.steps)
	return out
}

// Fit は全ステップを同じ入力で学習する
func (u *FeatureUnion) Fit(X *frame.Frame) error {
	for _, s := range u.steps {
		if err := s.Transformer.Fit(X); err != nil {
			u.logger.Error("step fit failed", err, log.StepKey, s.Name)
			return errors.Wrapf(err, "step %s", s.Name)
		}
	}
	return nil
}

// Transform は各ステップの出力をステップ順に連結する
func (u *FeatureUnion) Transform(X *frame.Frame) (*frame.Frame, error) {
	parts := make([]*frame.Frame, 0, len(u.steps))
	for _, s := range u.steps {
		out, err := s.Transformer.Transform(X)
		if err != nil {
			return nil, errors.Wrapf(err, "step %s", s.Name)
		}
		parts = append(parts, out)
	}
	return frame.Concat(parts...)
}

// FitTransform は Fit の後に Transform する
func (u *FeatureUnion) FitTransform(X *frame.Frame) (*frame.Frame, error) {
	if err := u.Fit(X); err != nil {
		return nil, err
	}
	return u.Transform(X)
}

// OutputSchema は各ステップの出力列を連結したもの
func (u *FeatureUnion) OutputSchema() []string {
	var out []string
	for _, s := range u.steps {
		out = append(out, s.Transformer.OutputSchema()...)
	}
	return out
}
