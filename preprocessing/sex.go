package preprocessing

import "github.com/YuminosukeSato/titanic/core/frame"

// SexEncoder は sex == "male" のとき is_male = 1 とする。大文字小文字は区別する。
type SexEncoder struct {
	component
}

// NewSexEncoder creates a SexEncoder reading the "sex" column.
func NewSexEncoder(opts ...Option) *SexEncoder {
	return &SexEncoder{
		component: newComponent("SexEncoder", "sex", []string{"is_male"}, opts),
	}
}

// Fit は sex 列の存在だけを確認する
func (s *SexEncoder) Fit(X *frame.Frame) error {
	return s.fitStateless(X)
}

// Transform returns is_male.
func (s *SexEncoder) Transform(X *frame.Frame) (*frame.Frame, error) {
	return s.mapRows(X, func(_ int, v frame.Value) ([]frame.Value, error) {
		sex, _ := v.Text()
		return []frame.Value{indicator(sex == "male")}, nil
	})
}

// FitTransform は Fit と Transform を続けて実行する
func (s *SexEncoder) FitTransform(X *frame.Frame) (*frame.Frame, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// GetParams returns an empty parameter set.
func (s *SexEncoder) GetParams() map[string]interface{} {
	return map[string]interface{}{}
}

func (s *SexEncoder) String() string {
	return "SexEncoder()"
}
