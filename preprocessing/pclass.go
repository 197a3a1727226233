package preprocessing

import "github.com/YuminosukeSato/titanic/core/frame"

// PClassEncoder は客室等級を pclass_1 / pclass_3 の二つの指示変数に変換する。
// 2等は両方 0。数値でない値・欠損も両方 0。
type PClassEncoder struct {
	component
}

// NewPClassEncoder creates a PClassEncoder reading the "pclass" column.
func NewPClassEncoder(opts ...Option) *PClassEncoder {
	return &PClassEncoder{
		component: newComponent("PClassEncoder", "pclass", []string{"pclass_1", "pclass_3"}, opts),
	}
}

// Fit は pclass 列の存在だけを確認する
func (p *PClassEncoder) Fit(X *frame.Frame) error {
	return p.fitStateless(X)
}

// Transform returns pclass_1 and pclass_3.
func (p *PClassEncoder) Transform(X *frame.Frame) (*frame.Frame, error) {
	return p.mapRows(X, func(_ int, v frame.Value) ([]frame.Value, error) {
		class, _ := v.Float()
		return []frame.Value{indicator(class == 1), indicator(class == 3)}, nil
	})
}

// FitTransform は Fit と Transform を続けて実行する
func (p *PClassEncoder) FitTransform(X *frame.Frame) (*frame.Frame, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// GetParams returns an empty parameter set.
func (p *PClassEncoder) GetParams() map[string]interface{} {
	return map[string]interface{}{}
}

func (p *PClassEncoder) String() string {
	return "PClassEncoder()"
}
