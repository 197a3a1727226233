package preprocessing

import "github.com/YuminosukeSato/titanic/core/frame"

// 家族人数のビン
const (
	BinAlone = "alone"
	BinSmall = "small"
	BinLarge = "large"
)

// binSibsp は 0→alone, 0<x≤2→small, それ以外→large。負数も large になる。
func binSibsp(x float64) string {
	switch {
	case x == 0:
		return BinAlone
	case x <= 2 && x > 0:
		return BinSmall
	default:
		return BinLarge
	}
}

// binParch は 0→alone, 1〜2→small, それ以外→large
func binParch(x float64) string {
	switch {
	case x == 0:
		return BinAlone
	case x >= 1 && x <= 2:
		return BinSmall
	default:
		return BinLarge
	}
}

// familyBinning は SibspBinning と ParchBinning の共通実装
type familyBinning struct {
	component
	bin func(float64) string
}

// Fit は入力列の存在だけを確認する
func (f *familyBinning) Fit(X *frame.Frame) error {
	return f.fitStateless(X)
}

// Transform returns the single band column. Missing counts fall through to
// "large"; string cells are a ValueError.
func (f *familyBinning) Transform(X *frame.Frame) (*frame.Frame, error) {
	return f.mapRows(X, func(row int, v frame.Value) ([]frame.Value, error) {
		x, ok, err := f.count(v, row)
		if err != nil {
			return nil, err
		}
		if !ok {
			return []frame.Value{frame.Str(BinLarge)}, nil
		}
		return []frame.Value{frame.Str(f.bin(x))}, nil
	})
}

// FitTransform は Fit と Transform を続けて実行する
func (f *familyBinning) FitTransform(X *frame.Frame) (*frame.Frame, error) {
	if err := f.Fit(X); err != nil {
		return nil, err
	}
	return f.Transform(X)
}

// GetParams returns an empty parameter set.
func (f *familyBinning) GetParams() map[string]interface{} {
	return map[string]interface{}{}
}

func (f *familyBinning) String() string {
	return f.name + "()"
}

// SibspBinning は同乗した兄弟・配偶者の人数を alone/small/large に分ける
type SibspBinning struct {
	familyBinning
}

// NewSibspBinning creates a SibspBinning reading "sibsp" into "bin_sibsp".
func NewSibspBinning(opts ...Option) *SibspBinning {
	return &SibspBinning{familyBinning{
		component: newComponent("SibspBinning", "sibsp", []string{"bin_sibsp"}, opts),
		bin:       binSibsp,
	}}
}

// ParchBinning は同乗した親・子の人数を alone/small/large に分ける
type ParchBinning struct {
	familyBinning
}

// NewParchBinning creates a ParchBinning reading "parch" into "bin_parch".
func NewParchBinning(opts ...Option) *ParchBinning {
	return &ParchBinning{familyBinning{
		component: newComponent("ParchBinning", "parch", []string{"bin_parch"}, opts),
		bin:       binParch,
	}}
}
