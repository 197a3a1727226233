package preprocessing

import (
	"fmt"
	"math"
	"sort"

	gojson "github.com/goccy/go-json"

	"github.com/YuminosukeSato/titanic/core/frame"
	"github.com/YuminosukeSato/titanic/core/model"
	"github.com/YuminosukeSato/titanic/pkg/errors"
	"github.com/YuminosukeSato/titanic/pkg/log"
)

// ビン境界の決め方
const (
	FareMethodQuantile = "quantile"
	FareMethodManual   = "manual"
)

// FareBinningConfig は FareBinning の設定
type FareBinningConfig struct {
	// Method は "quantile" か "manual"
	Method string `yaml:"method" json:"method"`
	// Q は quantile 方式の分位数
	Q int `yaml:"q" json:"q"`
	// Bins は manual 方式のビン境界（狭義単調増加）
	Bins []float64 `yaml:"bins,omitempty" json:"bins,omitempty"`
	// Labels はビンのラベル。省略時は bin1..binN
	Labels []string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

// DefaultFareBinningConfig は四分位でビン分けする設定を返す
func DefaultFareBinningConfig() FareBinningConfig {
	return FareBinningConfig{Method: FareMethodQuantile, Q: 4}
}

// FareBinning は運賃をビンのラベルに変換する。
//
// ビンは (edge[i-1], edge[i]] の半開区間で、最初のビンだけ両端を含む。
// 範囲外・欠損の運賃は欠損になる。quantile 方式では重複した境界を取り除くため、
// 実際のビン数が Q より少なくなることがある（BinReductionWarning を出す）。
type FareBinning struct {
	model.BaseEstimator
	component

	Config FareBinningConfig

	// Edges は学習したビン境界
	Edges []float64
	// BinLabels は Edges に対応するラベル（len(Edges)-1 個）
	BinLabels []string
}

// NewFareBinning creates a FareBinning from cfg. The configuration is
// checked by Fit; call Validate to check it earlier.
//
// 使用例:
//
//	fare := preprocessing.NewFareBinning(preprocessing.FareBinningConfig{
//	    Method: "manual",
//	    Bins:   []float64{0, 10, 50, 600},
//	    Labels: []string{"low", "mid", "high"},
//	})
func NewFareBinning(cfg FareBinningConfig, opts ...Option) *FareBinning {
	return &FareBinning{
		component: newFareComponent(opts),
		Config:    cfg,
	}
}

func newFareComponent(opts []Option) component {
	return newComponent("FareBinning", "fare", []string{"fare_bin"}, opts)
}

// Validate は設定の矛盾を InvalidConfigError として返す
func (f *FareBinning) Validate() error {
	cfg := f.Config
	switch cfg.Method {
	case FareMethodQuantile:
		if cfg.Q < 1 {
			return errors.NewInvalidConfigError(f.name, "q", "must be at least 1", cfg.Q)
		}
	case FareMethodManual:
		if len(cfg.Bins) == 0 {
			return errors.NewInvalidConfigError(f.name, "bins", "manual method requires bin edges", cfg.Bins)
		}
		if len(cfg.Bins) < 2 {
			return errors.NewInvalidConfigError(f.name, "bins", "at least two edges are required", cfg.Bins)
		}
		for i := 1; i < len(cfg.Bins); i++ {
			if !(cfg.Bins[i] > cfg.Bins[i-1]) {
				return errors.NewInvalidConfigError(f.name, "bins", "edges must increase monotonically", cfg.Bins)
			}
		}
		if cfg.Labels != nil && len(cfg.Labels) != len(cfg.Bins)-1 {
			return errors.NewInvalidConfigError(f.name, "labels", "must be one fewer than the number of bin edges", len(cfg.Labels))
		}
	default:
		return errors.NewInvalidConfigError(f.name, "method", "must be 'manual' or 'quantile'", cfg.Method)
	}
	return nil
}

// Fit はビン境界とラベルを決める
func (f *FareBinning) Fit(X *frame.Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if err := f.require(X, "Fit"); err != nil {
		return err
	}

	var edges []float64
	switch f.Config.Method {
	case FareMethodManual:
		edges = append([]float64(nil), f.Config.Bins...)
	case FareMethodQuantile:
		fares, err := f.fares(X)
		if err != nil {
			return err
		}
		if len(fares) == 0 {
			return errors.NewValueError(f.name+".Fit", "no non-missing fares to compute quantiles")
		}
		edges = uniqueSorted(quantiles(fares, f.Config.Q))
		if len(edges)-1 < f.Config.Q {
			errors.Warn(errors.NewBinReductionWarning(f.name, f.Config.Q, len(edges)-1))
		}
	}
	if len(edges) < 2 {
		return errors.NewValueError(f.name+".Fit",
			fmt.Sprintf("bin edges %v define no interval", edges))
	}

	labels := f.Config.Labels
	if labels == nil {
		labels = make([]string, len(edges)-1)
		for i := range labels {
			labels[i] = fmt.Sprintf("bin%d", i+1)
		}
	} else if len(labels) != len(edges)-1 {
		return errors.NewInvalidConfigError(f.name, "labels", "must be one fewer than the number of bin edges", len(labels))
	}

	f.Edges = edges
	f.BinLabels = append([]string(nil), labels...)
	f.SetFitted()

	f.logger.Debug("fit complete",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, X.Len(),
		"edges", f.Edges,
	)
	return nil
}

// fares は欠損を除いた運賃を昇順で返す
func (f *FareBinning) fares(X *frame.Frame) ([]float64, error) {
	col, err := X.Column(f.source)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(col))
	for i, v := range col {
		x, ok, err := f.count(v, i)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, x)
		}
	}
	sort.Float64s(out)
	return out, nil
}

// Transform returns fare_bin.
func (f *FareBinning) Transform(X *frame.Frame) (*frame.Frame, error) {
	if err := f.CheckFitted(f.name, "Transform"); err != nil {
		return nil, err
	}
	return f.mapRows(X, func(row int, v frame.Value) ([]frame.Value, error) {
		x, ok, err := f.count(v, row)
		if err != nil {
			return nil, err
		}
		if !ok {
			return []frame.Value{frame.Missing()}, nil
		}
		return []frame.Value{f.bin(x)}, nil
	})
}

// bin は x が入るビンのラベルを返す。最初のビンは左端も含む。
func (f *FareBinning) bin(x float64) frame.Value {
	n := len(f.Edges)
	if x < f.Edges[0] || x > f.Edges[n-1] {
		return frame.Missing()
	}
	i := sort.SearchFloat64s(f.Edges, x)
	if i == 0 {
		return frame.Str(f.BinLabels[0])
	}
	return frame.Str(f.BinLabels[i-1])
}

// quantiles は numpy の既定（linear 補間, pos = p·(n−1)）と同じ方法で
// 0..1 を q 等分した分位点を計算する。sorted は昇順であること。
func quantiles(sorted []float64, q int) []float64 {
	n := len(sorted)
	step := 1.0 / float64(q)
	out := make([]float64, q+1)
	for i := 0; i <= q; i++ {
		p := float64(i) * step
		if i == q {
			p = 1
		}
		pos := p * float64(n-1)
		lo := math.Floor(pos)
		hi := math.Ceil(pos)
		a, b := sorted[int(lo)], sorted[int(hi)]
		out[i] = a + (b-a)*(pos-lo)
	}
	return out
}

// uniqueSorted は昇順の値から重複を取り除く
func uniqueSorted(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for i, x := range xs {
		if i == 0 || x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}

// FitTransform は Fit と Transform を続けて実行する
func (f *FareBinning) FitTransform(X *frame.Frame) (*frame.Frame, error) {
	if err := f.Fit(X); err != nil {
		return nil, err
	}
	return f.Transform(X)
}

// GetParams returns the configuration.
func (f *FareBinning) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"method": f.Config.Method,
		"q":      f.Config.Q,
		"bins":   f.Config.Bins,
		"labels": f.Config.Labels,
	}
}

func (f *FareBinning) String() string {
	if f.IsFitted() {
		return fmt.Sprintf("FareBinning(method=%s, edges=%v, labels=%v)", f.Config.Method, f.Edges, f.BinLabels)
	}
	return fmt.Sprintf("FareBinning(method=%s, q=%d)", f.Config.Method, f.Config.Q)
}

type fareState struct {
	Config FareBinningConfig `json:"config"`
	Edges  []float64         `json:"edges,omitempty"`
	Labels []string          `json:"labels,omitempty"`
	Fitted bool              `json:"fitted"`
}

// MarshalJSON encodes the configuration and learned edges.
func (f *FareBinning) MarshalJSON() ([]byte, error) {
	return gojson.Marshal(fareState{Config: f.Config, Edges: f.Edges, Labels: f.BinLabels, Fitted: f.IsFitted()})
}

// UnmarshalJSON restores a FareBinning saved with MarshalJSON.
func (f *FareBinning) UnmarshalJSON(data []byte) error {
	var st fareState
	if err := gojson.Unmarshal(data, &st); err != nil {
		return err
	}
	if st.Fitted && (len(st.Edges) < 2 || len(st.Labels) != len(st.Edges)-1) {
		return errors.NewValueError("FareBinning.UnmarshalJSON", "edges and labels do not match")
	}
	if f.logger == nil {
		f.component = newFareComponent(nil)
	}
	f.Config = st.Config
	f.Edges = st.Edges
	f.BinLabels = st.Labels
	f.Reset()
	if st.Fitted {
		f.SetFitted()
	}
	return nil
}
