package preprocessing

import (
	"regexp"
	"strings"

	"github.com/YuminosukeSato/titanic/core/frame"
)

// 最初のカンマより前が姓
var lastNamePattern = regexp.MustCompile(`^([^,]+),`)

// NameExtractor は "Braund, Mr. Owen Harris" 形式の氏名から敬称と姓を取り出す。
//
//	title     = 最後のカンマと、その後最初のピリオドの間（前後の空白を除く）
//	last_name = 最初のカンマより前
//
// 形式に合わない氏名はエラーにせず、該当フィールドを欠損にする。
type NameExtractor struct {
	component
}

// NewNameExtractor creates a NameExtractor reading the "name" column.
func NewNameExtractor(opts ...Option) *NameExtractor {
	return &NameExtractor{
		component: newComponent("NameExtractor", "name", []string{"title", "last_name"}, opts),
	}
}

// Fit は name 列の存在だけを確認する
func (n *NameExtractor) Fit(X *frame.Frame) error {
	return n.fitStateless(X)
}

// Transform returns title and last_name.
func (n *NameExtractor) Transform(X *frame.Frame) (*frame.Frame, error) {
	return n.mapRows(X, func(_ int, v frame.Value) ([]frame.Value, error) {
		name, ok := v.Text()
		if !ok {
			return []frame.Value{frame.Missing(), frame.Missing()}, nil
		}
		return []frame.Value{extractTitle(name), extractLastName(name)}, nil
	})
}

func extractTitle(name string) frame.Value {
	comma := strings.LastIndex(name, ",")
	if comma < 0 {
		return frame.Missing()
	}
	rest := name[comma+1:]
	period := strings.Index(rest, ".")
	if period < 0 {
		return frame.Missing()
	}
	return frame.Str(strings.TrimSpace(rest[:period]))
}

func extractLastName(name string) frame.Value {
	m := lastNamePattern.FindStringSubmatch(name)
	if m == nil {
		return frame.Missing()
	}
	return frame.Str(m[1])
}

// FitTransform は Fit と Transform を続けて実行する
func (n *NameExtractor) FitTransform(X *frame.Frame) (*frame.Frame, error) {
	if err := n.Fit(X); err != nil {
		return nil, err
	}
	return n.Transform(X)
}

// GetParams returns an empty parameter set.
func (n *NameExtractor) GetParams() map[string]interface{} {
	return map[string]interface{}{}
}

func (n *NameExtractor) String() string {
	return "NameExtractor()"
}
