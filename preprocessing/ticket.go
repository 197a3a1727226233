package preprocessing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/YuminosukeSato/titanic/core/frame"
	"github.com/YuminosukeSato/titanic/core/model"
	"github.com/YuminosukeSato/titanic/pkg/errors"
	"github.com/YuminosukeSato/titanic/pkg/log"
)

// チケット文字列の接頭辞と末尾の番号
var (
	ticketPrefixPattern = regexp.MustCompile(`^([A-Za-z./]+)`)
	ticketNumberPattern = regexp.MustCompile(`(\d+)$`)
)

const (
	// PrefixNone は接頭辞がない（または欠損）チケットの値
	PrefixNone = "none"
	// PrefixRare は学習した上位接頭辞に含まれない接頭辞の値
	PrefixRare = "rare"
)

// TicketExtractorAdvanced はチケット文字列から接頭辞と番号を取り出す。
//
// Fit で出現頻度の高い接頭辞を TopK 個まで学習し、それ以外の接頭辞は "rare" にまとめる。
// 接頭辞がないチケットは常に "none" のまま。同数の場合は先に出現した接頭辞を優先する。
type TicketExtractorAdvanced struct {
	model.BaseEstimator
	component

	// TopK は残す接頭辞の数
	TopK int

	// TopPrefixes は学習した接頭辞（頻度の高い順）
	TopPrefixes []string

	known map[string]bool
}

// NewTicketExtractorAdvanced creates a ticket extractor keeping topK prefixes.
//
// 使用例:
//
//	ticket := preprocessing.NewTicketExtractorAdvanced(10)
//	err := ticket.Fit(train)
//	features, err := ticket.Transform(test)
func NewTicketExtractorAdvanced(topK int, opts ...Option) *TicketExtractorAdvanced {
	return &TicketExtractorAdvanced{
		component: newTicketComponent(opts),
		TopK:      topK,
	}
}

func newTicketComponent(opts []Option) component {
	return newComponent("TicketExtractorAdvanced", "ticket", []string{"ticket_prefix", "ticket_number"}, opts)
}

// Validate checks the configuration.
func (t *TicketExtractorAdvanced) Validate() error {
	if t.TopK < 0 {
		return errors.NewInvalidConfigError(t.name, "top_k", "must be non-negative", t.TopK)
	}
	return nil
}

// Fit は接頭辞の出現頻度を数え、上位 TopK 個を学習する
func (t *TicketExtractorAdvanced) Fit(X *frame.Frame) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := t.require(X, "Fit"); err != nil {
		return err
	}
	tickets, err := X.Column(t.source)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	var order []string
	for _, v := range tickets {
		p := ticketPrefix(v)
		if _, seen := counts[p]; !seen {
			order = append(order, p)
		}
		counts[p]++
	}

	// 安定ソートなので同数は初出順のまま
	ranked := stableSortByCount(order, counts)
	if len(ranked) > t.TopK {
		ranked = ranked[:t.TopK]
	}
	t.setPrefixes(ranked)
	t.SetFitted()

	t.logger.Debug("fit complete",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, X.Len(),
		"prefixes", t.TopPrefixes,
	)
	return nil
}

func (t *TicketExtractorAdvanced) setPrefixes(prefixes []string) {
	t.TopPrefixes = prefixes
	t.known = make(map[string]bool, len(prefixes))
	for _, p := range prefixes {
		t.known[p] = true
	}
}

// Transform returns ticket_prefix and ticket_number.
func (t *TicketExtractorAdvanced) Transform(X *frame.Frame) (*frame.Frame, error) {
	if err := t.CheckFitted(t.name, "Transform"); err != nil {
		return nil, err
	}
	return t.mapRows(X, func(_ int, v frame.Value) ([]frame.Value, error) {
		prefix := ticketPrefix(v)
		if prefix != PrefixNone && !t.known[prefix] {
			prefix = PrefixRare
		}
		return []frame.Value{frame.Str(prefix), frame.Num(ticketNumber(v))}, nil
	})
}

// ticketPrefix は先頭の英字・"."・"/" の並びを小文字で返す。なければ "none"。
func ticketPrefix(v frame.Value) string {
	s, ok := v.Text()
	if !ok {
		return PrefixNone
	}
	m := ticketPrefixPattern.FindStringSubmatch(s)
	if m == nil {
		return PrefixNone
	}
	return strings.ToLower(m[1])
}

// ticketNumber は末尾の数字列を数値で返す。なければ 0。
func ticketNumber(v frame.Value) float64 {
	s, ok := v.Text()
	if !ok {
		return 0
	}
	m := ticketNumberPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return n
}

// FitTransform は Fit と Transform を続けて実行する
func (t *TicketExtractorAdvanced) FitTransform(X *frame.Frame) (*frame.Frame, error) {
	if err := t.Fit(X); err != nil {
		return nil, err
	}
	return t.Transform(X)
}

// GetParams returns the configuration.
func (t *TicketExtractorAdvanced) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"top_k": t.TopK,
	}
}

func (t *TicketExtractorAdvanced) String() string {
	if t.IsFitted() {
		return fmt.Sprintf("TicketExtractorAdvanced(top_k=%d, prefixes=%v)", t.TopK, t.TopPrefixes)
	}
	return fmt.Sprintf("TicketExtractorAdvanced(top_k=%d)", t.TopK)
}

type ticketState struct {
	TopK        int      `json:"top_k"`
	TopPrefixes []string `json:"top_prefixes"`
	Fitted      bool     `json:"fitted"`
}

// MarshalJSON encodes the configuration and learned prefixes.
func (t *TicketExtractorAdvanced) MarshalJSON() ([]byte, error) {
	return gojson.Marshal(ticketState{TopK: t.TopK, TopPrefixes: t.TopPrefixes, Fitted: t.IsFitted()})
}

// UnmarshalJSON restores an extractor saved with MarshalJSON.
func (t *TicketExtractorAdvanced) UnmarshalJSON(data []byte) error {
	var st ticketState
	if err := gojson.Unmarshal(data, &st); err != nil {
		return err
	}
	if t.logger == nil {
		t.component = newTicketComponent(nil)
	}
	t.TopK = st.TopK
	t.setPrefixes(st.TopPrefixes)
	t.Reset()
	if st.Fitted {
		t.SetFitted()
	}
	return nil
}
