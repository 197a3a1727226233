package frame

import (
	"math"
	"strconv"

	gojson "github.com/goccy/go-json"

	"github.com/YuminosukeSato/titanic/pkg/errors"
)

// Kind は Value が保持している値の種類を表す
type Kind uint8

const (
	// KindMissing は欠損値
	KindMissing Kind = iota
	// KindNumber は数値
	KindNumber
	// KindString は文字列
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "missing"
	}
}

// Value はセル1つ分の値。文字列・数値・欠損のいずれか。
// ゼロ値は欠損値。
type Value struct {
	kind Kind
	num  float64
	str  string
}

// Num は数値セルを作る。NaN は欠損として扱う。
func Num(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// Str は文字列セルを作る
func Str(s string) Value {
	return Value{kind: KindString, str: s}
}

// Missing は欠損セルを返す
func Missing() Value {
	return Value{}
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v is the missing marker.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// IsString reports whether v holds a string.
func (v Value) IsString() bool { return v.kind == KindString }

// Float returns the number held by v. ok is false for strings and missing values.
func (v Value) Float() (f float64, ok bool) {
	if v.kind != KindNumber {
		return math.NaN(), false
	}
	return v.num, true
}

// Text returns the string held by v. ok is false for numbers and missing values.
func (v Value) Text() (s string, ok bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Equal reports whether v and o have the same kind and content.
// Two missing values are equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindString:
		return v.str == o.str
	default:
		return true
	}
}

// String formats v for display. Missing values print as "NaN".
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return v.str
	default:
		return "NaN"
	}
}

// MarshalJSON encodes missing as null, numbers as JSON numbers and strings
// as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return gojson.Marshal(v.num)
	case KindString:
		return gojson.Marshal(v.str)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := gojson.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Missing()
	case float64:
		*v = Num(x)
	case string:
		*v = Str(x)
	default:
		return errors.NewValueError("frame.Value", "cannot decode "+string(data)+" as a cell value")
	}
	return nil
}
