package dataset

import (
	"github.com/YuminosukeSato/titanic/core/frame"
)

// Unknown は入力されなかった名前・チケットの代わりに入れる値
const Unknown = "unknown"

// PassengerColumns は推論用 Frame の列順
var PassengerColumns = []string{"pclass", "name", "sex", "sibsp", "parch", "ticket", "fare", "age", "embarked"}

// Passenger は 1 人分の入力
type Passenger struct {
	PClass   int
	Name     string
	Sex      string
	Age      float64
	SibSp    int
	Parch    int
	Ticket   string
	Fare     float64
	Embarked string
}

// Frame は Passenger を 1 行の Frame にする。
// 空の Name / Ticket は Unknown、空の Embarked は欠損になる。
func (p Passenger) Frame() *frame.Frame {
	name, ticket := p.Name, p.Ticket
	if name == "" {
		name = Unknown
	}
	if ticket == "" {
		ticket = Unknown
	}
	embarked := frame.Missing()
	if p.Embarked != "" {
		embarked = frame.Str(p.Embarked)
	}

	f := frame.New(PassengerColumns...)
	// 列数は PassengerColumns と一致している
	_ = f.AppendRow(
		frame.Num(float64(p.PClass)),
		frame.Str(name),
		frame.Str(p.Sex),
		frame.Num(float64(p.SibSp)),
		frame.Num(float64(p.Parch)),
		frame.Str(ticket),
		frame.Num(p.Fare),
		frame.Num(p.Age),
		embarked,
	)
	return f
}
