// Package frame は乗客データのような小さな表形式データを扱うための型を提供します。
//
// Frame は列名の順序付きリストと行の並びを保持します。各セルは文字列・数値・欠損の
// いずれかを取る Value です。変換器は入力 Frame を変更せず、常に新しい Frame を返します。
package frame

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/titanic/pkg/errors"
)

// Frame は列指向のスキーマを持つ行の集合
type Frame struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New は指定した列を持つ空の Frame を作成する。
// 列名が重複している場合は panic する（gonum の mat.NewDense と同じくプログラミングエラー扱い）。
func New(columns ...string) *Frame {
	f := &Frame{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	copy(f.columns, columns)
	for i, c := range columns {
		if _, dup := f.index[c]; dup {
			panic(fmt.Sprintf("frame: duplicate column %q", c))
		}
		f.index[c] = i
	}
	return f
}

// FromRecords builds a frame from row maps. Keys absent from a record become
// missing cells; keys not listed in columns are ignored.
func FromRecords(columns []string, records []map[string]Value) *Frame {
	f := New(columns...)
	for _, rec := range records {
		row := make([]Value, len(columns))
		for j, c := range columns {
			row[j] = rec[c]
		}
		f.rows = append(f.rows, row)
	}
	return f
}

// AppendRow は1行追加する。値の数は列数と一致しなければならない。
func (f *Frame) AppendRow(values ...Value) error {
	if len(values) != len(f.columns) {
		return errors.NewDimensionError("AppendRow", len(f.columns), len(values), 1)
	}
	row := make([]Value, len(values))
	copy(row, values)
	f.rows = append(f.rows, row)
	return nil
}

// Columns returns a copy of the column names in order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)
	return out
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.rows)
}

// Has reports whether col exists.
func (f *Frame) Has(col string) bool {
	_, ok := f.index[col]
	return ok
}

// Require は必要な列がすべて存在するか確認し、欠けていれば MissingColumnError を返す
func (f *Frame) Require(op string, cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !f.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return errors.NewMissingColumnError(op, missing...)
	}
	return nil
}

// Column returns a copy of the values of col.
func (f *Frame) Column(col string) ([]Value, error) {
	j, ok := f.index[col]
	if !ok {
		return nil, errors.NewMissingColumnError("Column", col)
	}
	out := make([]Value, len(f.rows))
	for i, row := range f.rows {
		out[i] = row[j]
	}
	return out, nil
}

// At returns the cell at (row, col). An unknown column yields a missing value;
// a row index out of range panics.
func (f *Frame) At(row int, col string) Value {
	j, ok := f.index[col]
	if !ok {
		return Missing()
	}
	return f.rows[row][j]
}

// Row returns a copy of row i in column order.
func (f *Frame) Row(i int) []Value {
	out := make([]Value, len(f.columns))
	copy(out, f.rows[i])
	return out
}

// Records returns every row as a column-name keyed map.
func (f *Frame) Records() []map[string]Value {
	out := make([]map[string]Value, len(f.rows))
	for i, row := range f.rows {
		rec := make(map[string]Value, len(f.columns))
		for j, c := range f.columns {
			rec[c] = row[j]
		}
		out[i] = rec
	}
	return out
}

// Select は指定列だけを指定順で持つ新しい Frame を返す
func (f *Frame) Select(cols ...string) (*Frame, error) {
	if err := f.Require("Select", cols...); err != nil {
		return nil, err
	}
	out := New(cols...)
	out.rows = make([][]Value, len(f.rows))
	for i, row := range f.rows {
		r := make([]Value, len(cols))
		for k, c := range cols {
			r[k] = row[f.index[c]]
		}
		out.rows[i] = r
	}
	return out, nil
}

// Concat は複数の Frame を列方向に連結する。
// 行数が一致しない場合は DimensionError、列名が重複する場合は ValueError。
func Concat(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return New(), nil
	}

	nRows := frames[0].Len()
	var columns []string
	seen := make(map[string]bool)
	for _, fr := range frames {
		if fr.Len() != nRows {
			return nil, errors.NewDimensionError("Concat", nRows, fr.Len(), 0)
		}
		for _, c := range fr.columns {
			if seen[c] {
				return nil, errors.NewValueError("Concat", fmt.Sprintf("duplicate column %q", c))
			}
			seen[c] = true
			columns = append(columns, c)
		}
	}

	out := New(columns...)
	out.rows = make([][]Value, nRows)
	for i := 0; i < nRows; i++ {
		row := make([]Value, 0, len(columns))
		for _, fr := range frames {
			row = append(row, fr.rows[i]...)
		}
		out.rows[i] = row
	}
	return out, nil
}

// Matrix は全セルが数値の Frame を gonum の行列に変換する。
// 文字列や欠損が含まれる場合は位置を示す ValueError を返す。
func (f *Frame) Matrix() (*mat.Dense, error) {
	if len(f.rows) == 0 || len(f.columns) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Matrix")
	}
	data := make([]float64, 0, len(f.rows)*len(f.columns))
	for i, row := range f.rows {
		for j, v := range row {
			x, ok := v.Float()
			if !ok {
				return nil, errors.NewValueError("Matrix",
					fmt.Sprintf("column %q row %d is %s, want number", f.columns[j], i, v.Kind()))
			}
			data = append(data, x)
		}
	}
	return mat.NewDense(len(f.rows), len(f.columns), data), nil
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	out := New(f.columns...)
	out.rows = make([][]Value, len(f.rows))
	for i, row := range f.rows {
		r := make([]Value, len(row))
		copy(r, row)
		out.rows[i] = r
	}
	return out
}

// Take は指定した行だけを指定順に持つ新しい Frame を返す。
// 範囲外の行番号は DimensionError。
func (f *Frame) Take(rows []int) (*Frame, error) {
	out := New(f.columns...)
	out.rows = make([][]Value, len(rows))
	for k, i := range rows {
		if i < 0 || i >= len(f.rows) {
			return nil, errors.NewDimensionError("Take", len(f.rows), i, 0)
		}
		r := make([]Value, len(f.columns))
		copy(r, f.rows[i])
		out.rows[k] = r
	}
	return out, nil
}

// String renders the frame as a small text table, mainly for debugging.
func (f *Frame) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(f.columns, "\t"))
	for _, row := range f.rows {
		b.WriteByte('\n')
		for j, v := range row {
			if j > 0 {
				b.WriteByte('\t')
			}
			b.WriteString(v.String())
		}
	}
	return b.String()
}
