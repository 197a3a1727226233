// Package dataset は乗客 CSV の読み込み、ホールドアウト分割、
// 推論用の 1 行データの組み立てを提供する。
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/titanic/core/frame"
	"github.com/YuminosukeSato/titanic/pkg/errors"
	"github.com/YuminosukeSato/titanic/pkg/log"
)

// stringColumns は数値に見えても文字列として読む列
var stringColumns = map[string]bool{
	"name":      true,
	"sex":       true,
	"ticket":    true,
	"cabin":     true,
	"embarked":  true,
	"home.dest": true,
}

// missingTokens は欠損として扱うセル
var missingTokens = map[string]bool{
	"":    true,
	"NA":  true,
	"NaN": true,
	"nan": true,
}

// ReadCSV はヘッダ付き CSV を Frame とラベルに分ける。
//
// ヘッダは小文字化する。label 列は 0/1 でなければならず、Frame には含まれない。
// label が空文字列ならラベルを読まずに全列を返す。
func ReadCSV(r io.Reader, label string) (*frame.Frame, []float64, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.NewValueError("ReadCSV", "missing header row")
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "dataset: read header")
	}

	label = strings.ToLower(label)
	labelIdx := -1
	var columns []string
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if seen[name] {
			return nil, nil, errors.NewValueError("ReadCSV", fmt.Sprintf("duplicate column %q", name))
		}
		seen[name] = true
		if label != "" && name == label {
			labelIdx = i
			continue
		}
		columns = append(columns, name)
	}
	if label != "" && labelIdx < 0 {
		return nil, nil, errors.NewMissingColumnError("ReadCSV", label)
	}

	X := frame.New(columns...)
	var y []float64
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, nil, errors.Wrapf(err, "dataset: read line %d", line)
		}

		row := make([]frame.Value, 0, len(columns))
		for i, cell := range record {
			if i == labelIdx {
				v, err := parseLabel(cell)
				if err != nil {
					return nil, nil, errors.NewValueError("ReadCSV", fmt.Sprintf("line %d: %v", line, err))
				}
				y = append(y, v)
				continue
			}
			row = append(row, parseCell(strings.ToLower(strings.TrimSpace(header[i])), cell))
		}
		if err := X.AppendRow(row...); err != nil {
			return nil, nil, err
		}
	}
	return X, y, nil
}

// LoadCSV は path の CSV を読む
func LoadCSV(path, label string) (*frame.Frame, []float64, error) {
	f, err := os.Open(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, nil, errors.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()

	X, y, err := ReadCSV(f, label)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "dataset: %s", path)
	}
	log.GetLoggerWithName("dataset").Debug("csv loaded",
		log.PathKey, path,
		log.SamplesKey, X.Len(),
		log.FeaturesKey, len(X.Columns()),
	)
	return X, y, nil
}

func parseCell(column, cell string) frame.Value {
	if missingTokens[strings.TrimSpace(cell)] {
		return frame.Missing()
	}
	if !stringColumns[column] {
		if x, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err == nil {
			return frame.Num(x)
		}
	}
	return frame.Str(cell)
}

func parseLabel(cell string) (float64, error) {
	x, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || (x != 0 && x != 1) {
		return 0, errors.Newf("label %q is not 0 or 1", cell)
	}
	return x, nil
}
