// Package report は評価結果を図として書き出す。
package report

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/titanic/pkg/errors"
)

// DefaultSize は出力画像の一辺
const DefaultSize = 4 * vg.Inch

// ROCPlot は ROC 曲線とランダム分類器の対角線を描いた plot を作る
func ROCPlot(fpr, tpr []float64, auc float64) (*plot.Plot, error) {
	if len(fpr) == 0 || len(fpr) != len(tpr) {
		return nil, errors.NewDimensionError("report.ROCPlot", len(fpr), len(tpr), 0)
	}

	p := plot.New()
	p.Title.Text = "ROC curve"
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Legend.Top = false
	p.Legend.Left = false

	pts := make(plotter.XYs, len(fpr))
	for i := range fpr {
		pts[i].X = fpr[i]
		pts[i].Y = tpr[i]
	}
	curve, err := plotter.NewLine(pts)
	if err != nil {
		return nil, errors.Wrap(err, "report: roc line")
	}
	curve.LineStyle.Width = vg.Points(2)
	curve.LineStyle.Color = color.RGBA{B: 200, A: 255}

	diagonal, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return nil, errors.Wrap(err, "report: diagonal")
	}
	diagonal.LineStyle.Color = color.Gray{Y: 128}
	diagonal.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(plotter.NewGrid(), diagonal, curve)
	p.Legend.Add(fmt.Sprintf("AUC = %.3f", auc), curve)
	p.Legend.Add("chance", diagonal)
	return p, nil
}

// WriteROC は ROC 曲線を format (png, svg, pdf ...) で w に書く
func WriteROC(w io.Writer, format string, fpr, tpr []float64, auc float64) error {
	p, err := ROCPlot(fpr, tpr, auc)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(DefaultSize, DefaultSize, strings.ToLower(format))
	if err != nil {
		return errors.Wrapf(err, "report: unsupported format %q", format)
	}
	_, err = wt.WriteTo(w)
	return errors.Wrap(err, "report: write roc")
}

// SaveROC は ROC 曲線をファイルに保存する。形式は拡張子で決まる。
func SaveROC(path string, fpr, tpr []float64, auc float64) error {
	p, err := ROCPlot(fpr, tpr, auc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "report: create %s", dir)
		}
	}
	if err := p.Save(DefaultSize, DefaultSize, path); err != nil {
		return errors.Wrapf(err, "report: save %s", path)
	}
	return nil
}
