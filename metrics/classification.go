// Package metrics は生存予測の評価指標を提供する。
//
// 入力は gonum の VecDense で、nil・空ベクトルは ValueError、
// 長さ不一致は DimensionError になる。
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/titanic/pkg/errors"
)

// logLossEps は log(0) を避けるためのクリップ幅
const logLossEps = 1e-15

// Accuracy は正解率を計算する。ラベルは完全一致で比較する。
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := checkVectors("Accuracy", yTrue, yPred); err != nil {
		return 0, err
	}

	n := yTrue.Len()
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率 (1 - Accuracy) を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := checkVectors("ClassificationError", yTrue, yPred); err != nil {
		return 0, err
	}
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// checkBinary はラベルが 0/1 だけであることを確認する
func checkBinary(op string, yTrue *mat.VecDense) error {
	for i := 0; i < yTrue.Len(); i++ {
		if v := yTrue.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, fmt.Sprintf("labels must be 0 or 1, got %v at index %d", v, i))
		}
	}
	return nil
}

// checkFinite はスコアに NaN/Inf が無いことを確認する
func checkFinite(op string, v *mat.VecDense) error {
	for i := 0; i < v.Len(); i++ {
		if x := v.AtVec(i); math.IsNaN(x) || math.IsInf(x, 0) {
			return errors.NewValueError(op, fmt.Sprintf("score %v at index %d is not finite", x, i))
		}
	}
	return nil
}

// ROCCurve は ROC 曲線の (FPR, TPR) とその閾値を返す。
// thresholds[i] はスコア >= thresholds[i] を陽性とみなしたときの点で、
// 先頭は +Inf (0, 0)、末尾は最小スコア (1, 1)。同点のスコアは 1 点にまとめる。
func ROCCurve(yTrue, yScore *mat.VecDense) (fpr, tpr, thresholds []float64, err error) {
	if err := checkVectors("ROCCurve", yTrue, yScore); err != nil {
		return nil, nil, nil, err
	}
	if err := checkBinary("ROCCurve", yTrue); err != nil {
		return nil, nil, nil, err
	}
	if err := checkFinite("ROCCurve", yScore); err != nil {
		return nil, nil, nil, err
	}

	n := yTrue.Len()
	if pos := mat.Sum(yTrue); pos == 0 || pos == float64(n) {
		return nil, nil, nil, errors.NewValueError("ROCCurve", "y_true must contain both classes")
	}
	scores := make([]float64, n)
	classes := make([]bool, n)
	for i := 0; i < n; i++ {
		scores[i] = yScore.AtVec(i)
		classes[i] = yTrue.AtVec(i) == 1
	}
	stat.SortWeightedLabeled(scores, classes, nil)

	tpr, fpr, thresholds = stat.ROC(nil, scores, classes, nil)
	return fpr, tpr, thresholds, nil
}

// AUC は ROC 曲線下面積を計算する。同点は 0.5 として数える。
// 片方のクラスしか無い場合は未定義なので 0.5 を返し、警告を出す。
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	if err := checkVectors("AUC", yTrue, yScore); err != nil {
		return 0, err
	}
	if err := checkBinary("AUC", yTrue); err != nil {
		return 0, err
	}

	pos := mat.Sum(yTrue)
	if pos == 0 || pos == float64(yTrue.Len()) {
		errors.Warn(errors.NewUndefinedMetricWarning("AUC", "only one class present in y_true", 0.5))
		return 0.5, nil
	}

	fpr, tpr, _, err := ROCCurve(yTrue, yScore)
	if err != nil {
		return 0, err
	}
	return integrate.Trapezoidal(fpr, tpr), nil
}

// AUCMatrix は行列入力の先頭列で AUC を計算する
func AUCMatrix(yTrue, yScore mat.Matrix) (float64, error) {
	yt, err := firstColumn("AUCMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	ys, err := firstColumn("AUCMatrix", yScore)
	if err != nil {
		return 0, err
	}
	return AUC(yt, ys)
}

func firstColumn(op string, m mat.Matrix) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewValueError(op, "nil matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	return mat.NewVecDense(r, mat.Col(nil, 0, m)), nil
}

// BinaryLogLoss は二値交差エントロピーを計算する。
// 確率は [eps, 1-eps] にクリップする。
func BinaryLogLoss(yTrue, yProb *mat.VecDense) (float64, error) {
	if err := checkVectors("BinaryLogLoss", yTrue, yProb); err != nil {
		return 0, err
	}
	if err := checkBinary("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}
	if err := checkFinite("BinaryLogLoss", yProb); err != nil {
		return 0, err
	}

	n := yTrue.Len()
	var loss float64
	for i := 0; i < n; i++ {
		p := errors.ClipValue(yProb.AtVec(i), logLossEps, 1-logLossEps)
		if yTrue.AtVec(i) == 1 {
			loss -= math.Log(p)
		} else {
			loss -= math.Log(1 - p)
		}
	}
	return loss / float64(n), nil
}

// BrierScore は予測確率と 0/1 ラベルの平均二乗誤差
func BrierScore(yTrue, yProb *mat.VecDense) (float64, error) {
	if err := checkVectors("BrierScore", yTrue, yProb); err != nil {
		return 0, err
	}
	if err := checkBinary("BrierScore", yTrue); err != nil {
		return 0, err
	}
	for i := 0; i < yProb.Len(); i++ {
		if p := yProb.AtVec(i); !(p >= 0 && p <= 1) {
			return 0, errors.NewValueError("BrierScore", fmt.Sprintf("probability %v at index %d is outside [0, 1]", p, i))
		}
	}
	return MSE(yTrue, yProb)
}
