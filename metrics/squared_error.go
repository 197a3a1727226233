package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/titanic/pkg/errors"
)

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := checkVectors("MSE", yTrue, yPred); err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var diff mat.VecDense
	diff.SubVec(yTrue, yPred)
	n := float64(diff.Len())
	return mat.Dot(&diff, &diff) / n, nil
}

// checkVectors は nil・空・長さ不一致を検出する
func checkVectors(op string, yTrue, yPred *mat.VecDense) error {
	if yTrue == nil || yPred == nil {
		return errors.NewValueError(op, "nil vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return nil
}
