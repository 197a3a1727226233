package dataset

import (
	"math"
	"math/rand"

	"github.com/YuminosukeSato/titanic/core/frame"
	"github.com/YuminosukeSato/titanic/pkg/errors"
)

// Split はホールドアウト分割の結果
type Split struct {
	XTrain *frame.Frame
	YTrain []float64
	XTest  *frame.Frame
	YTest  []float64
}

// TrainTestSplit は seed で決まる順に行をシャッフルし、先頭 ceil(n*testSize) 行を
// テスト側にする。同じ seed なら同じ分割になる。
func TrainTestSplit(X *frame.Frame, y []float64, testSize float64, seed int64) (*Split, error) {
	n := X.Len()
	if len(y) != n {
		return nil, errors.NewDimensionError("TrainTestSplit", n, len(y), 0)
	}
	if !(testSize > 0 && testSize < 1) {
		return nil, errors.NewInvalidConfigError("TrainTestSplit", "test_size", "must be within (0, 1)", testSize)
	}

	nTest := int(math.Ceil(float64(n) * testSize))
	if nTest < 1 || n-nTest < 1 {
		return nil, errors.NewValueError("TrainTestSplit",
			"not enough rows for both a train and a test part")
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	testIdx, trainIdx := perm[:nTest], perm[nTest:]

	XTest, err := X.Take(testIdx)
	if err != nil {
		return nil, err
	}
	XTrain, err := X.Take(trainIdx)
	if err != nil {
		return nil, err
	}
	return &Split{
		XTrain: XTrain,
		YTrain: pick(y, trainIdx),
		XTest:  XTest,
		YTest:  pick(y, testIdx),
	}, nil
}

func pick(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = y[i]
	}
	return out
}
