package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/titanic/core/frame"
)

// ColumnTransformer は Frame の列を読み、宣言された出力列を持つ新しい Frame を返す変換器。
//
// 実装は次の約束を守る:
//   - Fit は入力を変更しない。再度 Fit すると学習パラメータは置き換わる
//   - Transform は出力列をちょうど OutputSchema の順で返し、行数と行順を保つ
//   - 学習パラメータを持つ変換器は Fit 前の Transform で NotFittedError を返す
type ColumnTransformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X *frame.Frame) error

	// Transform はデータを変換する
	Transform(X *frame.Frame) (*frame.Frame, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X *frame.Frame) (*frame.Frame, error)

	// OutputSchema は出力列名を返す。構築時に決まり Fit に依存しない。
	OutputSchema() []string
}

// Transformer は数値行列に対する変換器 (StandardScaler など)
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// Classifier は二値/多クラス分類器のインターフェース
type Classifier interface {
	// Fit はモデルを訓練データで学習させる。y は列ベクトル。
	Fit(X, y mat.Matrix) error

	// Predict はクラスラベルを予測する
	Predict(X mat.Matrix) (mat.Matrix, error)

	// PredictProba は各クラスの確率を Classes の順で返す
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes は学習時に見たクラスラベルを昇順で返す
	Classes() []int
}

// ParameterGetter exposes hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// WeightExporter はモデルの重みを ModelWeights として出し入れできるモデル
type WeightExporter interface {
	ExportWeights() (*ModelWeights, error)
	ImportWeights(w *ModelWeights) error
}
