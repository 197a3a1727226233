package pipeline

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/titanic/config"
	"github.com/YuminosukeSato/titanic/core/frame"
	"github.com/YuminosukeSato/titanic/pkg/errors"
	"github.com/YuminosukeSato/titanic/pkg/log"
	"github.com/YuminosukeSato/titanic/preprocessing"
	"github.com/YuminosukeSato/titanic/sklearn/linear_model"
)

const survivalModelName = "SurvivalModel"

// InputColumns は SurvivalModel が読む生の列
var InputColumns = []string{"pclass", "name", "sex", "sibsp", "parch", "ticket", "fare", "age", "embarked"}

// Option configures a SurvivalModel.
type Option func(*SurvivalModel)

// WithLogger sets the logger shared by every stage.
func WithLogger(logger log.Logger) Option {
	return func(m *SurvivalModel) {
		m.logger = logger
	}
}

// SurvivalModel は乗客の生データから生存確率を予測する。
//
//	9 つの特徴量変換 → OneHotEncoder → 行列化 → StandardScaler → LogisticRegression
//
// Fit は呼び出し側で直列化すること。学習後の予測は読み取りのみ。
type SurvivalModel struct {
	features   config.Features
	classifier config.Classifier

	ticket   *preprocessing.TicketExtractorAdvanced
	fare     *preprocessing.FareBinning
	age      *preprocessing.AgeImputer
	embarked *preprocessing.EmbarkedEncoder

	union   *FeatureUnion
	encoder *preprocessing.OneHotEncoder
	scaler  *preprocessing.StandardScaler
	clf     *linear_model.LogisticRegression

	fitted bool
	logger log.Logger
}

// NewSurvivalModel builds an unfitted model from the feature and classifier settings.
func NewSurvivalModel(features config.Features, classifier config.Classifier, opts ...Option) (*SurvivalModel, error) {
	m := &SurvivalModel{features: features, classifier: classifier}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.GetLoggerWithName(survivalModelName)
	}

	m.ticket = preprocessing.NewTicketExtractorAdvanced(features.TicketTopK, m.transformerOpt())
	m.fare = preprocessing.NewFareBinning(features.Fare, m.transformerOpt())
	m.age = preprocessing.NewAgeImputer(m.transformerOpt())
	m.embarked = preprocessing.NewEmbarkedEncoder(m.transformerOpt())
	m.encoder = preprocessing.NewOneHotEncoder(features.OneHotMaxCategories, m.transformerOpt())
	m.scaler = preprocessing.NewStandardScalerDefault()
	m.clf = m.newClassifier()

	if err := m.ticket.Validate(); err != nil {
		return nil, err
	}
	if err := m.fare.Validate(); err != nil {
		return nil, err
	}
	if err := m.buildUnion(); err != nil {
		return nil, err
	}
	m.logger = m.logger.With(log.ModelNameKey, survivalModelName)
	return m, nil
}

func (m *SurvivalModel) transformerOpt() preprocessing.Option {
	return preprocessing.WithLogger(m.logger)
}

func (m *SurvivalModel) newClassifier() *linear_model.LogisticRegression {
	return linear_model.NewLogisticRegression(
		linear_model.WithLRC(m.classifier.C),
		linear_model.WithLRMaxIter(m.classifier.MaxIter),
		linear_model.WithLRTol(m.classifier.Tol),
		linear_model.WithLRRandomState(m.classifier.RandomState),
		linear_model.WithLRLogger(m.logger),
	)
}

// buildUnion は学習状態を持つ 4 つの変換器と状態のない 5 つの変換器を並べる
func (m *SurvivalModel) buildUnion() error {
	opt := m.transformerOpt()
	union, err := NewFeatureUnion(m.logger,
		Step{"pclass", preprocessing.NewPClassEncoder(opt)},
		Step{"name", preprocessing.NewNameExtractor(opt)},
		Step{"sex", preprocessing.NewSexEncoder(opt)},
		Step{"sibsp", preprocessing.NewSibspBinning(opt)},
		Step{"parch", preprocessing.NewParchBinning(opt)},
		Step{"ticket", m.ticket},
		Step{"fare", m.fare},
		Step{"age", m.age},
		Step{"embarked", m.embarked},
	)
	if err != nil {
		return err
	}
	m.union = union
	return nil
}

// Fit は特徴量変換・エンコーダ・スケーラ・分類器を順に学習する。
// y は 0 (死亡) / 1 (生存) で、両方のクラスを含む必要がある。
func (m *SurvivalModel) Fit(X *frame.Frame, y []float64) error {
	start := time.Now()
	n := X.Len()
	if len(y) != n {
		return errors.NewDimensionError(survivalModelName+".Fit", n, len(y), 0)
	}
	if n == 0 {
		return errors.NewModelError(survivalModelName+".Fit", "empty data", errors.ErrEmptyData)
	}
	var pos int
	for i, v := range y {
		if v != 0 && v != 1 {
			return errors.NewValueError(survivalModelName+".Fit", fmt.Sprintf("label %v at row %d is not 0 or 1", v, i))
		}
		pos += int(v)
	}
	if pos == 0 || pos == n {
		return errors.NewValueError(survivalModelName+".Fit", "labels must contain both survivors and non-survivors")
	}
	if err := X.Require(survivalModelName+".Fit", InputColumns...); err != nil {
		return err
	}

	m.fitted = false
	feats, err := m.union.FitTransform(X)
	if err != nil {
		return err
	}
	encoded, err := m.encoder.FitTransform(feats)
	if err != nil {
		return errors.Wrap(err, "step one_hot")
	}
	M, err := encoded.Matrix()
	if err != nil {
		return errors.Wrap(err, "feature matrix")
	}
	scaled, err := m.scaler.FitTransform(M)
	if err != nil {
		return errors.Wrap(err, "step scaler")
	}
	if err := m.clf.Fit(scaled, mat.NewDense(n, 1, append([]float64(nil), y...))); err != nil {
		return errors.Wrap(err, "step classifier")
	}
	m.fitted = true

	m.logger.Info("survival model fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, len(m.encoder.OutputSchema()),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// IsFitted reports whether the model can predict.
func (m *SurvivalModel) IsFitted() bool {
	return m.fitted
}

// Matrix は X を分類器に入る標準化済みの特徴量行列にする
func (m *SurvivalModel) Matrix(X *frame.Frame) (mat.Matrix, error) {
	if !m.fitted {
		return nil, errors.NewNotFittedError(survivalModelName, "Matrix")
	}
	feats, err := m.union.Transform(X)
	if err != nil {
		return nil, err
	}
	encoded, err := m.encoder.Transform(feats)
	if err != nil {
		return nil, errors.Wrap(err, "step one_hot")
	}
	M, err := encoded.Matrix()
	if err != nil {
		return nil, errors.Wrap(err, "feature matrix")
	}
	return m.scaler.Transform(M)
}

// PredictProba は各行の生存確率 (クラス 1 の確率) を返す
func (m *SurvivalModel) PredictProba(X *frame.Frame) ([]float64, error) {
	if !m.fitted {
		return nil, errors.NewNotFittedError(survivalModelName, "PredictProba")
	}
	M, err := m.Matrix(X)
	if err != nil {
		return nil, err
	}
	probas, err := m.clf.PredictProba(M)
	if err != nil {
		return nil, err
	}
	out := mat.Col(nil, 1, probas)

	m.logger.Debug("predicted",
		log.OperationKey, log.OperationPredict,
		log.PredsKey, len(out),
	)
	return out, nil
}

// Predict は生存確率が threshold を超える行を 1、それ以外を 0 にする
func (m *SurvivalModel) Predict(X *frame.Frame, threshold float64) ([]float64, error) {
	if !(threshold >= 0 && threshold <= 1) {
		return nil, errors.NewInvalidConfigError(survivalModelName, "threshold", "must be within [0, 1]", threshold)
	}
	probas, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(probas))
	for i, p := range probas {
		if p > threshold {
			out[i] = 1
		}
	}
	return out, nil
}

// FeatureNames は分類器に入る列名 (one-hot 展開後)
func (m *SurvivalModel) FeatureNames() []string {
	return m.encoder.OutputSchema()
}

// Coefficients は FeatureNames 順の係数と切片を返す
func (m *SurvivalModel) Coefficients() ([]float64, float64, error) {
	w, err := m.clf.ExportWeights()
	if err != nil {
		return nil, 0, err
	}
	return w.Coefficients[0], w.Intercepts[0], nil
}
