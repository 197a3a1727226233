package pipeline

import (
	"io"
	"time"

	"github.com/YuminosukeSato/titanic/config"
	"github.com/YuminosukeSato/titanic/core/model"
	"github.com/YuminosukeSato/titanic/pkg/errors"
	"github.com/YuminosukeSato/titanic/pkg/log"
	"github.com/YuminosukeSato/titanic/preprocessing"
)

// BundleVersion は保存形式のバージョン。互換性のない変更で上げる。
const BundleVersion = "1"

// Bundle は学習済み SurvivalModel の保存形式
type Bundle struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`

	Ticket   *preprocessing.TicketExtractorAdvanced `json:"ticket"`
	Fare     *preprocessing.FareBinning             `json:"fare"`
	Age      *preprocessing.AgeImputer              `json:"age"`
	Embarked *preprocessing.EmbarkedEncoder         `json:"embarked"`
	OneHot   *preprocessing.OneHotEncoder           `json:"one_hot"`
	Scaler   *preprocessing.StandardScaler          `json:"scaler"`

	Classifier   *model.ModelWeights `json:"classifier"`
	FeatureNames []string            `json:"feature_names"`
	Fitted       bool                `json:"fitted"`
}

// Bundle は学習済みの状態をまとめる
func (m *SurvivalModel) Bundle() (*Bundle, error) {
	if !m.fitted {
		return nil, errors.NewNotFittedError(survivalModelName, "Bundle")
	}
	weights, err := m.clf.ExportWeights()
	if err != nil {
		return nil, err
	}
	weights.Features = m.FeatureNames()
	return &Bundle{
		Version:      BundleVersion,
		CreatedAt:    time.Now().UTC(),
		Ticket:       m.ticket,
		Fare:         m.fare,
		Age:          m.age,
		Embarked:     m.embarked,
		OneHot:       m.encoder,
		Scaler:       m.scaler,
		Classifier:   weights,
		FeatureNames: m.FeatureNames(),
		Fitted:       true,
	}, nil
}

// Save writes the fitted model as JSON.
func (m *SurvivalModel) Save(w io.Writer) error {
	b, err := m.Bundle()
	if err != nil {
		return err
	}
	return model.SaveJSON(b, w)
}

// SaveFile writes the fitted model to path, creating parent directories.
func (m *SurvivalModel) SaveFile(path string) error {
	b, err := m.Bundle()
	if err != nil {
		return err
	}
	if err := model.SaveJSONFile(b, path); err != nil {
		return err
	}
	m.logger.Info("model saved", log.PathKey, path, log.FeaturesKey, len(b.FeatureNames))
	return nil
}

// Load reads a model written by Save.
func Load(r io.Reader, opts ...Option) (*SurvivalModel, error) {
	b, m := newBundleTarget(opts)
	if err := model.LoadJSON(b, r); err != nil {
		return nil, err
	}
	if err := m.restore(b); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadFile reads a model written by SaveFile.
func LoadFile(path string, opts ...Option) (*SurvivalModel, error) {
	b, m := newBundleTarget(opts)
	if err := model.LoadJSONFile(b, path); err != nil {
		return nil, err
	}
	if err := m.restore(b); err != nil {
		return nil, err
	}
	m.logger.Debug("model loaded", log.PathKey, path)
	return m, nil
}

// newBundleTarget は復元先の変換器を先に作り、ロガーを引き継がせる
func newBundleTarget(opts []Option) (*Bundle, *SurvivalModel) {
	m := &SurvivalModel{}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.GetLoggerWithName(survivalModelName)
	}
	opt := m.transformerOpt()
	b := &Bundle{
		Ticket:   preprocessing.NewTicketExtractorAdvanced(0, opt),
		Fare:     preprocessing.NewFareBinning(preprocessing.DefaultFareBinningConfig(), opt),
		Age:      preprocessing.NewAgeImputer(opt),
		Embarked: preprocessing.NewEmbarkedEncoder(opt),
		OneHot:   preprocessing.NewOneHotEncoder(0, opt),
		Scaler:   preprocessing.NewStandardScalerDefault(),
	}
	return b, m
}

func (m *SurvivalModel) restore(b *Bundle) error {
	const op = survivalModelName + ".Load"
	if b.Version != BundleVersion {
		return errors.NewModelError(op, "version",
			errors.Wrapf(errors.ErrVersionMismatch, "got %q, want %q", b.Version, BundleVersion))
	}
	if !b.Fitted {
		return errors.NewModelError(op, "not fitted", errors.NewNotFittedError(survivalModelName, "Load"))
	}

	parts := []struct {
		name   string
		fitted func() bool
		ok     bool
	}{
		{"ticket", func() bool { return b.Ticket.IsFitted() }, b.Ticket != nil},
		{"fare", func() bool { return b.Fare.IsFitted() }, b.Fare != nil},
		{"age", func() bool { return b.Age.IsFitted() }, b.Age != nil},
		{"embarked", func() bool { return b.Embarked.IsFitted() }, b.Embarked != nil},
		{"one_hot", func() bool { return b.OneHot.IsFitted() }, b.OneHot != nil},
		{"scaler", func() bool { return b.Scaler.IsFitted() }, b.Scaler != nil},
	}
	for _, p := range parts {
		if !p.ok || !p.fitted() {
			return errors.NewModelError(op, "not fitted", errors.NewNotFittedError(p.name, "Load"))
		}
	}
	if b.Classifier == nil {
		return errors.NewModelError(op, "not fitted", errors.NewNotFittedError("classifier", "Load"))
	}

	names := b.OneHot.OutputSchema()
	if len(names) != len(b.FeatureNames) || b.Scaler.NFeatures != len(names) {
		return errors.NewModelError(op, "schema",
			errors.NewDimensionError(op, len(b.FeatureNames), len(names), 1))
	}
	for i := range names {
		if names[i] != b.FeatureNames[i] {
			return errors.NewModelError(op, "schema",
				errors.Newf("feature %d is %q in the encoder but %q in the bundle", i, names[i], b.FeatureNames[i]))
		}
	}

	m.ticket, m.fare, m.age, m.embarked = b.Ticket, b.Fare, b.Age, b.Embarked
	m.encoder, m.scaler = b.OneHot, b.Scaler
	m.features = config.Features{
		TicketTopK:          b.Ticket.TopK,
		Fare:                b.Fare.Config,
		OneHotMaxCategories: b.OneHot.MaxCategories,
	}

	m.clf = m.newClassifier()
	if err := m.clf.ImportWeights(b.Classifier); err != nil {
		return errors.NewModelError(op, "classifier", err)
	}
	if len(b.Classifier.Coefficients[0]) != len(names) {
		return errors.NewModelError(op, "schema",
			errors.NewDimensionError(op, len(names), len(b.Classifier.Coefficients[0]), 1))
	}
	params := m.clf.GetParams()
	m.classifier = config.Classifier{
		C:           params["C"].(float64),
		MaxIter:     params["max_iter"].(int),
		Tol:         params["tol"].(float64),
		RandomState: params["random_state"].(int64),
	}

	if err := m.buildUnion(); err != nil {
		return err
	}
	m.logger = m.logger.With(log.ModelNameKey, survivalModelName)
	m.fitted = true
	return nil
}
