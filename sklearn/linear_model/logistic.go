package linear_model

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/titanic/core/model"
	"github.com/YuminosukeSato/titanic/pkg/errors"
	"github.com/YuminosukeSato/titanic/pkg/log"
)

const modelName = "LogisticRegression"

// LogisticRegression implements L2-regularised logistic regression for
// classification. Two classes are fitted as a single binary model, more
// classes as one-vs-rest.
type LogisticRegression struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	penalty      string  // Regularization: "l2" or "none"
	C            float64 // Inverse regularization strength (1/alpha)
	fitIntercept bool    // Whether to fit intercept
	randomState  int64   // Random seed, -1 for a time-dependent seed
	maxIter      int     // Maximum iterations
	tol          float64 // Tolerance for stopping

	// Model parameters
	coef_      [][]float64 // Coefficients (n_classes x n_features or 1 x n_features for binary)
	intercept_ []float64   // Intercept terms
	classes_   []int       // Unique class labels
	nClasses_  int         // Number of classes
	nFeatures_ int         // Number of features
	nIter_     []int       // Actual iterations per class

	// Internal state
	rand   *rand.Rand
	logger log.Logger
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      "l2",
		C:            1.0,
		fitIntercept: true,
		randomState:  -1,
		maxIter:      100,
		tol:          1e-4,
	}

	for _, opt := range opts {
		opt(lr)
	}

	lr.seed()
	if lr.logger == nil {
		lr.logger = log.GetLoggerWithName(modelName)
	}
	lr.logger = lr.logger.With(log.ModelNameKey, modelName)

	return lr
}

// WithLRPenalty sets the regularization type
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRRandomState sets the random seed
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
	}
}

// WithLRLogger sets the logger used for fit diagnostics
func WithLRLogger(logger log.Logger) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.logger = logger
	}
}

func (lr *LogisticRegression) seed() {
	if lr.randomState >= 0 {
		lr.rand = rand.New(rand.NewSource(lr.randomState))
	} else {
		lr.rand = rand.New(rand.NewSource(rand.Int63()))
	}
}

// validate checks the hyperparameters before fitting.
func (lr *LogisticRegression) validate() error {
	if lr.penalty != "l2" && lr.penalty != "none" {
		return errors.NewInvalidConfigError(modelName, "penalty", `must be "l2" or "none"`, lr.penalty)
	}
	if lr.C <= 0 || math.IsNaN(lr.C) || math.IsInf(lr.C, 0) {
		return errors.NewInvalidConfigError(modelName, "C", "must be a positive finite number", lr.C)
	}
	if lr.maxIter <= 0 {
		return errors.NewInvalidConfigError(modelName, "max_iter", "must be positive", lr.maxIter)
	}
	if lr.tol < 0 {
		return errors.NewInvalidConfigError(modelName, "tol", "must not be negative", lr.tol)
	}
	return nil
}

// Fit trains the logistic regression model. y must be a column vector of
// integer class labels.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if err := lr.validate(); err != nil {
		return err
	}

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError(modelName+".Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError(modelName+".Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError(modelName+".Fit", 1, yCols, 1)
	}
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		if label != math.Trunc(label) || math.IsNaN(label) {
			return errors.NewValueError(modelName+".Fit", fmt.Sprintf("label %v at row %d is not an integer class", label, i))
		}
	}
	for j := 0; j < nFeatures; j++ {
		col := mat.Col(nil, j, X)
		if err := errors.CheckNumericalStability(modelName+".Fit", col, 0); err != nil {
			return err
		}
	}

	lr.extractClasses(y)
	if lr.nClasses_ < 2 {
		return errors.NewValueError(modelName+".Fit", fmt.Sprintf("needs at least 2 classes, got %d", lr.nClasses_))
	}
	lr.nFeatures_ = nFeatures

	lr.seed()
	lr.initializeWeights(nFeatures)

	var converged []bool
	if lr.nClasses_ == 2 {
		yBinary := lr.binaryLabels(y, lr.classes_[1])
		converged = []bool{lr.fitBinaryForClass(X, yBinary, 0)}
	} else {
		converged = lr.fitOVR(X, y)
	}

	for row, ok := range converged {
		if !ok {
			errors.Warn(errors.NewConvergenceWarning(modelName, lr.nIter_[row],
				fmt.Sprintf("max_iter reached before the gradient fell below tol=%g (row %d)", lr.tol, row)))
		}
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()

	lr.logger.Debug("fit complete",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.IterationKey, lr.maxIterations(),
	)
	return nil
}

func (lr *LogisticRegression) maxIterations() int {
	n := 0
	for _, it := range lr.nIter_ {
		if it > n {
			n = it
		}
	}
	return n
}

// extractClasses identifies unique class labels
func (lr *LogisticRegression) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	classMap := make(map[int]bool)

	for i := 0; i < rows; i++ {
		classMap[int(y.At(i, 0))] = true
	}

	lr.classes_ = make([]int, 0, len(classMap))
	for class := range classMap {
		lr.classes_ = append(lr.classes_, class)
	}
	sort.Ints(lr.classes_)

	lr.nClasses_ = len(lr.classes_)
}

// initializeWeights initializes model weights with small random values
func (lr *LogisticRegression) initializeWeights(nFeatures int) {
	rows := lr.nClasses_
	if rows == 2 {
		rows = 1
	}
	lr.coef_ = make([][]float64, rows)
	for i := range lr.coef_ {
		lr.coef_[i] = make([]float64, nFeatures)
		for j := range lr.coef_[i] {
			lr.coef_[i][j] = lr.rand.NormFloat64() * 0.01
		}
	}
	lr.intercept_ = make([]float64, rows)
	lr.nIter_ = make([]int, rows)
}

// binaryLabels converts y to 1 for the positive class and 0 otherwise
func (lr *LogisticRegression) binaryLabels(y mat.Matrix, positive int) *mat.VecDense {
	n, _ := y.Dims()
	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		if int(y.At(i, 0)) == positive {
			out.SetVec(i, 1)
		}
	}
	return out
}

// fitOVR fits one-vs-rest multiclass classification
func (lr *LogisticRegression) fitOVR(X, y mat.Matrix) []bool {
	converged := make([]bool, lr.nClasses_)
	for classIdx, class := range lr.classes_ {
		converged[classIdx] = lr.fitBinaryForClass(X, lr.binaryLabels(y, class), classIdx)
	}
	return converged
}

// fitBinaryForClass runs gradient descent for one row of coefficients and
// reports whether the gradient fell below tol.
func (lr *LogisticRegression) fitBinaryForClass(X mat.Matrix, yBinary *mat.VecDense, classIdx int) bool {
	nSamples, nFeatures := X.Dims()
	weights := lr.coef_[classIdx]
	intercept := &lr.intercept_[classIdx]

	lambda := lr.lambda(nSamples)
	learningRate := 1.0 / lr.smoothness(X, lambda)
	gradWeights := make([]float64, nFeatures)

	for iter := 0; iter < lr.maxIter; iter++ {
		for j := range gradWeights {
			gradWeights[j] = 0
		}
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			z := *intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * weights[j]
			}
			residual := sigmoid(z) - yBinary.AtVec(i)
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				gradWeights[j] += residual * X.At(i, j)
			}
		}

		for j := range gradWeights {
			gradWeights[j] /= float64(nSamples)
		}
		gradIntercept /= float64(nSamples)

		if lambda > 0 {
			for j := range weights {
				gradWeights[j] += lambda * weights[j]
			}
		}

		for j := range weights {
			weights[j] -= learningRate * gradWeights[j]
		}
		if lr.fitIntercept {
			*intercept -= learningRate * gradIntercept
		} else {
			gradIntercept = 0
		}

		lr.nIter_[classIdx] = iter + 1

		maxGrad := math.Abs(gradIntercept)
		for _, g := range gradWeights {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.tol {
			return true
		}
	}
	return false
}

// lambda は平均損失に対する L2 係数。目的関数 C*Σloss + ||w||²/2 を n で割った形。
func (lr *LogisticRegression) lambda(nSamples int) float64 {
	if lr.penalty != "l2" {
		return 0
	}
	return 1.0 / (lr.C * float64(nSamples))
}

// smoothness は平均ロジスティック損失の勾配のリプシッツ定数の上界。
// 固定ステップ 1/L の勾配降下はこの凸問題で発散しない。
func (lr *LogisticRegression) smoothness(X mat.Matrix, lambda float64) float64 {
	nSamples, nFeatures := X.Dims()
	sq := 0.0
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nFeatures; j++ {
			v := X.At(i, j)
			sq += v * v
		}
	}
	sq /= float64(nSamples)
	if lr.fitIntercept {
		sq++
	}
	return 0.25*sq + lambda + 1e-12
}

// checkInput verifies X against the fitted feature count.
func (lr *LogisticRegression) checkInput(X mat.Matrix, method string) error {
	if err := lr.state.RequireFitted(modelName, method); err != nil {
		return err
	}
	_, c := X.Dims()
	if c != lr.nFeatures_ {
		return errors.NewDimensionError(modelName+"."+method, lr.nFeatures_, c, 1)
	}
	return nil
}

// decision returns the linear score of sample i for the given coefficient row
func (lr *LogisticRegression) decision(X mat.Matrix, i, row int) float64 {
	z := lr.intercept_[row]
	for j := 0; j < lr.nFeatures_; j++ {
		z += X.At(i, j) * lr.coef_[row][j]
	}
	return z
}

// Predict makes predictions for input data
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := lr.predictProba(X, "Predict")
	if err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best := 0
		for k := 1; k < lr.nClasses_; k++ {
			if probas.At(i, k) > probas.At(i, best) {
				best = k
			}
		}
		predictions.Set(i, 0, float64(lr.classes_[best]))
	}
	return predictions, nil
}

// PredictProba returns probability estimates for each class, in Classes order
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	return lr.predictProba(X, "PredictProba")
}

func (lr *LogisticRegression) predictProba(X mat.Matrix, method string) (*mat.Dense, error) {
	if err := lr.checkInput(X, method); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	probas := mat.NewDense(nSamples, lr.nClasses_, nil)

	if lr.nClasses_ == 2 {
		for i := 0; i < nSamples; i++ {
			prob1 := sigmoid(lr.decision(X, i, 0))
			probas.Set(i, 0, 1.0-prob1)
			probas.Set(i, 1, prob1)
		}
		return probas, nil
	}

	// Multiclass using softmax over the one-vs-rest scores
	scores := make([]float64, lr.nClasses_)
	for i := 0; i < nSamples; i++ {
		maxScore := math.Inf(-1)
		for k := range scores {
			scores[k] = lr.decision(X, i, k)
			if scores[k] > maxScore {
				maxScore = scores[k]
			}
		}

		sum := 0.0
		for k := range scores {
			scores[k] = math.Exp(scores[k] - maxScore)
			sum += scores[k]
		}
		for k := range scores {
			probas.Set(i, k, scores[k]/sum)
		}
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	nSamples, _ := X.Dims()
	yRows, _ := y.Dims()
	if yRows != nSamples {
		return 0, errors.NewDimensionError(modelName+".Score", nSamples, yRows, 0)
	}
	if nSamples == 0 {
		return 0, errors.NewValueError(modelName+".Score", "no samples to score")
	}

	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples), nil
}

// Classes returns the class labels seen during Fit in ascending order.
func (lr *LogisticRegression) Classes() []int {
	out := make([]int, len(lr.classes_))
	copy(out, lr.classes_)
	return out
}

// IsFitted reports whether Fit or ImportWeights has completed.
func (lr *LogisticRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// NIter returns the gradient descent iterations used per coefficient row.
func (lr *LogisticRegression) NIter() []int {
	out := make([]int, len(lr.nIter_))
	copy(out, lr.nIter_)
	return out
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"random_state":  lr.randomState,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
	}
}

// SetParams sets the model hyperparameters
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		if err := lr.setParam(key, value); err != nil {
			return err
		}
	}
	return lr.validate()
}

func (lr *LogisticRegression) setParam(key string, value interface{}) error {
	bad := func() error {
		return errors.NewInvalidConfigError(modelName, key, fmt.Sprintf("unexpected type %T", value), value)
	}
	switch key {
	case "penalty":
		v, ok := value.(string)
		if !ok {
			return bad()
		}
		lr.penalty = v
	case "C":
		v, ok := toFloat(value)
		if !ok {
			return bad()
		}
		lr.C = v
	case "fit_intercept":
		v, ok := value.(bool)
		if !ok {
			return bad()
		}
		lr.fitIntercept = v
	case "random_state":
		v, ok := toFloat(value)
		if !ok {
			return bad()
		}
		lr.randomState = int64(v)
	case "max_iter":
		v, ok := toFloat(value)
		if !ok {
			return bad()
		}
		lr.maxIter = int(v)
	case "tol":
		v, ok := toFloat(value)
		if !ok {
			return bad()
		}
		lr.tol = v
	default:
		return errors.NewInvalidConfigError(modelName, key, "unknown parameter", value)
	}
	return nil
}

// toFloat accepts the numeric types a decoded JSON bundle or caller may use.
func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}

// ExportWeights returns the learned coefficients and hyperparameters.
func (lr *LogisticRegression) ExportWeights() (*model.ModelWeights, error) {
	if err := lr.state.RequireFitted(modelName, "ExportWeights"); err != nil {
		return nil, err
	}

	coef := make([][]float64, len(lr.coef_))
	for i, row := range lr.coef_ {
		coef[i] = append([]float64(nil), row...)
	}
	_, nSamples := lr.state.GetDimensions()

	return &model.ModelWeights{
		ModelType:       modelName,
		Version:         model.WeightsVersion,
		Coefficients:    coef,
		Intercepts:      append([]float64(nil), lr.intercept_...),
		Classes:         lr.Classes(),
		Hyperparameters: lr.GetParams(),
		Metadata: map[string]interface{}{
			"n_iter":    lr.NIter(),
			"n_samples": nSamples,
		},
		IsFitted: true,
	}, nil
}

// ImportWeights restores a model exported by ExportWeights.
func (lr *LogisticRegression) ImportWeights(w *model.ModelWeights) error {
	if w == nil {
		return errors.NewValueError(modelName+".ImportWeights", "weights are nil")
	}
	if err := w.Validate(); err != nil {
		return err
	}
	if w.ModelType != modelName {
		return errors.NewModelError(modelName+".ImportWeights", "model type",
			errors.Newf("weights are for %q", w.ModelType))
	}
	if !w.IsFitted {
		return errors.NewNotFittedError(modelName, "ImportWeights")
	}

	nClasses := len(w.Classes)
	wantRows := nClasses
	if nClasses == 2 {
		wantRows = 1
	}
	if nClasses < 2 || len(w.Coefficients) != wantRows {
		return errors.NewValidationError("classes",
			fmt.Sprintf("%d classes need %d coefficient rows", nClasses, wantRows), len(w.Coefficients))
	}

	for key, value := range w.Hyperparameters {
		if err := lr.setParam(key, value); err != nil {
			return err
		}
	}

	clone := w.Clone()
	lr.coef_ = clone.Coefficients
	lr.intercept_ = clone.Intercepts
	lr.classes_ = clone.Classes
	lr.nClasses_ = nClasses
	lr.nFeatures_ = len(clone.Coefficients[0])
	lr.nIter_ = make([]int, len(lr.coef_))

	lr.state.SetDimensions(lr.nFeatures_, 0)
	lr.state.SetFitted()
	return nil
}

// String returns a short description of the model.
func (lr *LogisticRegression) String() string {
	if !lr.state.IsFitted() {
		return fmt.Sprintf("LogisticRegression(C=%g, penalty=%s, max_iter=%d, fitted=false)", lr.C, lr.penalty, lr.maxIter)
	}
	return fmt.Sprintf("LogisticRegression(C=%g, penalty=%s, classes=%v, n_features=%d)", lr.C, lr.penalty, lr.classes_, lr.nFeatures_)
}

// sigmoid computes the sigmoid function
func sigmoid(z float64) float64 {
	if z < 0 {
		e := math.Exp(z)
		return e / (1.0 + e)
	}
	return 1.0 / (1.0 + math.Exp(-z))
}
