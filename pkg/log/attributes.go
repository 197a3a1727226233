// Standard attribute keys for feature engineering and model operations.
//
// The keys follow a hierarchical naming convention ("model.name",
// "data.samples") so that log output can be filtered consistently.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the component type.
	// Examples: "FareBinning", "OneHotEncoder", "LogisticRegression"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "fit_transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package emits the record.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"

	// StepKey names the pipeline step a record belongs to.
	StepKey = "pipeline.step"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of rows in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature columns.
	FeaturesKey = "data.features"

	// ColumnKey names the source column a transformer reads.
	ColumnKey = "data.column"

	// PathKey records the file a dataset or bundle was read from or written to.
	PathKey = "data.path"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy.
	AccuracyKey = "metrics.accuracy"

	// AUCKey records the area under the ROC curve.
	AUCKey = "metrics.auc"

	// LossKey records the binary log loss.
	LossKey = "metrics.loss"

	// BrierKey records the Brier score of predicted probabilities.
	BrierKey = "metrics.brier"

	// IterationKey records the iteration count of an iterative solver.
	IterationKey = "training.iteration"
)

// Prediction and Output Context
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"

	// ConfidenceKey records a predicted survival probability.
	ConfidenceKey = "preds.confidence"

	// ThresholdKey records the decision threshold used for the verdict.
	ThresholdKey = "preds.threshold"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"
)

// Hyperparameters and Configuration
const (
	// HyperParamsKey contains component hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// ConfigVersionKey tracks the model bundle version.
	ConfigVersionKey = "config.version"
)

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	ErrorNotFitted     = "NOT_FITTED"
	ErrorMissingColumn = "MISSING_COLUMN"
	ErrorInvalidConfig = "INVALID_CONFIG"
	ErrorInvalidInput  = "INVALID_INPUT"
)
