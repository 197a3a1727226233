// Package config loads the YAML configuration shared by the titanic
// commands.
//
// ${VAR} references are replaced with environment variable values before
// the YAML is parsed; unset variables become empty strings. Fields missing
// from the file keep the values of Default.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/titanic/pkg/errors"
	"github.com/YuminosukeSato/titanic/preprocessing"
)

// Config is the root of the configuration file.
type Config struct {
	LogLevel   string     `yaml:"log_level"`
	LogFormat  string     `yaml:"log_format"`
	Data       Data       `yaml:"data"`
	Model      Model      `yaml:"model"`
	Features   Features   `yaml:"features"`
	Classifier Classifier `yaml:"classifier"`
	Evaluate   Evaluate   `yaml:"evaluate"`
}

// Data locates the training set.
type Data struct {
	TrainCSV    string `yaml:"train_csv"`
	LabelColumn string `yaml:"label_column"`
}

// Model locates the saved bundle and the verdict threshold.
type Model struct {
	Path      string  `yaml:"path"`
	Threshold float64 `yaml:"threshold"`
}

// Features configures the feature transformers.
type Features struct {
	TicketTopK          int                             `yaml:"ticket_top_k"`
	Fare                preprocessing.FareBinningConfig `yaml:"fare"`
	OneHotMaxCategories int                             `yaml:"one_hot_max_categories"`
}

// Classifier holds the logistic regression hyperparameters.
type Classifier struct {
	C           float64 `yaml:"c"`
	MaxIter     int     `yaml:"max_iter"`
	Tol         float64 `yaml:"tol"`
	RandomState int64   `yaml:"random_state"`
}

// Evaluate configures the holdout evaluation.
type Evaluate struct {
	TestSize float64 `yaml:"test_size"`
	Seed     int64   `yaml:"seed"`
	ROCPlot  string  `yaml:"roc_plot"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "console",
		Data: Data{
			TrainCSV:    "data/train.csv",
			LabelColumn: "survived",
		},
		Model: Model{
			Path:      "model/titanic.json",
			Threshold: 0.4,
		},
		Features: Features{
			TicketTopK:          10,
			Fare:                preprocessing.DefaultFareBinningConfig(),
			OneHotMaxCategories: 20,
		},
		Classifier: Classifier{
			C:           1.0,
			MaxIter:     1000,
			Tol:         1e-4,
			RandomState: 42,
		},
		Evaluate: Evaluate{
			TestSize: 0.2,
			Seed:     42,
		},
	}
}

// Load reads path, substitutes environment variables and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", path)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	content := substituteEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, errors.Wrap(err, "config: parse yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "config: marshal yaml")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return errors.Wrapf(err, "config: write %s", path)
	}
	return nil
}

// Validate reports the first inconsistent setting as an InvalidConfigError.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.NewInvalidConfigError("config", "log_level", "must be debug, info, warn or error", c.LogLevel)
	}
	switch c.LogFormat {
	case "console", "json", "cloud":
	default:
		return errors.NewInvalidConfigError("config", "log_format", "must be console, json or cloud", c.LogFormat)
	}
	if c.Data.LabelColumn == "" {
		return errors.NewInvalidConfigError("config", "data.label_column", "must not be empty", c.Data.LabelColumn)
	}
	if !(c.Model.Threshold >= 0 && c.Model.Threshold <= 1) {
		return errors.NewInvalidConfigError("config", "model.threshold", "must be within [0, 1]", c.Model.Threshold)
	}
	if c.Features.TicketTopK < 0 {
		return errors.NewInvalidConfigError("config", "features.ticket_top_k", "must not be negative", c.Features.TicketTopK)
	}
	if c.Features.OneHotMaxCategories < 0 {
		return errors.NewInvalidConfigError("config", "features.one_hot_max_categories", "must not be negative", c.Features.OneHotMaxCategories)
	}
	if err := preprocessing.NewFareBinning(c.Features.Fare).Validate(); err != nil {
		return err
	}
	if c.Classifier.C <= 0 {
		return errors.NewInvalidConfigError("config", "classifier.c", "must be positive", c.Classifier.C)
	}
	if c.Classifier.MaxIter <= 0 {
		return errors.NewInvalidConfigError("config", "classifier.max_iter", "must be positive", c.Classifier.MaxIter)
	}
	if c.Classifier.Tol < 0 {
		return errors.NewInvalidConfigError("config", "classifier.tol", "must not be negative", c.Classifier.Tol)
	}
	if !(c.Evaluate.TestSize > 0 && c.Evaluate.TestSize < 1) {
		return errors.NewInvalidConfigError("config", "evaluate.test_size", "must be within (0, 1)", c.Evaluate.TestSize)
	}
	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		content = content[:start] + os.Getenv(varName) + content[end+1:]
	}
	return content
}
