package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/titanic/config"
	"github.com/YuminosukeSato/titanic/dataset"
	"github.com/YuminosukeSato/titanic/metrics"
	"github.com/YuminosukeSato/titanic/pipeline"
	"github.com/YuminosukeSato/titanic/pkg/errors"
	"github.com/YuminosukeSato/titanic/pkg/log"
	"github.com/YuminosukeSato/titanic/report"
)

const (
	highChance = "High Chance of Survival"
	lowChance  = "Low Chance of Survival"
)

func newTrainCmd(g *globalFlags) *cobra.Command {
	var dataPath, outPath string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the survival model on a labelled CSV and save it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.SafeExecute("train", func() error {
				cfg, err := g.setup()
				if err != nil {
					return err
				}
				if dataPath != "" {
					cfg.Data.TrainCSV = dataPath
				}
				if outPath != "" {
					cfg.Model.Path = outPath
				}
				return runTrain(cfg, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "Training CSV (overrides data.train_csv)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Model output path (overrides model.path)")
	return cmd
}

func runTrain(cfg *config.Config, out io.Writer) error {
	logger := log.GetLoggerWithName("train")
	start := time.Now()

	X, y, err := dataset.LoadCSV(cfg.Data.TrainCSV, cfg.Data.LabelColumn)
	if err != nil {
		return err
	}

	m, err := pipeline.NewSurvivalModel(cfg.Features, cfg.Classifier)
	if err != nil {
		return err
	}
	if err := m.Fit(X, y); err != nil {
		return err
	}
	pred, err := m.Predict(X, cfg.Model.Threshold)
	if err != nil {
		return err
	}
	acc, err := metrics.Accuracy(vec(y), vec(pred))
	if err != nil {
		return err
	}
	if err := m.SaveFile(cfg.Model.Path); err != nil {
		return err
	}

	logger.Info("training complete",
		log.SamplesKey, len(y),
		log.AccuracyKey, acc,
		log.PathKey, cfg.Model.Path,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	fmt.Fprintf(out, "trained on %d passengers (%d features)\n", len(y), len(m.FeatureNames()))
	fmt.Fprintf(out, "training accuracy: %.4f\n", acc)
	fmt.Fprintf(out, "model saved to %s\n", cfg.Model.Path)
	return nil
}

func newEvaluateCmd(g *globalFlags) *cobra.Command {
	var rocPath string
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Fit on a holdout split and report test metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.SafeExecute("evaluate", func() error {
				cfg, err := g.setup()
				if err != nil {
					return err
				}
				if rocPath != "" {
					cfg.Evaluate.ROCPlot = rocPath
				}
				return runEvaluate(cfg, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&rocPath, "roc", "", "Write the ROC curve to this image file (.png, .svg, .pdf)")
	return cmd
}

// Evaluation はホールドアウトでの評価結果
type Evaluation struct {
	Train, Test int
	Accuracy    float64
	AUC         float64
	LogLoss     float64
	Brier       float64
}

func runEvaluate(cfg *config.Config, out io.Writer) error {
	logger := log.GetLoggerWithName("evaluate")

	X, y, err := dataset.LoadCSV(cfg.Data.TrainCSV, cfg.Data.LabelColumn)
	if err != nil {
		return err
	}
	split, err := dataset.TrainTestSplit(X, y, cfg.Evaluate.TestSize, cfg.Evaluate.Seed)
	if err != nil {
		return err
	}

	m, err := pipeline.NewSurvivalModel(cfg.Features, cfg.Classifier)
	if err != nil {
		return err
	}
	if err := m.Fit(split.XTrain, split.YTrain); err != nil {
		return err
	}
	probas, err := m.PredictProba(split.XTest)
	if err != nil {
		return err
	}
	pred, err := m.Predict(split.XTest, cfg.Model.Threshold)
	if err != nil {
		return err
	}

	ev := Evaluation{Train: len(split.YTrain), Test: len(split.YTest)}
	yTest, yProb := vec(split.YTest), vec(probas)
	if ev.Accuracy, err = metrics.Accuracy(yTest, vec(pred)); err != nil {
		return err
	}
	if ev.AUC, err = metrics.AUC(yTest, yProb); err != nil {
		return err
	}
	if ev.LogLoss, err = metrics.BinaryLogLoss(yTest, yProb); err != nil {
		return err
	}
	if ev.Brier, err = metrics.BrierScore(yTest, yProb); err != nil {
		return err
	}

	logger.Info("evaluation complete",
		log.SamplesKey, ev.Test,
		log.AccuracyKey, ev.Accuracy,
		log.AUCKey, ev.AUC,
		log.LossKey, ev.LogLoss,
		log.BrierKey, ev.Brier,
		log.ThresholdKey, cfg.Model.Threshold,
	)
	fmt.Fprintf(out, "train/test: %d/%d (threshold %.2f)\n", ev.Train, ev.Test, cfg.Model.Threshold)
	fmt.Fprintf(out, "accuracy:   %.4f\n", ev.Accuracy)
	fmt.Fprintf(out, "auc:        %.4f\n", ev.AUC)
	fmt.Fprintf(out, "log loss:   %.4f\n", ev.LogLoss)
	fmt.Fprintf(out, "brier:      %.4f\n", ev.Brier)

	if cfg.Evaluate.ROCPlot == "" {
		return nil
	}
	fpr, tpr, _, err := metrics.ROCCurve(yTest, yProb)
	if err != nil {
		// テスト側が片方のクラスだけの場合は曲線を描けない
		logger.Warn("roc curve skipped", "reason", err.Error())
		return nil
	}
	if err := report.SaveROC(cfg.Evaluate.ROCPlot, fpr, tpr, ev.AUC); err != nil {
		return err
	}
	fmt.Fprintf(out, "roc curve:  %s\n", cfg.Evaluate.ROCPlot)
	return nil
}

func newPredictCmd(g *globalFlags) *cobra.Command {
	var (
		modelPath string
		threshold float64
		p         dataset.Passenger
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the survival probability of one passenger",
		Long: `Predict the survival probability of one passenger.

Example:
  titanic predict --model model/titanic.json --pclass 1 --sex female --age 29 --fare 211.3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.SafeExecute("predict", func() error {
				cfg, err := g.setup()
				if err != nil {
					return err
				}
				if modelPath != "" {
					cfg.Model.Path = modelPath
				}
				if cmd.Flags().Changed("threshold") {
					cfg.Model.Threshold = threshold
				}
				return runPredict(cfg, p, cmd.OutOrStdout())
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&modelPath, "model", "m", "", "Saved model (overrides model.path)")
	f.Float64Var(&threshold, "threshold", 0.4, "Probability above which the verdict is a high chance of survival")
	f.IntVar(&p.PClass, "pclass", 3, "Ticket class (1, 2 or 3)")
	f.StringVar(&p.Sex, "sex", "male", "Sex (male or female)")
	f.Float64Var(&p.Age, "age", 30, "Age in years")
	f.Float64Var(&p.Fare, "fare", 15, "Fare paid")
	f.IntVar(&p.SibSp, "sibsp", 0, "Number of siblings or spouses aboard")
	f.IntVar(&p.Parch, "parch", 0, "Number of parents or children aboard")
	f.StringVar(&p.Name, "name", "", "Full name, e.g. \"Braund, Mr. Owen Harris\"")
	f.StringVar(&p.Ticket, "ticket", "", "Ticket number")
	f.StringVar(&p.Embarked, "embarked", "", "Port of embarkation (s, c or q)")
	return cmd
}

func runPredict(cfg *config.Config, p dataset.Passenger, out io.Writer) error {
	if p.PClass < 1 || p.PClass > 3 {
		return errors.NewValidationError("pclass", "must be 1, 2 or 3", p.PClass)
	}
	// 学習データは小文字なので入力も揃える
	p.Sex = strings.ToLower(strings.TrimSpace(p.Sex))
	if p.Sex != "male" && p.Sex != "female" {
		return errors.NewValidationError("sex", "must be male or female", p.Sex)
	}
	p.Embarked = strings.ToLower(strings.TrimSpace(p.Embarked))

	m, err := pipeline.LoadFile(cfg.Model.Path)
	if err != nil {
		return err
	}
	probas, err := m.PredictProba(p.Frame())
	if err != nil {
		return err
	}
	proba := probas[0]

	verdict := lowChance
	if proba > cfg.Model.Threshold {
		verdict = highChance
	}
	log.GetLoggerWithName("predict").Debug("passenger scored",
		log.ConfidenceKey, proba,
		log.ThresholdKey, cfg.Model.Threshold,
	)
	fmt.Fprintf(out, "survival probability: %.4f\n", proba)
	fmt.Fprintln(out, verdict)
	return nil
}

func vec(v []float64) *mat.VecDense {
	if len(v) == 0 {
		return nil
	}
	return mat.NewVecDense(len(v), v)
}
