// Package titanic predicts whether a Titanic passenger survived from the
// passenger list attributes: ticket class, name, sex, age, family aboard,
// ticket, fare and port of embarkation.
//
// Raw passenger columns are turned into model features by a set of column
// transformers, one-hot encoded, standardised and fed to a logistic
// regression. The fitted pipeline is saved as a versioned JSON bundle and
// reused to score a single passenger.
//
// # Quick Start
//
// Train on the Kaggle style CSV and ask for one passenger:
//
//	titanic train --data data/train.csv --out model/titanic.json
//	titanic predict --model model/titanic.json --pclass 1 --sex female --age 29 --fare 211.3
//
// From Go:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/titanic/config"
//	    "github.com/YuminosukeSato/titanic/dataset"
//	    "github.com/YuminosukeSato/titanic/pipeline"
//	)
//
//	func main() {
//	    X, y, err := dataset.LoadCSV("data/train.csv", "survived")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    cfg := config.Default()
//	    m, err := pipeline.NewSurvivalModel(cfg.Features, cfg.Classifier)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := m.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    p := dataset.Passenger{PClass: 3, Sex: "male", Age: 22, Fare: 7.25}
//	    proba, err := m.PredictProba(p.Frame())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("survival probability: %.3f\n", proba[0])
//	}
//
// # Packages
//
//   - core/frame: column-oriented table of missing / number / string values
//   - core/model: transformer interfaces, fitted-state tracking, weight persistence
//   - dataset: CSV loading, train/test split, single passenger rows
//   - preprocessing: feature transformers, one-hot encoder, standard scaler
//   - sklearn/linear_model: L2 regularised logistic regression
//   - pipeline: feature union, SurvivalModel and its JSON bundle
//   - metrics: accuracy, AUC, ROC curve, log loss, Brier score
//   - report: ROC curve plots
//   - config: YAML configuration with environment variable substitution
//   - pkg/errors, pkg/log: error types, warnings and structured logging
package titanic
