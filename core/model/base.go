package model

import "github.com/YuminosukeSato/titanic/pkg/errors"

// EstimatorState は変換器・モデルの学習状態を表す
type EstimatorState int

const (
	// NotFitted は未学習の状態
	NotFitted EstimatorState = iota
	// Fitted は学習済みの状態
	Fitted
)

// BaseEstimator は学習状態を持つ変換器に埋め込む構造体。
// 学習パラメータを持たない変換器は埋め込まない。
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted は学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted は学習済み状態に設定する
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset は初期状態に戻す
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}

// CheckFitted は未学習なら NotFittedError を返す。
//
// 使用例:
//
//	if err := t.CheckFitted("AgeImputer", "Transform"); err != nil {
//	    return nil, err
//	}
func (e *BaseEstimator) CheckFitted(name, method string) error {
	if e.state != Fitted {
		return errors.NewNotFittedError(name, method)
	}
	return nil
}
