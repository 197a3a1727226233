package model

import (
	"io"
	"os"
	"path/filepath"

	gojson "github.com/goccy/go-json"

	"github.com/YuminosukeSato/titanic/pkg/errors"
)

// SaveJSON は値を整形済み JSON として w に書き出す
//
// パラメータ:
//   - v: 保存する値（学習済みモデルのバンドル等）
//   - w: 保存先のWriter
//
// 戻り値:
//   - error: エンコードに失敗した場合の ModelError
func SaveJSON(v interface{}, w io.Writer) error {
	enc := gojson.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.NewModelError("SaveJSON", "encode", err)
	}
	return nil
}

// LoadJSON は r から JSON を読み込み v にデコードする
//
// パラメータ:
//   - v: 読み込み先（ポインタ）
//   - r: 読み込み元のReader
//
// 戻り値:
//   - error: デコードに失敗した場合の ModelError
func LoadJSON(v interface{}, r io.Reader) error {
	dec := gojson.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return errors.NewModelError("LoadJSON", "decode", err)
	}
	return nil
}

// SaveJSONFile はファイルに保存する。親ディレクトリがなければ作成する。
//
// 使用例:
//
//	err := model.SaveJSONFile(bundle, "models/titanic.json")
func SaveJSONFile(v interface{}, filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.NewModelError("SaveJSONFile", "mkdir", err)
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return errors.NewModelError("SaveJSONFile", "create", err)
	}
	if err := SaveJSON(v, file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return errors.NewModelError("SaveJSONFile", "close", err)
	}
	return nil
}

// LoadJSONFile はファイルから読み込む
//
// 使用例:
//
//	var bundle pipeline.Bundle
//	err := model.LoadJSONFile(&bundle, "models/titanic.json")
func LoadJSONFile(v interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.NewModelError("LoadJSONFile", "open", err)
	}
	defer file.Close()
	return LoadJSON(v, file)
}
