package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/titanic/core/frame"
	"github.com/YuminosukeSato/titanic/pkg/errors"
)

const sample = `PassengerId,Survived,Pclass,Name,Sex,Age,SibSp,Parch,Ticket,Fare,Cabin,Embarked
1,0,3,"Braund, Mr. Owen Harris",male,22,1,0,A/5 21171,7.25,,S
2,1,1,"Cumings, Mrs. John Bradley (Florence Briggs Thayer)",female,38,1,0,PC 17599,71.2833,C85,C
3,1,3,"Heikkinen, Miss. Laina",female,NA,0,0,113803,7.925,,S
4,0,3,"Allen, Mr. William Henry",male,35,0,0,373450,8.05,,NaN
`

func TestReadCSV(t *testing.T) {
	X, y, err := ReadCSV(strings.NewReader(sample), "Survived")
	require.NoError(t, err)

	assert.Equal(t, []string{"passengerid", "pclass", "name", "sex", "age", "sibsp", "parch", "ticket", "fare", "cabin", "embarked"}, X.Columns())
	assert.Equal(t, 4, X.Len())
	assert.Equal(t, []float64{0, 1, 1, 0}, y)

	assert.Equal(t, frame.Num(3), X.At(0, "pclass"))
	assert.Equal(t, frame.Str("Braund, Mr. Owen Harris"), X.At(0, "name"))
	assert.Equal(t, frame.Num(7.25), X.At(0, "fare"))
	// 数字だけのチケットも文字列のまま
	assert.Equal(t, frame.Str("113803"), X.At(2, "ticket"))
	assert.True(t, X.At(2, "age").IsMissing())
	assert.True(t, X.At(0, "cabin").IsMissing())
	assert.True(t, X.At(3, "embarked").IsMissing())
}

func TestReadCSVWithoutLabel(t *testing.T) {
	X, y, err := ReadCSV(strings.NewReader("a,b\n1,x\n"), "")
	require.NoError(t, err)
	assert.Nil(t, y)
	assert.Equal(t, []string{"a", "b"}, X.Columns())
}

func TestReadCSVErrors(t *testing.T) {
	var mc *errors.MissingColumnError
	_, _, err := ReadCSV(strings.NewReader("a,b\n1,2\n"), "survived")
	assert.True(t, errors.As(err, &mc))

	var ve *errors.ValueError
	_, _, err = ReadCSV(strings.NewReader("survived,a\n2,1\n"), "survived")
	assert.True(t, errors.As(err, &ve))

	_, _, err = ReadCSV(strings.NewReader(""), "survived")
	assert.True(t, errors.As(err, &ve))

	_, _, err = ReadCSV(strings.NewReader("a,A\n1,2\n"), "")
	assert.True(t, errors.As(err, &ve))

	// 列数が揃わない行
	_, _, err = ReadCSV(strings.NewReader("survived,a\n1,2,3\n"), "survived")
	assert.Error(t, err)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	X, y, err := LoadCSV(path, "survived")
	require.NoError(t, err)
	assert.Equal(t, 4, X.Len())
	assert.Len(t, y, 4)

	_, _, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), "survived")
	assert.Error(t, err)
}

func TestTrainTestSplit(t *testing.T) {
	X := frame.New("id")
	y := make([]float64, 10)
	for i := 0; i < 10; i++ {
		require.NoError(t, X.AppendRow(frame.Num(float64(i))))
		y[i] = float64(i % 2)
	}

	split, err := TrainTestSplit(X, y, 0.25, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, split.XTest.Len())
	assert.Equal(t, 7, split.XTrain.Len())
	assert.Len(t, split.YTest, 3)
	assert.Len(t, split.YTrain, 7)

	// ラベルは行と一緒に動く
	for i := 0; i < split.XTrain.Len(); i++ {
		id, ok := split.XTrain.At(i, "id").Float()
		require.True(t, ok)
		assert.Equal(t, float64(int(id)%2), split.YTrain[i])
	}

	// 全行がちょうど一度ずつ現れる
	seen := map[float64]int{}
	for _, part := range []*frame.Frame{split.XTrain, split.XTest} {
		for i := 0; i < part.Len(); i++ {
			id, _ := part.At(i, "id").Float()
			seen[id]++
		}
	}
	assert.Len(t, seen, 10)

	again, err := TrainTestSplit(X, y, 0.25, 7)
	require.NoError(t, err)
	assert.Equal(t, split.XTest.Records(), again.XTest.Records())
}

func TestTrainTestSplitErrors(t *testing.T) {
	X := frame.New("id")
	require.NoError(t, X.AppendRow(frame.Num(1)))

	var de *errors.DimensionError
	_, err := TrainTestSplit(X, []float64{0, 1}, 0.5, 1)
	assert.True(t, errors.As(err, &de))

	var ic *errors.InvalidConfigError
	_, err = TrainTestSplit(X, []float64{0}, 1.5, 1)
	assert.True(t, errors.As(err, &ic))

	var ve *errors.ValueError
	_, err = TrainTestSplit(X, []float64{0}, 0.5, 1)
	assert.True(t, errors.As(err, &ve))
}

func TestPassengerFrame(t *testing.T) {
	f := Passenger{PClass: 1, Sex: "male", Age: 25, Fare: 50}.Frame()

	assert.Equal(t, PassengerColumns, f.Columns())
	require.Equal(t, 1, f.Len())
	assert.Equal(t, frame.Str(Unknown), f.At(0, "name"))
	assert.Equal(t, frame.Str(Unknown), f.At(0, "ticket"))
	assert.True(t, f.At(0, "embarked").IsMissing())
	assert.Equal(t, frame.Num(0), f.At(0, "sibsp"))
	assert.Equal(t, frame.Num(25), f.At(0, "age"))

	g := Passenger{PClass: 3, Name: "Smith, Mr. John", Ticket: "PC 1", Embarked: "s"}.Frame()
	assert.Equal(t, frame.Str("Smith, Mr. John"), g.At(0, "name"))
	assert.Equal(t, frame.Str("s"), g.At(0, "embarked"))
}
