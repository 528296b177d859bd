package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

type SeriesTestSuite struct {
	suite.Suite
}

func TestSeriesSuite(t *testing.T) {
	suite.Run(t, new(SeriesTestSuite))
}

func (suite *SeriesTestSuite) TestTimeIndexValidate() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ix := TimeIndex{base, base.Add(time.Minute), base.Add(2 * time.Minute)}

	suite.NoError(ix.Validate())
	suite.Equal(3, ix.Len())
}

func (suite *SeriesTestSuite) TestTimeIndexEmpty() {
	err := TimeIndex{}.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimeIndex))
}

func (suite *SeriesTestSuite) TestTimeIndexNotIncreasing() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ix := TimeIndex{base, base.Add(time.Minute), base.Add(time.Minute)}

	err := ix.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimeIndex))
}

func (suite *SeriesTestSuite) TestNewGrid() {
	grid, err := NewGrid([][]float64{
		{1, 10},
		{2, 20},
		{3, 30},
	})
	suite.NoError(err)
	suite.Equal(3, grid.Rows())
	suite.Equal(2, grid.Columns())
	suite.Equal(20.0, grid.At(1, 1))
	suite.Equal([]float64{1, 2, 3}, grid.Column(0))
}

func (suite *SeriesTestSuite) TestNewGridRagged() {
	_, err := NewGrid([][]float64{
		{1, 10},
		{2},
	})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeLengthMismatch))
}

func (suite *SeriesTestSuite) TestNewGridEmpty() {
	_, err := NewGrid(nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoDataFound))
}

func (suite *SeriesTestSuite) TestNewGridFromColumn() {
	grid, err := NewGridFromColumn([]float64{1, 2, 3})
	suite.NoError(err)
	suite.Equal(3, grid.Rows())
	suite.Equal(1, grid.Columns())
	suite.Equal(2.0, grid.At(1, 0))
}

func (suite *SeriesTestSuite) TestHasFinite() {
	grid, err := NewGrid([][]float64{
		{math.NaN(), 1},
		{math.Inf(1), 2},
	})
	suite.NoError(err)
	suite.False(grid.HasFinite(0))
	suite.True(grid.HasFinite(1))
}

func (suite *SeriesTestSuite) TestNewBoolGrid() {
	grid, err := NewBoolGrid([][]bool{
		{true, false},
		{false, true},
	})
	suite.NoError(err)
	suite.Equal(2, grid.Rows())
	suite.Equal(2, grid.Columns())
	suite.True(grid.At(0, 0))
	suite.False(grid.At(1, 0))
}

func (suite *SeriesTestSuite) TestNewBoolGridRagged() {
	_, err := NewBoolGrid([][]bool{
		{true},
		{true, false},
	})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeLengthMismatch))
}
