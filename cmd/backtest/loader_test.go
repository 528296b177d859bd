package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type LoaderTestSuite struct {
	suite.Suite
	dir string
}

func TestLoaderSuite(t *testing.T) {
	suite.Run(t, new(LoaderTestSuite))
}

func (s *LoaderTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *LoaderTestSuite) writeFile(name, content string) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	return path
}

func (s *LoaderTestSuite) TestLoadPriceGrid() {
	path := s.writeFile("prices.csv", `timestamp,BTC,ETH
2024-01-01,100.5,40
2024-01-02,101,
2024-01-03,nan,42
`)

	index, grid, names, err := LoadPriceGrid(path)
	s.Require().NoError(err)

	s.Equal([]string{"BTC", "ETH"}, names)
	s.Equal(3, index.Len())
	s.Equal(3, grid.Rows())
	s.Equal(2, grid.Columns())
	s.InDelta(100.5, grid.At(0, 0), 1e-9)
	s.True(math.IsNaN(grid.At(1, 1)), "empty cell becomes NaN")
	s.True(math.IsNaN(grid.At(2, 0)), "nan literal becomes NaN")
}

func (s *LoaderTestSuite) TestLoadPriceGridRejectsRaggedRows() {
	path := s.writeFile("ragged.csv", `timestamp,BTC,ETH
2024-01-01,100,40
2024-01-02,101
`)

	_, _, _, err := LoadPriceGrid(path)
	s.Error(err)
}

func (s *LoaderTestSuite) TestLoadPriceGridRejectsBadTimestamp() {
	path := s.writeFile("badts.csv", `timestamp,BTC
yesterday,100
`)

	_, _, _, err := LoadPriceGrid(path)
	s.Error(err)
}

func (s *LoaderTestSuite) TestLoadPriceGridRejectsUnorderedIndex() {
	path := s.writeFile("unordered.csv", `timestamp,BTC
2024-01-02,100
2024-01-01,101
`)

	_, _, _, err := LoadPriceGrid(path)
	s.Error(err)
}

func (s *LoaderTestSuite) TestLoadPriceGridMissingFile() {
	_, _, _, err := LoadPriceGrid(filepath.Join(s.dir, "missing.csv"))
	s.Error(err)
}

func (s *LoaderTestSuite) TestLoadSignalGrid() {
	path := s.writeFile("signals.csv", `timestamp,BTC,ETH
2024-01-01,1,0
2024-01-02,true,false
2024-01-03,0,1
`)

	grid, err := LoadSignalGrid(path)
	s.Require().NoError(err)

	s.Equal(3, grid.Rows())
	s.Equal(2, grid.Columns())
	s.True(grid.At(0, 0))
	s.False(grid.At(0, 1))
	s.True(grid.At(1, 0))
	s.True(grid.At(2, 1))
}

func (s *LoaderTestSuite) TestLoadSignalGridRejectsGarbage() {
	path := s.writeFile("garbage.csv", `timestamp,BTC
2024-01-01,maybe
`)

	_, err := LoadSignalGrid(path)
	s.Error(err)
}
