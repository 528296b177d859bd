package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-portfolio/internal/logger"
	"github.com/rxtech-lab/argo-portfolio/internal/portfolio"
	"github.com/rxtech-lab/argo-portfolio/internal/types"
)

type LedgerTestSuite struct {
	suite.Suite
	store *ResultStore
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (s *LedgerTestSuite) SetupTest() {
	log, err := logger.NewLogger()
	s.Require().NoError(err)

	store, err := NewResultStore(log)
	s.Require().NoError(err)
	s.Require().NoError(store.Initialize())

	s.store = store
}

func (s *LedgerTestSuite) TearDownTest() {
	if s.store != nil {
		s.Require().NoError(s.store.Close())
	}
}

// sampleResult is a hand-built two-column run: column 0 wins one trade and
// loses another, column 1 never trades.
func (s *LedgerTestSuite) sampleResult() *portfolio.Result {
	index := types.TimeIndex{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	}

	return &portfolio.Result{
		ID:          uuid.New(),
		Index:       index,
		InitialCash: 1000,
		Columns: []portfolio.ColumnResult{
			{
				Column:      0,
				InitialCash: 1000,
				Fills: []types.Fill{
					{Column: 0, Tick: 0, Size: 10, Price: 10, Fees: 1, Side: types.FillSideOpen},
					{Column: 0, Tick: 1, Size: -10, Price: 12, Fees: 1, Side: types.FillSideClose},
					{Column: 0, Tick: 2, Rejected: true, RejectReason: types.RejectReasonInsufficientCash},
				},
				States: []types.ColumnState{
					{Tick: 0, Cash: 899, Shares: 10, Equity: 999},
					{Tick: 1, Cash: 1018, Shares: 0, Equity: 1018},
					{Tick: 2, Cash: 1018, Shares: 0, Equity: 1018},
				},
				Trades: []types.TradeRecord{
					{Column: 0, EntryTick: 0, ExitTick: 1, EntryPrice: 10, ExitPrice: 12,
						Size: 10, Direction: types.TradeDirectionLong, Fees: 2, PnL: 18,
						ReturnPct: 0.18, Status: types.TradeStatusClosed},
					{Column: 0, EntryTick: 1, ExitTick: 2, EntryPrice: 12, ExitPrice: 11,
						Size: 5, Direction: types.TradeDirectionLong, Fees: 0, PnL: -5,
						ReturnPct: -5.0 / 60.0, Status: types.TradeStatusClosed},
				},
				Drawdowns: []types.DrawdownRecord{
					{Column: 0, PeakTick: 1, ValleyTick: 2, RecoveryTick: optional.None[int](),
						PeakValue: 1018, ValleyValue: 900, Status: types.DrawdownStatusActive},
				},
			},
			{
				Column:      1,
				InitialCash: 1000,
				States: []types.ColumnState{
					{Tick: 0, Cash: 1000, Equity: 1000},
					{Tick: 1, Cash: 1000, Equity: 1000},
					{Tick: 2, Cash: 1000, Equity: 1000},
				},
			},
		},
	}
}

func (s *LedgerTestSuite) TestInsertAndStats() {
	s.Require().NoError(s.store.InsertResult(s.sampleResult()))

	stats, err := s.store.ColumnStats(1000)
	s.Require().NoError(err)
	s.Require().Len(stats, 2)

	col0 := stats[0]
	s.Equal(0, col0.Column)
	s.Equal(2, col0.TradeSummary.NumberOfTrades)
	s.Equal(1, col0.TradeSummary.NumberOfWinningTrades)
	s.Equal(1, col0.TradeSummary.NumberOfLosingTrades)
	s.InDelta(0.5, col0.TradeSummary.WinRate, 1e-9)
	s.InDelta(13.0, col0.PnL.RealizedPnL, 1e-9)
	s.InDelta(13.0, col0.PnL.TotalPnL, 1e-9)
	s.InDelta(-5.0, col0.PnL.MaximumLoss, 1e-9)
	s.InDelta(18.0, col0.PnL.MaximumProfit, 1e-9)
	// Rejected fills carry no fees.
	s.InDelta(2.0, col0.TotalFees, 1e-9)
	s.InDelta(1018.0, col0.FinalEquity, 1e-9)
	s.InDelta(0.018, col0.TotalReturn, 1e-9)
	s.InDelta((900.0-1018.0)/1018.0, col0.MaxDrawdown, 1e-9)

	col1 := stats[1]
	s.Equal(1, col1.Column)
	s.Equal(0, col1.TradeSummary.NumberOfTrades)
	s.InDelta(0.0, col1.TradeSummary.WinRate, 1e-9)
	s.InDelta(1000.0, col1.FinalEquity, 1e-9)
	s.InDelta(0.0, col1.TotalReturn, 1e-9)
	s.InDelta(0.0, col1.MaxDrawdown, 1e-9)
}

func (s *LedgerTestSuite) TestWriteExportsParquet() {
	s.Require().NoError(s.store.InsertResult(s.sampleResult()))

	dir := filepath.Join(s.T().TempDir(), "results")

	paths, err := s.store.Write(dir)
	s.Require().NoError(err)
	s.Require().Len(paths, 4)

	for table, path := range paths {
		info, err := os.Stat(path)
		s.Require().NoError(err, "table %s", table)
		s.Positive(info.Size())
	}
}

func (s *LedgerTestSuite) TestCleanupResetsTables() {
	s.Require().NoError(s.store.InsertResult(s.sampleResult()))
	s.Require().NoError(s.store.Cleanup())

	stats, err := s.store.ColumnStats(1000)
	s.Require().NoError(err)
	s.Empty(stats)
}

func (s *LedgerTestSuite) TestStatsOnEmptyStore() {
	stats, err := s.store.ColumnStats(1000)
	s.Require().NoError(err)
	s.Empty(stats)
}
