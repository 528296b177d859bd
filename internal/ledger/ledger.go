// Package ledger persists finished simulation runs into an embedded DuckDB
// database, aggregates per-column statistics with SQL, and exports the result
// tables as Parquet files.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-portfolio/internal/logger"
	"github.com/rxtech-lab/argo-portfolio/internal/portfolio"
	"github.com/rxtech-lab/argo-portfolio/internal/types"
	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

// insertChunkSize bounds the number of rows per INSERT statement so large
// grids do not blow up the placeholder count.
const insertChunkSize = 500

// ResultStore holds one run's fills, states, trades, and drawdowns in an
// in-memory DuckDB instance.
type ResultStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewResultStore opens an in-memory database. Call Initialize before use and
// Close when done.
func NewResultStore(log *logger.Logger) (*ResultStore, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLedgerInitFailed, "failed to open database", err)
	}

	return &ResultStore{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the result tables.
func (s *ResultStore) Initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS fills (
			col INTEGER,
			tick INTEGER,
			size DOUBLE,
			price DOUBLE,
			fees DOUBLE,
			side TEXT,
			clipped BOOLEAN,
			rejected BOOLEAN,
			reject_reason TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS states (
			col INTEGER,
			tick INTEGER,
			cash DOUBLE,
			shares DOUBLE,
			debt DOUBLE,
			avg_entry_price DOUBLE,
			equity DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			col INTEGER,
			entry_tick INTEGER,
			exit_tick INTEGER,
			entry_price DOUBLE,
			exit_price DOUBLE,
			size DOUBLE,
			direction TEXT,
			fees DOUBLE,
			pnl DOUBLE,
			return_pct DOUBLE,
			status TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS drawdowns (
			col INTEGER,
			peak_tick INTEGER,
			valley_tick INTEGER,
			recovery_tick INTEGER,
			peak_value DOUBLE,
			valley_value DOUBLE,
			status TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(errors.ErrCodeLedgerInitFailed, "failed to create tables", err)
		}
	}

	return nil
}

// InsertResult writes every column of a finished run in one transaction.
func (s *ResultStore) InsertResult(result *portfolio.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to begin transaction", err)
	}

	for i := range result.Columns {
		column := &result.Columns[i]

		if err := s.insertFills(tx, column.Fills); err != nil {
			tx.Rollback()

			return err
		}

		if err := s.insertStates(tx, column.Column, column.States); err != nil {
			tx.Rollback()

			return err
		}

		if err := s.insertTrades(tx, column.Trades); err != nil {
			tx.Rollback()

			return err
		}

		if err := s.insertDrawdowns(tx, column.Drawdowns); err != nil {
			tx.Rollback()

			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to commit transaction", err)
	}

	s.logger.Debug("run persisted",
		zap.String("run_id", result.ID.String()),
		zap.Int("columns", len(result.Columns)),
	)

	return nil
}

func (s *ResultStore) insertFills(tx *sql.Tx, fills []types.Fill) error {
	for start := 0; start < len(fills); start += insertChunkSize {
		chunk := fills[start:min(start+insertChunkSize, len(fills))]

		query := s.sq.Insert("fills").
			Columns("col", "tick", "size", "price", "fees", "side", "clipped", "rejected", "reject_reason")
		for _, fill := range chunk {
			query = query.Values(fill.Column, fill.Tick, fill.Size, fill.Price, fill.Fees,
				string(fill.Side), fill.Clipped, fill.Rejected, string(fill.RejectReason))
		}

		if err := execInsert(tx, query, "fills"); err != nil {
			return err
		}
	}

	return nil
}

func (s *ResultStore) insertStates(tx *sql.Tx, col int, states []types.ColumnState) error {
	for start := 0; start < len(states); start += insertChunkSize {
		chunk := states[start:min(start+insertChunkSize, len(states))]

		query := s.sq.Insert("states").
			Columns("col", "tick", "cash", "shares", "debt", "avg_entry_price", "equity")
		for _, state := range chunk {
			query = query.Values(col, state.Tick, state.Cash, state.Shares, state.Debt,
				state.AvgEntryPrice, state.Equity)
		}

		if err := execInsert(tx, query, "states"); err != nil {
			return err
		}
	}

	return nil
}

func (s *ResultStore) insertTrades(tx *sql.Tx, trades []types.TradeRecord) error {
	for start := 0; start < len(trades); start += insertChunkSize {
		chunk := trades[start:min(start+insertChunkSize, len(trades))]

		query := s.sq.Insert("trades").
			Columns("col", "entry_tick", "exit_tick", "entry_price", "exit_price",
				"size", "direction", "fees", "pnl", "return_pct", "status")
		for _, trade := range chunk {
			query = query.Values(trade.Column, trade.EntryTick, trade.ExitTick, trade.EntryPrice,
				trade.ExitPrice, trade.Size, string(trade.Direction), trade.Fees, trade.PnL,
				trade.ReturnPct, string(trade.Status))
		}

		if err := execInsert(tx, query, "trades"); err != nil {
			return err
		}
	}

	return nil
}

func (s *ResultStore) insertDrawdowns(tx *sql.Tx, drawdowns []types.DrawdownRecord) error {
	for start := 0; start < len(drawdowns); start += insertChunkSize {
		chunk := drawdowns[start:min(start+insertChunkSize, len(drawdowns))]

		query := s.sq.Insert("drawdowns").
			Columns("col", "peak_tick", "valley_tick", "recovery_tick",
				"peak_value", "valley_value", "status")
		for _, dd := range chunk {
			var recovery any
			if dd.RecoveryTick.IsSome() {
				recovery = dd.RecoveryTick.Unwrap()
			}

			query = query.Values(dd.Column, dd.PeakTick, dd.ValleyTick, recovery,
				dd.PeakValue, dd.ValleyValue, string(dd.Status))
		}

		if err := execInsert(tx, query, "drawdowns"); err != nil {
			return err
		}
	}

	return nil
}

func execInsert(tx *sql.Tx, query squirrel.InsertBuilder, table string) error {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return errors.Wrapf(errors.ErrCodeLedgerWriteFailed, err, "failed to build %s insert", table)
	}

	if _, err := tx.Exec(sqlStr, args...); err != nil {
		return errors.Wrapf(errors.ErrCodeLedgerWriteFailed, err, "failed to insert into %s", table)
	}

	return nil
}

// ColumnStats aggregates the stored run into one summary per column, ordered
// by column index.
func (s *ResultStore) ColumnStats(initialCash float64) ([]types.ColumnStats, error) {
	stats := make(map[int]*types.ColumnStats)

	order := make([]int, 0)

	ensure := func(col int) *types.ColumnStats {
		if cs, ok := stats[col]; ok {
			return cs
		}

		cs := &types.ColumnStats{Column: col}
		stats[col] = cs
		order = append(order, col)

		return cs
	}

	if err := s.collectEquity(initialCash, ensure); err != nil {
		return nil, err
	}

	if err := s.collectTrades(ensure); err != nil {
		return nil, err
	}

	if err := s.collectFees(ensure); err != nil {
		return nil, err
	}

	if err := s.collectDrawdowns(ensure); err != nil {
		return nil, err
	}

	result := make([]types.ColumnStats, 0, len(order))
	for _, col := range order {
		result = append(result, *stats[col])
	}

	return result, nil
}

func (s *ResultStore) collectEquity(initialCash float64, ensure func(int) *types.ColumnStats) error {
	query := `
		SELECT col, equity
		FROM states
		QUALIFY row_number() OVER (PARTITION BY col ORDER BY tick DESC) = 1
		ORDER BY col
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerQueryFailed, "failed to query final equity", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			col    int
			equity float64
		)

		if err := rows.Scan(&col, &equity); err != nil {
			return errors.Wrap(errors.ErrCodeLedgerQueryFailed, "failed to scan equity row", err)
		}

		cs := ensure(col)
		cs.FinalEquity = equity

		if initialCash != 0 {
			cs.TotalReturn = equity/initialCash - 1
		}
	}

	return rows.Err()
}

func (s *ResultStore) collectTrades(ensure func(int) *types.ColumnStats) error {
	query, args, err := s.sq.Select(
		"col",
		"COUNT(*) FILTER (WHERE status = 'CLOSED') AS closed_trades",
		"COUNT(*) FILTER (WHERE status = 'CLOSED' AND pnl > 0) AS winning",
		"COUNT(*) FILTER (WHERE status = 'CLOSED' AND pnl < 0) AS losing",
		"COALESCE(SUM(pnl) FILTER (WHERE status = 'CLOSED'), 0) AS realized",
		"COALESCE(SUM(pnl) FILTER (WHERE status = 'OPEN'), 0) AS unrealized",
		"COALESCE(MIN(pnl), 0) AS max_loss",
		"COALESCE(MAX(pnl), 0) AS max_profit",
	).From("trades").GroupBy("col").OrderBy("col").ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerQueryFailed, "failed to build trades query", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerQueryFailed, "failed to query trade stats", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			col                     int
			closed, winning, losing int
			realized, unrealized    float64
			maxLoss, maxProfit      float64
		)

		if err := rows.Scan(&col, &closed, &winning, &losing, &realized, &unrealized, &maxLoss, &maxProfit); err != nil {
			return errors.Wrap(errors.ErrCodeLedgerQueryFailed, "failed to scan trade stats row", err)
		}

		cs := ensure(col)
		cs.TradeSummary = types.TradeSummary{
			NumberOfTrades:        closed,
			NumberOfWinningTrades: winning,
			NumberOfLosingTrades:  losing,
		}

		if closed > 0 {
			cs.TradeSummary.WinRate = float64(winning) / float64(closed)
		}

		cs.PnL = types.PnLSummary{
			RealizedPnL:   realized,
			UnrealizedPnL: unrealized,
			TotalPnL:      realized + unrealized,
			MaximumLoss:   maxLoss,
			MaximumProfit: maxProfit,
		}
	}

	return rows.Err()
}

func (s *ResultStore) collectFees(ensure func(int) *types.ColumnStats) error {
	query, args, err := s.sq.Select("col", "COALESCE(SUM(fees), 0) AS total_fees").
		From("fills").
		Where(squirrel.Eq{"rejected": false}).
		GroupBy("col").
		OrderBy("col").
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerQueryFailed, "failed to build fees query", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerQueryFailed, "failed to query fees", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			col  int
			fees float64
		)

		if err := rows.Scan(&col, &fees); err != nil {
			return errors.Wrap(errors.ErrCodeLedgerQueryFailed, "failed to scan fees row", err)
		}

		ensure(col).TotalFees = fees
	}

	return rows.Err()
}

func (s *ResultStore) collectDrawdowns(ensure func(int) *types.ColumnStats) error {
	query, args, err := s.sq.Select(
		"col",
		"COALESCE(MIN((valley_value - peak_value) / peak_value), 0) AS max_drawdown",
	).From("drawdowns").
		Where("peak_value != 0").
		GroupBy("col").
		OrderBy("col").
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerQueryFailed, "failed to build drawdown query", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerQueryFailed, "failed to query drawdowns", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			col   int
			depth float64
		)

		if err := rows.Scan(&col, &depth); err != nil {
			return errors.Wrap(errors.ErrCodeLedgerQueryFailed, "failed to scan drawdown row", err)
		}

		ensure(col).MaxDrawdown = depth
	}

	return rows.Err()
}

// Write exports the result tables as Parquet files into dir, creating it if
// needed, and returns the paths keyed by table name.
func (s *ResultStore) Write(dir string) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to create output directory", err)
	}

	paths := make(map[string]string, 4)

	for _, table := range []string{"fills", "states", "trades", "drawdowns"} {
		path := filepath.Join(dir, table+".parquet")

		if _, err := s.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, path)); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeLedgerWriteFailed, err, "failed to export %s to Parquet", table)
		}

		paths[table] = path
	}

	s.logger.Info("exported run to Parquet",
		zap.String("dir", dir),
		zap.Int("tables", len(paths)),
	)

	return paths, nil
}

// Cleanup drops all result tables and recreates them empty.
func (s *ResultStore) Cleanup() error {
	_, err := s.db.Exec(`
		DROP TABLE IF EXISTS fills;
		DROP TABLE IF EXISTS states;
		DROP TABLE IF EXISTS trades;
		DROP TABLE IF EXISTS drawdowns;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerInitFailed, "failed to drop tables", err)
	}

	return s.Initialize()
}

// Close releases the underlying database.
func (s *ResultStore) Close() error {
	return s.db.Close()
}
