// Package portfolio implements the simulation engine: it walks a price grid
// tick by tick, turns signals or custom orders into fills, and produces the
// full per-column state, trade, and drawdown history of the run.
package portfolio

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-portfolio/internal/drawdown"
	"github.com/rxtech-lab/argo-portfolio/internal/logger"
	"github.com/rxtech-lab/argo-portfolio/internal/trade"
	"github.com/rxtech-lab/argo-portfolio/internal/types"
	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

// ProgressFunc is called after each completed work unit with the number of
// finished units and the total. Callbacks may run from worker goroutines.
type ProgressFunc func(completed, total int)

// Portfolio runs simulations over a price grid with a fixed configuration.
// A Portfolio is safe for concurrent runs since every run builds its own
// state.
type Portfolio struct {
	config     Config
	logger     *logger.Logger
	onProgress ProgressFunc
}

// NewPortfolio validates the configuration and returns a ready engine. A nil
// logger falls back to the production logger.
func NewPortfolio(config Config, log *logger.Logger) (*Portfolio, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		var err error

		log, err = logger.NewLogger()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeUnknown, "cannot initialize logger", err)
		}
	}

	return &Portfolio{config: config, logger: log}, nil
}

// SetProgressCallback registers a callback invoked as work units finish.
func (p *Portfolio) SetProgressCallback(fn ProgressFunc) {
	p.onProgress = fn
}

// ColumnResult holds everything the simulation produced for one column. For
// columns in a shared-cash group, Cash, Debt, and Equity in the state series
// refer to the group account.
type ColumnResult struct {
	Column      int
	Group       string
	InitialCash float64
	Fills       []types.Fill
	States      []types.ColumnState
	Trades      []types.TradeRecord
	Drawdowns   []types.DrawdownRecord
}

// Equity extracts the per-tick equity series.
func (r *ColumnResult) Equity() []float64 {
	equity := make([]float64, len(r.States))
	for i, state := range r.States {
		equity[i] = state.Equity
	}

	return equity
}

// Returns computes per-tick simple returns of the equity series. The first
// tick is measured against initial cash.
func (r *ColumnResult) Returns() []float64 {
	returns := make([]float64, len(r.States))
	prev := r.InitialCash

	for i, state := range r.States {
		if prev != 0 {
			returns[i] = state.Equity/prev - 1
		}

		prev = state.Equity
	}

	return returns
}

// TotalReturn is the fractional gain of final equity over initial cash.
func (r *ColumnResult) TotalReturn() float64 {
	if len(r.States) == 0 || r.InitialCash == 0 {
		return 0
	}

	return r.States[len(r.States)-1].Equity/r.InitialCash - 1
}

// Result is the complete outcome of one simulation run. Columns appear in
// ascending column order regardless of worker scheduling.
type Result struct {
	ID          uuid.UUID
	Index       types.TimeIndex
	InitialCash float64
	Columns     []ColumnResult
}

// RunSignals simulates every column of the price grid driven by boolean
// entry and exit masks of the same shape.
func (p *Portfolio) RunSignals(index types.TimeIndex, prices types.Grid, entries, exits types.BoolGrid) (*Result, error) {
	if err := validateSignalShape(prices, entries, exits); err != nil {
		return nil, err
	}

	return p.run(index, prices, &entries, &exits, nil)
}

// RunOrders simulates every column of the price grid, asking fn for at most
// one order per column per tick.
func (p *Portfolio) RunOrders(index types.TimeIndex, prices types.Grid, fn OrderFunc) (*Result, error) {
	if fn == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "order function is nil")
	}

	return p.run(index, prices, nil, nil, fn)
}

// workUnit is one independently schedulable piece of a run: a single
// ungrouped column, or a whole shared-cash group.
type workUnit struct {
	column int
	group  string
	spec   GroupSpec
}

func (p *Portfolio) run(
	index types.TimeIndex,
	prices types.Grid,
	entries, exits *types.BoolGrid,
	orderFunc OrderFunc,
) (*Result, error) {
	if err := p.validateRun(index, prices); err != nil {
		return nil, err
	}

	units, groupOf := p.workUnits(prices.Columns())

	runID := uuid.New()
	p.logger.Info("starting simulation",
		zap.String("run_id", runID.String()),
		zap.Int("ticks", prices.Rows()),
		zap.Int("columns", prices.Columns()),
		zap.Int("units", len(units)),
	)

	fills := make([][]types.Fill, prices.Columns())
	states := make([][]types.ColumnState, prices.Columns())

	if err := p.dispatch(units, prices, entries, exits, orderFunc, fills, states); err != nil {
		p.logger.Error("simulation failed", zap.String("run_id", runID.String()), zap.Error(err))

		return nil, err
	}

	result := &Result{
		ID:          runID,
		Index:       index,
		InitialCash: p.config.InitialCash,
		Columns:     make([]ColumnResult, prices.Columns()),
	}

	for col := 0; col < prices.Columns(); col++ {
		column := ColumnResult{
			Column:      col,
			Group:       groupOf[col],
			InitialCash: p.config.InitialCash,
			Fills:       fills[col],
			States:      states[col],
		}
		column.Trades = trade.Extract(col, column.Fills, prices.Column(col))
		column.Drawdowns = drawdown.Extract(col, column.Equity())
		result.Columns[col] = column
	}

	p.logger.Info("simulation complete", zap.String("run_id", runID.String()))

	return result, nil
}

// dispatch fans work units out over a bounded worker pool and gathers each
// column's fills and states into the preallocated slices. Units touch
// disjoint columns, so workers write without overlapping.
func (p *Portfolio) dispatch(
	units []workUnit,
	prices types.Grid,
	entries, exits *types.BoolGrid,
	orderFunc OrderFunc,
	fills [][]types.Fill,
	states [][]types.ColumnState,
) error {
	workers := p.config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if workers > len(units) {
		workers = len(units)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		firstErr  error
		completed int
	)

	queue := make(chan workUnit)

	unitDone := func(err error) {
		mu.Lock()
		defer mu.Unlock()

		if err != nil && firstErr == nil {
			firstErr = err
		}

		completed++
		if p.onProgress != nil {
			p.onProgress(completed, len(units))
		}
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for unit := range queue {
				unitDone(p.runUnit(unit, prices, entries, exits, orderFunc, fills, states))
			}
		}()
	}

	for _, unit := range units {
		queue <- unit
	}

	close(queue)
	wg.Wait()

	return firstErr
}

// runUnit executes one work unit, converting a panicking order function into
// an error so a bad callback fails the run instead of the process.
func (p *Portfolio) runUnit(
	unit workUnit,
	prices types.Grid,
	entries, exits *types.BoolGrid,
	orderFunc OrderFunc,
	fills [][]types.Fill,
	states [][]types.ColumnState,
) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.ErrCodeOrderFuncFailed, "order function panicked: %v", r)
		}
	}()

	if unit.group != "" {
		input := groupInput{
			name:      unit.group,
			callSeq:   resolveCallSeq(unit.spec),
			prices:    prices,
			entries:   entries,
			exits:     exits,
			orderFunc: orderFunc,
		}

		groupFills, groupStates := simulateGroup(input, &p.config)
		for _, col := range input.callSeq {
			fills[col] = groupFills[col]
			states[col] = groupStates[col]
		}

		return nil
	}

	input := columnInput{
		column:    unit.column,
		prices:    prices.Column(unit.column),
		orderFunc: orderFunc,
	}
	if entries != nil {
		input.entries = entries.Column(unit.column)
		input.exits = exits.Column(unit.column)
	}

	fills[unit.column], states[unit.column] = simulateColumn(input, &p.config)

	return nil
}

// workUnits splits the grid's columns into ungrouped singletons and whole
// groups, and reports each column's group name for result assembly.
func (p *Portfolio) workUnits(columns int) ([]workUnit, map[int]string) {
	groupOf := make(map[int]string)

	units := make([]workUnit, 0, columns)

	for name, spec := range p.config.Groups {
		for _, col := range spec.Columns {
			groupOf[col] = name
		}

		units = append(units, workUnit{column: -1, group: name, spec: spec})
	}

	for col := 0; col < columns; col++ {
		if _, grouped := groupOf[col]; !grouped {
			units = append(units, workUnit{column: col})
		}
	}

	return units, groupOf
}

func (p *Portfolio) validateRun(index types.TimeIndex, prices types.Grid) error {
	if err := index.Validate(); err != nil {
		return err
	}

	if prices.Rows() == 0 || prices.Columns() == 0 {
		return errors.New(errors.ErrCodeNoDataFound, "price grid is empty")
	}

	if index.Len() != prices.Rows() {
		return errors.Newf(errors.ErrCodeLengthMismatch,
			"time index has %d entries but price grid has %d rows", index.Len(), prices.Rows())
	}

	for name, spec := range p.config.Groups {
		for _, col := range spec.Columns {
			if col < 0 || col >= prices.Columns() {
				return errors.Newf(errors.ErrCodeInvalidGroup,
					"group %q references column %d outside grid with %d columns", name, col, prices.Columns())
			}
		}
	}

	return nil
}

func validateSignalShape(prices types.Grid, entries, exits types.BoolGrid) error {
	for _, grid := range []struct {
		name string
		rows int
		cols int
	}{
		{"entries", entries.Rows(), entries.Columns()},
		{"exits", exits.Rows(), exits.Columns()},
	} {
		if grid.rows != prices.Rows() {
			return errors.Newf(errors.ErrCodeLengthMismatch,
				"%s grid has %d rows but price grid has %d", grid.name, grid.rows, prices.Rows())
		}

		if grid.cols != prices.Columns() {
			return errors.Newf(errors.ErrCodeColumnMismatch,
				"%s grid has %d columns but price grid has %d", grid.name, grid.cols, prices.Columns())
		}
	}

	return nil
}

// Totals aggregates quick summary numbers across all columns of a result.
func (r *Result) Totals() (fills, trades int, totalPnL float64) {
	for i := range r.Columns {
		column := &r.Columns[i]

		for _, fill := range column.Fills {
			if !fill.Rejected {
				fills++
			}
		}

		trades += len(column.Trades)

		for _, tr := range column.Trades {
			if !math.IsNaN(tr.PnL) {
				totalPnL += tr.PnL
			}
		}
	}

	return fills, trades, totalPnL
}

// String gives a one-line human summary, handy for CLI output.
func (r *Result) String() string {
	fills, trades, pnl := r.Totals()

	return fmt.Sprintf("run %s: %d columns, %d fills, %d trades, total pnl %.2f",
		r.ID, len(r.Columns), fills, trades, pnl)
}
