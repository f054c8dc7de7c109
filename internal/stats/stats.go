// Package stats is the aggregation engine: pure functions deriving summary
// statistics from the full record collection and a month/year selection.
// It holds no state and raises no errors; callers recompute on every
// collection push or filter change.
package stats

import (
	"sort"
	"time"

	"cuentas/internal/core"
)

type (
	// Params are the fixed business constants the engine needs. GoalTarget
	// must be positive; config validation enforces this before the engine
	// ever runs, so no division-by-zero guard lives here.
	Params struct {
		GoalTarget    int64
		InitialStock  int
		StockCategory string
	}

	// Snapshot bundles the derived metrics for one month/year selection.
	Snapshot struct {
		Income               int64   `json:"income"`
		Expense              int64   `json:"expense"`
		Balance              int64   `json:"balance"`
		GoalGap              int64   `json:"goal_gap"`
		GoalRemainingPercent float64 `json:"goal_remaining_percent"`
		StockRemaining       int     `json:"stock_remaining"`
	}

	// MonthlyTotal is one entry of the twelve-month series.
	MonthlyTotal struct {
		Month   time.Month `json:"month"`
		Income  int64      `json:"income"`
		Expense int64      `json:"expense"`
	}
)

// FilterByMonth keeps the records whose date falls in the given month and
// year. Order is whatever the input had; consumers sort explicitly.
func FilterByMonth(records []core.Record, month time.Month, year int) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if r.Date.In(month, year) {
			out = append(out, r)
		}
	}
	return out
}

// SortByDateDesc returns a new slice sorted by date descending. Records on
// the same calendar date are common, so ties break by CreatedAt descending:
// the most recently created record wins.
func SortByDateDesc(records []core.Record) []core.Record {
	out := make([]core.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Date, out[j].Date
		if !di.Equal(dj.Time) {
			return di.After(dj.Time)
		}
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}

// SumAmount sums the amounts of the records matching the kind. Empty input
// yields 0.
func SumAmount(records []core.Record, kind core.Kind) int64 {
	var total int64
	for _, r := range records {
		if r.Kind == kind {
			total += r.Amount
		}
	}
	return total
}

// StockRemaining derives the stock level from the FULL history: initial
// stock minus every quantity of the stock category across all time,
// regardless of the record kind. The value may go negative when oversold;
// that is a meaningful signal, not an error, so it is never clamped.
func StockRemaining(all []core.Record, p Params) int {
	sold := 0
	for _, r := range all {
		if r.Category == p.StockCategory {
			sold += r.Quantity
		}
	}
	return p.InitialStock - sold
}

// Compute derives the snapshot for one month/year selection. Income and
// expense totals come from the month-filtered subset; stock comes from the
// unfiltered collection. GoalGap and GoalRemainingPercent clamp at zero even
// when income exceeds the goal.
func Compute(all []core.Record, month time.Month, year int, p Params) Snapshot {
	current := FilterByMonth(all, month, year)
	income := SumAmount(current, core.KindIncome)
	expense := SumAmount(current, core.KindExpense)

	gap := p.GoalTarget - income
	if gap < 0 {
		gap = 0
	}
	remaining := 100 - float64(income)/float64(p.GoalTarget)*100
	if remaining < 0 {
		remaining = 0
	}

	return Snapshot{
		Income:               income,
		Expense:              expense,
		Balance:              income - expense,
		GoalGap:              gap,
		GoalRemainingPercent: remaining,
		StockRemaining:       StockRemaining(all, p),
	}
}

// AnnualSeries computes independent income/expense totals for each calendar
// month of the year. The result always has twelve entries in calendar order.
func AnnualSeries(all []core.Record, year int) []MonthlyTotal {
	out := make([]MonthlyTotal, 0, 12)
	for m := time.January; m <= time.December; m++ {
		monthRecs := FilterByMonth(all, m, year)
		out = append(out, MonthlyTotal{
			Month:   m,
			Income:  SumAmount(monthRecs, core.KindIncome),
			Expense: SumAmount(monthRecs, core.KindExpense),
		})
	}
	return out
}
