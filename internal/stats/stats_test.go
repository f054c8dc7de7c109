package stats

import (
	"math/rand"
	"testing"
	"time"

	"cuentas/internal/core"
)

func params() Params {
	return Params{GoalTarget: 1500000, InitialStock: 10, StockCategory: "Libros"}
}

func rec(kind core.Kind, category string, amount int64, qty int, date core.Date, createdAt int64) core.Record {
	return core.Record{
		ID:        "x",
		Kind:      kind,
		Category:  category,
		Amount:    amount,
		Quantity:  qty,
		Date:      date,
		CreatedAt: createdAt,
	}
}

func TestFilterByMonthPartition(t *testing.T) {
	records := []core.Record{
		rec(core.KindIncome, "Terapia", 100, 1, core.NewDate(2025, time.May, 1), 1),
		rec(core.KindIncome, "Terapia", 200, 1, core.NewDate(2025, time.June, 1), 2),
		rec(core.KindExpense, "Tag", 50, 1, core.NewDate(2024, time.May, 3), 3),
		rec(core.KindIncome, "Otros", 70, 1, core.NewDate(2025, time.May, 31), 4),
	}
	in := FilterByMonth(records, time.May, 2025)
	if len(in) != 2 {
		t.Fatalf("expected 2 matching records, got %d", len(in))
	}
	for _, r := range in {
		if !r.Date.In(time.May, 2025) {
			t.Fatalf("record %v outside selection", r.Date)
		}
	}
	// Subset plus complement re-covers the input.
	out := 0
	for _, r := range records {
		if !r.Date.In(time.May, 2025) {
			out++
		}
	}
	if len(in)+out != len(records) {
		t.Fatalf("filter lost records: %d in, %d out, %d total", len(in), out, len(records))
	}
}

func TestSumAmountOrderIndependent(t *testing.T) {
	records := []core.Record{
		rec(core.KindIncome, "Terapia", 100, 1, core.NewDate(2025, time.May, 1), 1),
		rec(core.KindIncome, "Libros", 250, 1, core.NewDate(2025, time.May, 2), 2),
		rec(core.KindExpense, "Tag", 40, 1, core.NewDate(2025, time.May, 3), 3),
		rec(core.KindIncome, "Otros", 7, 1, core.NewDate(2025, time.May, 4), 4),
	}
	want := SumAmount(records, core.KindIncome)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := make([]core.Record, len(records))
		copy(shuffled, records)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := SumAmount(shuffled, core.KindIncome); got != want {
			t.Fatalf("shuffle %d: got %d, want %d", i, got, want)
		}
	}
	if got := SumAmount(nil, core.KindIncome); got != 0 {
		t.Fatalf("empty input must sum to 0, got %d", got)
	}
}

func TestSortByDateDescTieBreak(t *testing.T) {
	sameDay := core.NewDate(2025, time.May, 10)
	records := []core.Record{
		rec(core.KindIncome, "Terapia", 1, 1, sameDay, 100),
		rec(core.KindIncome, "Terapia", 2, 1, core.NewDate(2025, time.May, 12), 50),
		rec(core.KindIncome, "Terapia", 3, 1, sameDay, 200),
	}
	sorted := SortByDateDesc(records)
	if sorted[0].Amount != 2 {
		t.Fatalf("expected newest date first, got amount %d", sorted[0].Amount)
	}
	// Same date: the later-created record wins.
	if sorted[1].CreatedAt != 200 || sorted[2].CreatedAt != 100 {
		t.Fatalf("tie-break wrong: got createdAt %d then %d", sorted[1].CreatedAt, sorted[2].CreatedAt)
	}
	// Input order untouched.
	if records[0].CreatedAt != 100 {
		t.Fatalf("input mutated")
	}
}

func TestComputeEmptyCollection(t *testing.T) {
	s := Compute(nil, time.May, 2025, params())
	if s.Income != 0 || s.Expense != 0 || s.Balance != 0 {
		t.Fatalf("expected zero totals, got %+v", s)
	}
	if s.GoalGap != 1500000 {
		t.Fatalf("expected goal gap 1500000, got %d", s.GoalGap)
	}
	if s.GoalRemainingPercent != 100 {
		t.Fatalf("expected 100%% remaining, got %v", s.GoalRemainingPercent)
	}
	if s.StockRemaining != 10 {
		t.Fatalf("expected full stock, got %d", s.StockRemaining)
	}
}

func TestComputeBooksSale(t *testing.T) {
	all := []core.Record{
		rec(core.KindIncome, "Libros", 10000, 2, core.NewDate(2025, time.May, 4), 1),
	}
	s := Compute(all, time.May, 2025, params())
	if s.Income != 10000 {
		t.Fatalf("expected income 10000, got %d", s.Income)
	}
	if s.StockRemaining != 8 {
		t.Fatalf("expected stock 8, got %d", s.StockRemaining)
	}
}

func TestComputeStockIgnoresMonthFilter(t *testing.T) {
	// Stock consumption spans all time; the month selection only scopes
	// the income/expense totals.
	all := []core.Record{
		rec(core.KindIncome, "Libros", 10000, 3, core.NewDate(2024, time.December, 1), 1),
		rec(core.KindIncome, "Libros", 5000, 2, core.NewDate(2025, time.May, 1), 2),
	}
	s := Compute(all, time.May, 2025, params())
	if s.Income != 5000 {
		t.Fatalf("expected month income 5000, got %d", s.Income)
	}
	if s.StockRemaining != 5 {
		t.Fatalf("expected stock 5, got %d", s.StockRemaining)
	}
}

func TestComputeExpenseBooksConsumeStock(t *testing.T) {
	// An expense tagged with the stock category still subtracts stock.
	// Source behavior is unconditional on kind; preserved as-is.
	all := []core.Record{
		rec(core.KindExpense, "Libros", 3000, 4, core.NewDate(2025, time.May, 1), 1),
	}
	s := Compute(all, time.May, 2025, params())
	if s.StockRemaining != 6 {
		t.Fatalf("expected stock 6, got %d", s.StockRemaining)
	}
}

func TestComputeNegativeStockNotClamped(t *testing.T) {
	all := []core.Record{
		rec(core.KindIncome, "Libros", 1000, 12, core.NewDate(2025, time.May, 1), 1),
	}
	s := Compute(all, time.May, 2025, params())
	if s.StockRemaining != -2 {
		t.Fatalf("oversold stock must stay negative, got %d", s.StockRemaining)
	}
}

func TestComputeGoalClamps(t *testing.T) {
	all := []core.Record{
		rec(core.KindIncome, "Terapia", 2000000, 1, core.NewDate(2025, time.May, 1), 1),
	}
	s := Compute(all, time.May, 2025, params())
	if s.GoalGap != 0 {
		t.Fatalf("goal gap must clamp at 0, got %d", s.GoalGap)
	}
	if s.GoalRemainingPercent != 0 {
		t.Fatalf("remaining percent must clamp at 0, got %v", s.GoalRemainingPercent)
	}
}

func TestComputeIsPure(t *testing.T) {
	all := []core.Record{
		rec(core.KindIncome, "Terapia", 100, 1, core.NewDate(2025, time.May, 1), 1),
		rec(core.KindExpense, "Tag", 30, 1, core.NewDate(2025, time.May, 2), 2),
	}
	a := Compute(all, time.May, 2025, params())
	b := Compute(all, time.May, 2025, params())
	if a != b {
		t.Fatalf("identical inputs produced different snapshots: %+v vs %+v", a, b)
	}
}

func TestAnnualSeriesShape(t *testing.T) {
	all := []core.Record{
		rec(core.KindIncome, "Terapia", 500, 1, core.NewDate(2025, time.December, 5), 1),
		rec(core.KindExpense, "Tag", 100, 1, core.NewDate(2025, time.January, 2), 2),
		rec(core.KindIncome, "Terapia", 900, 1, core.NewDate(2019, time.March, 2), 3),
	}
	series := AnnualSeries(all, 2025)
	if len(series) != 12 {
		t.Fatalf("expected 12 entries, got %d", len(series))
	}
	for i, mt := range series {
		if mt.Month != time.Month(i+1) {
			t.Fatalf("entry %d out of calendar order: %v", i, mt.Month)
		}
	}
	if series[0].Expense != 100 {
		t.Fatalf("January expense wrong: %d", series[0].Expense)
	}
	if series[11].Income != 500 {
		t.Fatalf("December income wrong: %d", series[11].Income)
	}
	if series[2].Income != 0 {
		t.Fatalf("other-year record leaked into series: %+v", series[2])
	}
}

func TestGoalRemainingPercentBounded(t *testing.T) {
	for _, income := range []int64{0, 1, 750000, 1500000, 9000000} {
		all := []core.Record{
			rec(core.KindIncome, "Terapia", income, 1, core.NewDate(2025, time.May, 1), 1),
		}
		s := Compute(all, time.May, 2025, params())
		if s.GoalRemainingPercent < 0 || s.GoalRemainingPercent > 100 {
			t.Fatalf("income %d: percent %v out of [0,100]", income, s.GoalRemainingPercent)
		}
	}
}
