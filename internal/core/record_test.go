package core

import (
	"errors"
	"testing"
	"time"
)

func testTaxonomy() Taxonomy {
	return Taxonomy{
		IncomeCategories:  []string{"Terapia", "Libros", "Otros"},
		ExpenseCategories: []string{"Combustible", "Materiales", "Otros"},
		PaymentMethods:    []string{"Efectivo", "Transferencia"},
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.Year() != 2025 || d.Month() != time.March || d.Day() != 9 {
		t.Fatalf("unexpected date %v", d)
	}
	if d.String() != "2025-03-09" {
		t.Fatalf("unexpected string form %q", d.String())
	}
	if _, err := ParseDate("09/03/2025"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDateIn(t *testing.T) {
	d := NewDate(2025, time.July, 31)
	if !d.In(time.July, 2025) {
		t.Fatalf("expected date in July 2025")
	}
	if d.In(time.July, 2024) || d.In(time.June, 2025) {
		t.Fatalf("month/year predicate too loose")
	}
}

func TestDraftValidate(t *testing.T) {
	tax := testTaxonomy()
	good := RecordDraft{
		Kind:     KindIncome,
		Category: "Terapia",
		Amount:   25000,
		Quantity: 1,
		Subject:  "Paciente",
		Payment:  "Efectivo",
		Date:     NewDate(2025, time.May, 2),
	}
	if err := good.Validate(tax); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(*RecordDraft)
		wantErr error
	}{
		{"bad kind", func(d *RecordDraft) { d.Kind = "Transferencia" }, ErrInvalidKind},
		{"zero date", func(d *RecordDraft) { d.Date = Date{} }, ErrInvalidDate},
		{"negative amount", func(d *RecordDraft) { d.Amount = -1 }, ErrNegativeAmount},
		{"zero quantity", func(d *RecordDraft) { d.Quantity = 0 }, ErrInvalidQuantity},
		{"expense category on income", func(d *RecordDraft) { d.Category = "Combustible" }, ErrUnknownCategory},
		{"unknown payment", func(d *RecordDraft) { d.Payment = "Cheque" }, ErrUnknownPayment},
	}
	for _, tc := range cases {
		d := good
		tc.mutate(&d)
		if err := d.Validate(tax); !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestDraftValidateZeroAmount(t *testing.T) {
	// Zero amounts are legal: the model only forbids negatives.
	d := RecordDraft{
		Kind:     KindExpense,
		Category: "Materiales",
		Amount:   0,
		Quantity: 1,
		Payment:  "Efectivo",
		Date:     NewDate(2025, time.May, 2),
	}
	if err := d.Validate(testTaxonomy()); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestDraftNormalize(t *testing.T) {
	d := RecordDraft{Subject: "  Ana  ", Category: " Libros ", Payment: " Efectivo "}
	out := d.Normalize()
	if out.Quantity != 1 {
		t.Fatalf("expected quantity default 1, got %d", out.Quantity)
	}
	if out.Subject != "Ana" || out.Category != "Libros" || out.Payment != "Efectivo" {
		t.Fatalf("expected trimmed fields, got %+v", out)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"25000", 25000},
		{" 25000 ", 25000},
		{"1.500.000", 1500000},
		{"1,500,000", 1500000},
		{"0", 0},
		{"", 0},
		{"abc", 0},
		{"-100", 0},
		{"12x", 0},
	}
	for _, tc := range cases {
		if got := ParseAmount(tc.in); got != tc.want {
			t.Fatalf("ParseAmount(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"2", 2},
		{"1", 1},
		{"0", 1},
		{"-3", 1},
		{"", 1},
		{"dos", 1},
	}
	for _, tc := range cases {
		if got := ParseQuantity(tc.in); got != tc.want {
			t.Fatalf("ParseQuantity(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
