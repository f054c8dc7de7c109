package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// KindIncome and KindExpense carry the historical wire values so that
	// collections written by earlier deployments keep parsing.
	KindIncome  Kind = "Ingreso"
	KindExpense Kind = "Egreso"
)

type (
	Kind string

	Date struct {
		time.Time
	}

	// Record is a single income or expense transaction. Records are
	// append-only: there is no update operation, correcting a mistake
	// means delete plus re-create.
	Record struct {
		ID        string
		Kind      Kind
		Category  string
		Amount    int64 // whole currency units, never fractional
		Quantity  int
		Subject   string // patient/customer name or expense detail
		Contact   string
		Payment   string
		Note      string
		Date      Date
		OwnerID   string // session that created the record, set once
		CreatedAt int64  // unix millis, stable secondary sort key
	}

	// RecordDraft is the creation payload. ID, OwnerID and CreatedAt are
	// assigned during admission, never by the caller.
	RecordDraft struct {
		Kind     Kind
		Category string
		Amount   int64
		Quantity int
		Subject  string
		Contact  string
		Payment  string
		Note     string
		Date     Date
	}

	// Taxonomy holds the enumerated category and payment-method sets a
	// draft is validated against. Historical records are NOT re-validated:
	// the sets may shrink after records were written.
	Taxonomy struct {
		IncomeCategories  []string
		ExpenseCategories []string
		PaymentMethods    []string
	}
)

var (
	ErrInvalidKind      = errors.New("invalid kind")
	ErrUnknownCategory  = errors.New("category not in enumerated set for kind")
	ErrUnknownPayment   = errors.New("payment method not in enumerated set")
	ErrNegativeAmount   = errors.New("amount must be non-negative")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrInvalidDate      = errors.New("invalid date")
)

// NewDate creates a Date from year, month, day. Day precision only.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses the YYYY-MM-DD form used on the wire and in exports.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// In reports whether the date falls in the given month of the given year.
func (d Date) In(month time.Month, year int) bool {
	return d.Month() == month && d.Year() == year
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Categories returns the enumerated category set matching the kind.
func (t Taxonomy) Categories(k Kind) []string {
	if k == KindIncome {
		return t.IncomeCategories
	}
	return t.ExpenseCategories
}

// Validate checks a draft against the taxonomy. This runs at creation time
// only; the category set is free to change afterwards without invalidating
// history.
func (rd RecordDraft) Validate(t Taxonomy) error {
	if !rd.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := rd.Date.Validate(); err != nil {
		return err
	}
	if rd.Amount < 0 {
		return ErrNegativeAmount
	}
	if rd.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if !contains(t.Categories(rd.Kind), rd.Category) {
		return ErrUnknownCategory
	}
	if len(t.PaymentMethods) > 0 && !contains(t.PaymentMethods, rd.Payment) {
		return ErrUnknownPayment
	}
	return nil
}

// Normalize fills defaults and trims free-text fields. Quantity defaults
// to 1 when unset.
func (rd RecordDraft) Normalize() RecordDraft {
	out := rd
	if out.Quantity == 0 {
		out.Quantity = 1
	}
	out.Subject = strings.TrimSpace(out.Subject)
	out.Contact = strings.TrimSpace(out.Contact)
	out.Note = strings.TrimSpace(out.Note)
	out.Category = strings.TrimSpace(out.Category)
	out.Payment = strings.TrimSpace(out.Payment)
	return out
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
