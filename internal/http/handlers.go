package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cuentas/internal/core"
	"cuentas/internal/export"
	"cuentas/internal/service"
	"cuentas/internal/stats"
	"cuentas/internal/store"
)

type (
	errorResponse struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	recordResponse struct {
		ID        string `json:"id"`
		Kind      string `json:"kind"`
		Category  string `json:"category"`
		Amount    int64  `json:"amount"`
		Quantity  int    `json:"quantity"`
		Subject   string `json:"subject"`
		Contact   string `json:"contact,omitempty"`
		Payment   string `json:"payment"`
		Note      string `json:"note,omitempty"`
		Date      string `json:"date"`
		OwnerID   string `json:"owner_session_id"`
		CreatedAt int64  `json:"created_at"`
	}

	// createRequest tolerates the loosely-typed payloads the historical
	// clients send: amount and quantity may be numbers or strings and are
	// coerced, not rejected.
	createRequest struct {
		Kind     string `json:"kind"`
		Category string `json:"category"`
		Amount   any    `json:"amount"`
		Quantity any    `json:"quantity"`
		Subject  string `json:"subject"`
		Contact  string `json:"contact"`
		Payment  string `json:"payment"`
		Note     string `json:"note"`
		Date     string `json:"date"`
	}

	statsResponse struct {
		Year      int    `json:"year"`
		Month     int    `json:"month"`
		MonthName string `json:"month_name"`
		stats.Snapshot
	}

	annualEntry struct {
		Month     int    `json:"month"`
		MonthName string `json:"month_name"`
		Income    int64  `json:"income"`
		Expense   int64  `json:"expense"`
	}
)

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports readiness: the ledger must have absorbed the first
// collection push before the aggregates mean anything.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.ledger.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("waiting for first collection push"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleMeta exposes the enumerations the record form is built from.
func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	tax := s.ledger.Taxonomy()
	p := s.ledger.Params()
	writeJSON(w, http.StatusOK, map[string]any{
		"income_categories":  tax.IncomeCategories,
		"expense_categories": tax.ExpenseCategories,
		"payment_methods":    tax.PaymentMethods,
		"month_names":        s.monthNames,
		"goal_target":        p.GoalTarget,
		"initial_stock":      p.InitialStock,
		"stock_category":     p.StockCategory,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	month, year := s.monthYearParams(r)
	snap := s.ledger.Stats(month, year)
	writeJSON(w, http.StatusOK, statsResponse{
		Year:      year,
		Month:     int(month),
		MonthName: s.monthName(month),
		Snapshot:  snap,
	})
}

func (s *Server) handleAnnual(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	_, year := s.monthYearParams(r)
	series := s.ledger.Annual(year)
	out := make([]annualEntry, 0, len(series))
	for _, mt := range series {
		out = append(out, annualEntry{
			Month:     int(mt.Month),
			MonthName: s.monthName(mt.Month),
			Income:    mt.Income,
			Expense:   mt.Expense,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "months": out})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listRecords(w, r)
	case http.MethodPost:
		s.createRecord(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// listRecords returns the table view: month-scoped when year/month are
// given, the full history otherwise, always date-descending.
func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	var records []core.Record
	if r.URL.Query().Get("year") != "" || r.URL.Query().Get("month") != "" {
		month, year := s.monthYearParams(r)
		records = s.ledger.MonthRecords(month, year)
	} else {
		records = s.ledger.Records()
	}

	out := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toResponse(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": out})
}

func (s *Server) createRecord(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	draft := core.RecordDraft{
		Kind:     core.Kind(strings.TrimSpace(req.Kind)),
		Category: req.Category,
		Amount:   coerceAmount(req.Amount),
		Quantity: coerceQuantity(req.Quantity),
		Subject:  req.Subject,
		Contact:  req.Contact,
		Payment:  req.Payment,
		Note:     req.Note,
		Date:     date,
	}

	id, err := s.ledger.Create(r.Context(), draft)
	if err != nil {
		s.writeCreateError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) writeCreateError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *service.InsufficientStockError
	var syncErr *store.SyncError
	switch {
	case errors.As(err, &stockErr):
		writeError(w, http.StatusConflict, "insufficient_stock", stockErr.Error())
	case errors.As(err, &syncErr):
		slog.ErrorContext(r.Context(), "Store write failed", "error", err)
		writeError(w, http.StatusBadGateway, "sync_error", "could not reach the record store")
	case errors.Is(err, service.ErrNoSession):
		writeError(w, http.StatusServiceUnavailable, "no_session", "session not established yet")
	default:
		writeError(w, http.StatusUnprocessableEntity, "invalid_record", err.Error())
	}
}

func (s *Server) handleRecordByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/records/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, http.MethodDelete)
		return
	}

	if err := s.ledger.Delete(r.Context(), id); err != nil {
		var syncErr *store.SyncError
		if errors.As(err, &syncErr) {
			slog.ErrorContext(r.Context(), "Store delete failed", "error", err, "record_id", id)
			writeError(w, http.StatusBadGateway, "sync_error", "could not reach the record store")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExport streams the CSV snapshot of the full collection.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	_, year := s.monthYearParams(r)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(year)+`"`)
	if err := export.WriteCSV(w, s.ledger.Records()); err != nil {
		slog.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}

// monthYearParams reads the selection from the query, defaulting to the
// current month and correcting out-of-range months the same way.
func (s *Server) monthYearParams(r *http.Request) (time.Month, int) {
	now := time.Now()
	month := now.Month()
	year := now.Year()
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = time.Month(m)
		} else {
			slog.WarnContext(r.Context(), "Invalid month parameter", "value", v, "corrected_to", int(month))
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	return month, year
}

func (s *Server) monthName(m time.Month) string {
	idx := int(m) - 1
	if idx < 0 || idx >= len(s.monthNames) {
		return m.String()
	}
	return s.monthNames[idx]
}

func toResponse(rec core.Record) recordResponse {
	return recordResponse{
		ID:        rec.ID,
		Kind:      string(rec.Kind),
		Category:  rec.Category,
		Amount:    rec.Amount,
		Quantity:  rec.Quantity,
		Subject:   rec.Subject,
		Contact:   rec.Contact,
		Payment:   rec.Payment,
		Note:      rec.Note,
		Date:      rec.Date.String(),
		OwnerID:   rec.OwnerID,
		CreatedAt: rec.CreatedAt,
	}
}

func coerceAmount(v any) int64 {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		if val < 0 {
			return 0
		}
		return int64(val)
	case string:
		return core.ParseAmount(val)
	default:
		return 0
	}
}

func coerceQuantity(v any) int {
	switch val := v.(type) {
	case nil:
		return 1
	case float64:
		if val < 1 {
			return 1
		}
		return int(val)
	case string:
		return core.ParseQuantity(val)
	default:
		return 1
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Response encoding failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}
