package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Defaults mirror the constants the practice has been running with. All of
// them are overridable through the environment; none is compiled in
// anywhere else.
var (
	defaultIncomeCategories = []string{
		"Evaluación de Paciente", "Terapia Fonoaudiológica", "Lavado de Oídos",
		"Operativo Auditivo", "Procedimiento Enfermería", "Libros",
		"Artículos para Rehabilitación",
	}
	defaultExpenseCategories = []string{
		"Combustible", "Tag", "Transporte Público", "Alimentación",
		"Reinversión Materiales", "Reimpresión Libros", "Empaquetado",
		"Envío", "Marketing", "Otros",
	}
	defaultPaymentMethods = []string{"Efectivo", "Transferencia", "Tarjeta Débito/Crédito"}
	defaultMonthNames     = []string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection: memory | sqlite
	DataBackend string

	// SQLite
	SQLiteDBPath string

	// AMQP change broadcast (optional)
	AMQPURL      string
	AMQPExchange string

	// Business constants
	GoalTarget        int64
	InitialStock      int
	StockCategory     string
	IncomeCategories  []string
	ExpenseCategories []string
	PaymentMethods    []string
	MonthNames        []string

	// Session
	SessionToken string

	// Google Sheets mirror (worker)
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/cuentas.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "cuentas.records"),

		GoalTarget:        getEnvInt64("GOAL_TARGET", 1500000),
		InitialStock:      getEnvInt("INITIAL_STOCK", 10),
		StockCategory:     getEnv("STOCK_CATEGORY", "Libros"),
		IncomeCategories:  getEnvList("INCOME_CATEGORIES", defaultIncomeCategories),
		ExpenseCategories: getEnvList("EXPENSE_CATEGORIES", defaultExpenseCategories),
		PaymentMethods:    getEnvList("PAYMENT_METHODS", defaultPaymentMethods),
		MonthNames:        getEnvList("MONTH_NAMES", defaultMonthNames),

		SessionToken: getEnv("SESSION_TOKEN", ""),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Registros"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of [memory sqlite]", c.DataBackend))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	// The aggregation engine divides by the goal target; a non-positive
	// value must never reach it.
	if c.GoalTarget <= 0 {
		errs = append(errs, fmt.Sprintf("invalid goal target %d: must be positive", c.GoalTarget))
	}
	if c.InitialStock < 0 {
		errs = append(errs, fmt.Sprintf("invalid initial stock %d: must be non-negative", c.InitialStock))
	}
	if c.StockCategory == "" {
		errs = append(errs, "stock category cannot be empty")
	}
	if len(c.IncomeCategories) == 0 {
		errs = append(errs, "income categories cannot be empty")
	}
	if len(c.ExpenseCategories) == 0 {
		errs = append(errs, "expense categories cannot be empty")
	}
	if len(c.PaymentMethods) == 0 {
		errs = append(errs, "payment methods cannot be empty")
	}
	if len(c.MonthNames) != 12 {
		errs = append(errs, fmt.Sprintf("month names must have exactly 12 entries, got %d", len(c.MonthNames)))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
