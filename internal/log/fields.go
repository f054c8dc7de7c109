package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldError     = "error"
	FieldRecordID  = "record_id"
	FieldKind      = "kind"
	FieldCategory  = "category"
	FieldAmount    = "amount"
	FieldQuantity  = "quantity"
	FieldOwner     = "owner"
	FieldYear      = "year"
	FieldMonth     = "month"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentStore   = "store"
	ComponentBus     = "bus"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentSession = "session"
)
