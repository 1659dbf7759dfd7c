package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldOperation     = "operation"
	FieldBackend       = "backend"
	FieldMonth         = "month"
	FieldCategory      = "category"
	FieldSubcategory   = "subcategory"
	FieldAmount        = "amount"
	FieldPaymentMethod = "payment_method"
	FieldAdded         = "added"
	FieldSkipped       = "skipped"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentSettings  = "settings"
	ComponentRecurring = "recurring"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentBackend   = "backend"
	ComponentWorker    = "worker"
)

// Operations defines standard operation names
const (
	OpRecord    = "record"
	OpRead      = "read"
	OpList      = "list"
	OpReconcile = "reconcile"
	OpSave      = "save"
	OpParse     = "parse"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error and its category. Nil errors add nothing.
func (f LogFields) WithError(err error, errorType string) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		f[FieldErrorType] = errorType
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithMonth adds the month key field.
func (f LogFields) WithMonth(month string) LogFields {
	f[FieldMonth] = month
	return f
}

// WithTransaction adds the fields describing one ledger entry.
func (f LogFields) WithTransaction(month, category, subcategory, amount, paymentMethod string) LogFields {
	f[FieldMonth] = month
	f[FieldCategory] = category
	f[FieldSubcategory] = subcategory
	f[FieldAmount] = amount
	f[FieldPaymentMethod] = paymentMethod
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
