package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldSuccess     = "success"
	FieldDuration    = "duration_ms"
	FieldSessionID   = "session_id"
	FieldSourceName  = "source_name"
	FieldPath        = "path"
	FieldRow         = "row"
	FieldMonth       = "month"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldTxDate      = "tx_date"
	FieldImported    = "imported"
	FieldDuplicates  = "duplicates"
	FieldErrors      = "errors"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentStorage  = "storage"
	ComponentImporter = "importer"
	ComponentReport   = "report"
	ComponentBudget   = "budget"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentCache    = "cache"
)

// Operations defines standard operation names
const (
	OpImport   = "import"
	OpList     = "list"
	OpDelete   = "delete"
	OpReport   = "report"
	OpCalendar = "calendar"
	OpValidate = "validate"
	OpParse    = "parse"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithSession adds import session fields
func (f LogFields) WithSession(id, source string) LogFields {
	f[FieldSessionID] = id
	f[FieldSourceName] = source
	return f
}

// WithImportCounts adds the per-session outcome counters
func (f LogFields) WithImportCounts(imported, duplicates, errors int) LogFields {
	f[FieldImported] = imported
	f[FieldDuplicates] = duplicates
	f[FieldErrors] = errors
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
