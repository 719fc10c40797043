package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldSeq         = "seq"
	FieldWave        = "wave"
	FieldCollection  = "collection"
	FieldCount       = "count"
	FieldEntity      = "entity"
	FieldEntityID    = "entity_id"
	FieldUsername    = "username"
	FieldStatementID = "statement_ids"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentSession  = "session"
	ComponentSync     = "sync"
	ComponentMutation = "mutation"
	ComponentAPI      = "api"
	ComponentNotify   = "notify"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentCache    = "cache"
	ComponentBackend  = "backend"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSync     = "sync"
	OpUpload   = "upload"
	OpLogin    = "login"
	OpRegister = "register"
	OpLogout   = "logout"
	OpRestore  = "restore"
	OpPublish  = "publish"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeAuth          = "auth_error"
	ErrorTypeTimeout       = "timeout_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
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

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithEntity adds the mutated entity kind and its identifier
func (f LogFields) WithEntity(entity string, id int64) LogFields {
	f[FieldEntity] = entity
	if id > 0 {
		f[FieldEntityID] = id
	}
	return f
}

// WithResync adds resync sequence and wave fields
func (f LogFields) WithResync(seq uint64, wave int) LogFields {
	f[FieldSeq] = seq
	f[FieldWave] = wave
	return f
}

// WithHTTPCall adds outbound HTTP call fields
func (f LogFields) WithHTTPCall(method, path string, statusCode int, durationMs int64) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode > 0 && statusCode < 400
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
