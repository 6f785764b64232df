package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldCategory   = "category"
	FieldRange      = "range"
	FieldExpenseID  = "expense_id"
	FieldGeneration = "generation"
	FieldUpstream   = "upstream"
	FieldCacheHit   = "cache_hit"
	FieldStale      = "stale"
)

// Components defines standard component names
const (
	ComponentGateway  = "gateway"
	ComponentHTTP     = "http"
	ComponentSync     = "sync"
	ComponentUpstream = "upstream"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentExport   = "export"
	ComponentCache    = "cache"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpRefresh  = "refresh"
	OpExport   = "export"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
