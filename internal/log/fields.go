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
	FieldError      = "error"
	FieldWalletID   = "wallet_id"
	FieldLocale     = "locale"
	FieldPage       = "page"
	FieldLastPage   = "last_page"
	FieldItemCount  = "item_count"
	FieldCacheKey   = "cache_key"
	FieldQueue      = "queue"
	FieldSheetsRef  = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentClient   = "upstream_client"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentCache    = "cache"
	ComponentTimeline = "timeline"
	ComponentTrace    = "trace"
)
