package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Fixtures
	FieldGuildID = "guild_id"
	FieldUserID  = "user_id"
	FieldPolicy  = "policy"
	FieldEvent   = "event"
	FieldIDKind  = "id_kind"

	// Service
	FieldService = "service"

	// Storage and bus targets
	FieldStorageKey = "storage_key"
	FieldChannel    = "channel"
)
