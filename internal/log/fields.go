package log

// Attribute keys.
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldQuery        = "query"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldUserAgent    = "user_agent"
	FieldReferer      = "referer"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldBillID       = "bill_id"
	FieldCustomerName = "customer_name"
	FieldMobile       = "customer_mobile"
	FieldTotalLiters  = "total_liters"
	FieldTotalAmount  = "total_amount"
)

// Component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentBilling   = "billing"
	ComponentStore     = "store"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
	ComponentTemplate  = "template"
	ComponentCLI       = "cli"
)

// Operation names.
const (
	OpCreate   = "create"
	OpList     = "list"
	OpParse    = "parse"
	OpRender   = "render"
	OpShutdown = "shutdown"
)
