package constants

// System table names
const (
	TableRequests             = "requests"
	TableAuditEvents          = "audit_events"
	TableWorkflowSLAs         = "workflow_slas"
	TableStepFieldPermissions = "step_field_permissions"
	TableServices             = "services"
)

// HTTP / context keys
const (
	HeaderAuthorization = "Authorization"
	ContextKeyUser      = "user"
	ResponseError       = "error"
	ResponseData        = "data"
	ResponseMessage     = "message"
)
