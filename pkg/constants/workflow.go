package constants

// Request status constants
const (
	RequestStatusNew        = "new"
	RequestStatusInProgress = "in_progress"
	RequestStatusCompleted  = "completed"
	RequestStatusRejected   = "rejected"
	RequestStatusCancelled  = "cancelled"
)

// SLA status constants
const (
	SLAStatusOnTrack  = "on_track"
	SLAStatusAtRisk   = "at_risk"
	SLAStatusBreached = "breached"
)

// Workflow node type constants
const (
	NodeTypeStart    = "start"
	NodeTypeApproval = "approval"
	NodeTypeAction   = "action"
	NodeTypeEnd      = "end"
)

// Workflow action constants
const (
	ActionApprove  = "approve"
	ActionReject   = "reject"
	ActionComplete = "complete"
	ActionSendBack = "send_back"
	ActionCancel   = "cancel"
)

// Audit event type constants
const (
	AuditEventSubmitted = "submitted"
	AuditEventAction    = "action"
	AuditEventCancelled = "cancelled"
	AuditEventSLABreach = "sla_breach"
)

// Sweep-related constants
const (
	SweepDefaultSchedule  = "*/5 * * * *" // cron expression for breach sweeps
	SweepCheckInterval    = 30            // Seconds between due-checks of the sweep loop
	SweepMaxRuntimeMins   = 10            // Maximum sweep execution time before timeout (minutes)
	ScheduleDefaultTZ     = "UTC"
	DefaultRequestFetchMax = 500 // Upper bound on requests pulled per sweep pass
)

// Request priority constants
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)
