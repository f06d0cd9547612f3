package ports

import (
	"context"
	"time"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/models"
)

// DefinitionSource loads the raw workflow definition owned by a service.
// Returns a NotFoundError when the service key is unknown.
type DefinitionSource interface {
	LoadWorkflowDefinition(ctx context.Context, serviceKey string) ([]byte, error)
}

// RequestStore persists requests and their append-only audit history.
type RequestStore interface {
	// ReadRequest returns the request including its concurrency version.
	ReadRequest(ctx context.Context, id string) (*models.Request, error)

	// CreateRequest inserts a new request together with its first audit event
	// in one transaction.
	CreateRequest(ctx context.Context, req *models.Request, event *models.AuditEvent) error

	// WriteRequestTransition applies the new request state and appends the
	// audit event atomically. expectedVersion guards against concurrent
	// transitions; a lost race yields a ConflictError and no change.
	WriteRequestTransition(ctx context.Context, req *models.Request, expectedVersion int64, event *models.AuditEvent) error

	// QueryOverdueRequests returns non-terminal requests whose deadline has
	// passed and whose SLA status is not yet breached.
	QueryOverdueRequests(ctx context.Context, now time.Time, limit int) ([]*models.Request, error)

	// QueryWarningCandidates returns non-terminal on_track requests with a
	// deadline, for warning-threshold evaluation.
	QueryWarningCandidates(ctx context.Context, now time.Time, limit int) ([]*models.Request, error)

	// MarkBreached atomically flips sla_status to breached and appends the
	// sla_breach audit event. stepID and deadline are the values the caller
	// observed; the claim only succeeds while the request is still at that
	// step with that deadline, so a transition committing after the scan
	// invalidates the claim. Returns false when another pass, a concurrent
	// transition, or a step change got there first.
	MarkBreached(ctx context.Context, requestID, stepID string, deadline time.Time, event *models.AuditEvent) (bool, error)

	// MarkAtRisk flips sla_status from on_track to at_risk, guarded by the
	// same observed step and deadline as MarkBreached. Returns false when
	// the request is no longer eligible.
	MarkAtRisk(ctx context.Context, requestID, stepID string, deadline time.Time) (bool, error)

	// ListAuditEvents returns the request's history, oldest first.
	ListAuditEvents(ctx context.Context, requestID string) ([]models.AuditEvent, error)
}

// SLAConfigStore reads per-step SLA configuration. Absent configuration is
// reported as (nil, nil): the step is simply exempt from breach detection.
type SLAConfigStore interface {
	ReadSLAConfig(ctx context.Context, workflowID, stepID string) (*models.WorkflowSLA, error)
}

// PermissionStore reads step field permission records.
type PermissionStore interface {
	ReadStepFieldPermissions(ctx context.Context, workflowID, stepID string) ([]models.StepFieldPermission, error)
}

// FormSchemaSource loads a service's form field schema.
type FormSchemaSource interface {
	LoadFormSchema(ctx context.Context, serviceKey string) ([]models.FormField, error)
}
