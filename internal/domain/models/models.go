package models

import (
	"time"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/roles"
)

// Request represents a service request moving through a workflow
type Request struct {
	ID            string                 `json:"id"`
	ServiceKey    string                 `json:"service_key"`
	RequesterID   string                 `json:"requester_id"`
	Status        string                 `json:"status"` // new, in_progress, completed, rejected, cancelled
	CurrentStepID *string                `json:"current_step_id,omitempty"`
	StepStartedAt *time.Time             `json:"step_started_at,omitempty"`
	StepDeadline  *time.Time             `json:"step_deadline,omitempty"`
	SLAStatus     string                 `json:"sla_status"` // on_track, at_risk, breached
	Priority      string                 `json:"priority"`
	FormData      map[string]interface{} `json:"form_data,omitempty"`
	Version       int64                  `json:"version"` // optimistic concurrency token
	CreatedDate   time.Time              `json:"created_date"`
	ModifiedDate  time.Time              `json:"modified_date"`
}

// IsTerminal reports whether the request has reached a terminal status
func (r *Request) IsTerminal() bool {
	switch r.Status {
	case "completed", "rejected", "cancelled":
		return true
	}
	return false
}

// AuditEvent is one entry in the canonical append-only request history.
// Events are never updated or deleted.
type AuditEvent struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	EventType  string    `json:"event_type"` // submitted, action, cancelled, sla_breach
	Action     string    `json:"action,omitempty"`
	ActorID    string    `json:"actor_id,omitempty"`
	FromStepID *string   `json:"from_step_id,omitempty"`
	ToStepID   *string   `json:"to_step_id,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// WorkflowSLA is the per-step SLA configuration of a workflow
type WorkflowSLA struct {
	WorkflowID          string  `json:"workflow_id"`
	StepID              string  `json:"step_id"`
	DurationHours       float64 `json:"duration_hours"`
	WarningThresholdPct float64 `json:"warning_threshold_pct"`
	EscalationAction    string  `json:"escalation_action,omitempty"` // consumed by the external notifier
}

// StepFieldPermission overrides a form field's behaviour at one workflow step.
// RoleType scopes the record to callers holding that role; empty means the
// record is the step default for every caller.
type StepFieldPermission struct {
	WorkflowID       string       `json:"workflow_id"`
	StepID           string       `json:"step_id"`
	FieldKey         string       `json:"field_key"`
	RoleType         roles.Role   `json:"role_type,omitempty"`
	Visible          bool         `json:"visible"`
	Editable         bool         `json:"editable"`
	RequiredOverride *bool        `json:"required_override,omitempty"` // nil defers to the form schema
	AllowedRoles     []roles.Role `json:"allowed_roles,omitempty"`     // empty = inherited default
}

// FormField is one field of a service's form schema as presented to a caller
type FormField struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Hidden   bool   `json:"hidden"`
	ReadOnly bool   `json:"read_only"`
}

// UserSession is the caller identity handed to the engine. Roles arrive
// already verified by the authentication layer; the engine trusts them.
type UserSession struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Roles []roles.Role `json:"roles"`
}

// IsSystemAdmin reports whether the session holds the administrative override role
func (u *UserSession) IsSystemAdmin() bool {
	return roles.Contains(u.Roles, roles.SystemAdmin)
}
