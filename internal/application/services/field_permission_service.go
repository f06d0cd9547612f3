package services

import (
	"context"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/models"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/ports"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/roles"
	apperrors "github.com/alhafibarefoot/HelpDesk-sub002/pkg/errors"
)

// FieldPermissionService resolves the effective visibility, editability and
// requiredness of form fields at a workflow step for a given caller.
//
// Resolution order per field:
//  1. No applicable permission record: schema defaults apply.
//  2. allowed_roles set and disjoint from caller roles: field is hidden,
//     nothing else is considered.
//  3. visible=false: hidden.
//  4. editable=false: read-only but visible.
//  5. required_override, when set, replaces the schema required flag in every
//     branch above.
type FieldPermissionService struct {
	permissions ports.PermissionStore
	schemas     ports.FormSchemaSource
	definitions *DefinitionService
	requests    ports.RequestStore
}

// NewFieldPermissionService creates a new FieldPermissionService
func NewFieldPermissionService(
	permissions ports.PermissionStore,
	schemas ports.FormSchemaSource,
	definitions *DefinitionService,
	requests ports.RequestStore,
) *FieldPermissionService {
	return &FieldPermissionService{
		permissions: permissions,
		schemas:     schemas,
		definitions: definitions,
		requests:    requests,
	}
}

// Resolve applies step permission records to a form schema for the caller's
// roles. It is pure: the input slices are never mutated and the result is a
// fresh list, so repeated calls with different role sets are independent.
func (s *FieldPermissionService) Resolve(fields []models.FormField, perms []models.StepFieldPermission, callerRoles []roles.Role) []models.FormField {
	out := make([]models.FormField, len(fields))
	copy(out, fields)

	for i := range out {
		perm, ok := applicableRecord(perms, out[i].Key, callerRoles)
		if !ok {
			continue
		}

		switch {
		case len(perm.AllowedRoles) > 0 && !roles.Intersects(callerRoles, perm.AllowedRoles):
			// Role gate outranks every other flag
			out[i].Hidden = true
		case !perm.Visible:
			out[i].Hidden = true
		case !perm.Editable:
			out[i].ReadOnly = true
		}

		if perm.RequiredOverride != nil {
			out[i].Required = *perm.RequiredOverride
		}
	}

	return out
}

// applicableRecord picks the permission record governing a field for the
// caller. A record scoped to a role_type only applies when the caller holds
// that role; an unscoped record is the step default. First applicable record
// in store order wins.
func applicableRecord(perms []models.StepFieldPermission, fieldKey string, callerRoles []roles.Role) (models.StepFieldPermission, bool) {
	var fallback *models.StepFieldPermission
	for i := range perms {
		p := perms[i]
		if p.FieldKey != fieldKey {
			continue
		}
		if p.RoleType == "" {
			if fallback == nil {
				fallback = &perms[i]
			}
			continue
		}
		if roles.Contains(callerRoles, p.RoleType) {
			return p, true
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return models.StepFieldPermission{}, false
}

// ResolveForRequest loads everything needed to render the request's form for
// the caller: the service form schema, the workflow definition and the
// current step's permission records.
func (s *FieldPermissionService) ResolveForRequest(ctx context.Context, requestID string, caller *models.UserSession) ([]models.FormField, error) {
	req, err := s.requests.ReadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	fields, err := s.schemas.LoadFormSchema(ctx, req.ServiceKey)
	if err != nil {
		return nil, err
	}

	// Terminal requests have no current step; the schema renders with defaults
	if req.CurrentStepID == nil {
		out := make([]models.FormField, len(fields))
		copy(out, fields)
		return out, nil
	}

	def, err := s.definitions.Definition(ctx, req.ServiceKey)
	if err != nil {
		return nil, err
	}
	if _, ok := def.FindNode(*req.CurrentStepID); !ok {
		return nil, apperrors.NewInvalidStateError(req.ID, *req.CurrentStepID, "current step not present in workflow definition")
	}

	perms, err := s.permissions.ReadStepFieldPermissions(ctx, def.WorkflowID, *req.CurrentStepID)
	if err != nil {
		return nil, err
	}

	return s.Resolve(fields, perms, caller.Roles), nil
}
