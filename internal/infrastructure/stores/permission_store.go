package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/models"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/ports"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/roles"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/infrastructure/database"
	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/constants"
	apperrors "github.com/alhafibarefoot/HelpDesk-sub002/pkg/errors"
)

// PermissionStore reads step field permission rows. Role names are normalized
// on the way out so legacy aliases in old rows keep working.
type PermissionStore struct {
	db *database.Connection
}

var _ ports.PermissionStore = (*PermissionStore)(nil)

// NewPermissionStore creates a new PermissionStore
func NewPermissionStore(db *database.Connection) *PermissionStore {
	return &PermissionStore{db: db}
}

// ReadStepFieldPermissions returns the permission records for one workflow step
// in insertion order
func (s *PermissionStore) ReadStepFieldPermissions(ctx context.Context, workflowID, stepID string) ([]models.StepFieldPermission, error) {
	query := fmt.Sprintf(`
		SELECT workflow_id, step_id, field_key, role_type, visible, editable, required_override, allowed_roles
		FROM %s WHERE workflow_id = ? AND step_id = ? ORDER BY id ASC
	`, constants.TableStepFieldPermissions)

	rows, err := s.db.QueryContext(ctx, query, workflowID, stepID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query step field permissions", err)
	}
	defer rows.Close()

	var perms []models.StepFieldPermission
	for rows.Next() {
		var (
			p            models.StepFieldPermission
			roleType     sql.NullString
			required     sql.NullBool
			allowedRoles sql.NullString
		)
		if err := rows.Scan(&p.WorkflowID, &p.StepID, &p.FieldKey, &roleType, &p.Visible, &p.Editable, &required, &allowedRoles); err != nil {
			return nil, apperrors.NewInternalError("failed to scan step field permission", err)
		}
		if roleType.Valid && roleType.String != "" {
			if role, ok := roles.Normalize(roleType.String); ok {
				p.RoleType = role
			} else {
				log.Printf("⚠️ Permission row %s/%s/%s: unknown role_type %q, treating as unscoped", workflowID, stepID, p.FieldKey, roleType.String)
			}
		}
		if required.Valid {
			v := required.Bool
			p.RequiredOverride = &v
		}
		if allowedRoles.Valid && allowedRoles.String != "" {
			var names []string
			if err := json.Unmarshal([]byte(allowedRoles.String), &names); err != nil {
				log.Printf("⚠️ Permission row %s/%s/%s: corrupt allowed_roles, ignoring: %v", workflowID, stepID, p.FieldKey, err)
			} else {
				p.AllowedRoles = roles.NormalizeAll(names)
			}
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
