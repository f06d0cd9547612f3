package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/models"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/ports"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/infrastructure/database"
	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/constants"
	apperrors "github.com/alhafibarefoot/HelpDesk-sub002/pkg/errors"
)

// ServicesStore reads the service catalog: each row owns the workflow
// definition JSON and the form schema for one service key.
type ServicesStore struct {
	db *database.Connection
}

var (
	_ ports.DefinitionSource = (*ServicesStore)(nil)
	_ ports.FormSchemaSource = (*ServicesStore)(nil)
)

// NewServicesStore creates a new ServicesStore
func NewServicesStore(db *database.Connection) *ServicesStore {
	return &ServicesStore{db: db}
}

// LoadWorkflowDefinition returns the raw workflow definition JSON for a service
func (s *ServicesStore) LoadWorkflowDefinition(ctx context.Context, serviceKey string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT workflow_definition FROM %s WHERE service_key = ?`, constants.TableServices)

	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, query, serviceKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("service", serviceKey)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load workflow definition", err)
	}
	if !raw.Valid || raw.String == "" {
		return nil, apperrors.NewValidationError("workflow_definition", fmt.Sprintf("service %s has no workflow definition", serviceKey))
	}
	return []byte(raw.String), nil
}

// LoadFormSchema returns the service's form field schema
func (s *ServicesStore) LoadFormSchema(ctx context.Context, serviceKey string) ([]models.FormField, error) {
	query := fmt.Sprintf(`SELECT form_schema FROM %s WHERE service_key = ?`, constants.TableServices)

	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, query, serviceKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("service", serviceKey)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load form schema", err)
	}
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}

	var fields []models.FormField
	if err := json.Unmarshal([]byte(raw.String), &fields); err != nil {
		return nil, apperrors.NewInternalError("corrupt form schema for "+serviceKey, err)
	}
	return fields, nil
}
