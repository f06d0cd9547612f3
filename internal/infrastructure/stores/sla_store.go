package stores

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/models"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/ports"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/infrastructure/database"
	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/constants"
	apperrors "github.com/alhafibarefoot/HelpDesk-sub002/pkg/errors"
)

// SLAStore reads per-step SLA configuration rows
type SLAStore struct {
	db *database.Connection
}

var _ ports.SLAConfigStore = (*SLAStore)(nil)

// NewSLAStore creates a new SLAStore
func NewSLAStore(db *database.Connection) *SLAStore {
	return &SLAStore{db: db}
}

// ReadSLAConfig returns (nil, nil) when the step has no SLA configured
func (s *SLAStore) ReadSLAConfig(ctx context.Context, workflowID, stepID string) (*models.WorkflowSLA, error) {
	query := fmt.Sprintf(`
		SELECT workflow_id, step_id, duration_hours, warning_threshold_pct, escalation_action
		FROM %s WHERE workflow_id = ? AND step_id = ?
	`, constants.TableWorkflowSLAs)

	var (
		cfg        models.WorkflowSLA
		escalation sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, workflowID, stepID).Scan(
		&cfg.WorkflowID, &cfg.StepID, &cfg.DurationHours,
		&cfg.WarningThresholdPct, &escalation,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read SLA config", err)
	}
	cfg.EscalationAction = escalation.String
	return &cfg, nil
}
