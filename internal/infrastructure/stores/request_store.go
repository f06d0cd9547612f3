package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/models"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/ports"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/infrastructure/database"
	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/constants"
	apperrors "github.com/alhafibarefoot/HelpDesk-sub002/pkg/errors"
)

const requestColumns = `id, service_key, requester_id, status, current_step_id, step_started_at, step_deadline, sla_status, priority, form_data, version, created_date, modified_date`

// RequestStore is the MySQL implementation of ports.RequestStore. All
// state-changing writes pair the request row with its audit event in one
// transaction; the audit table is append-only and the sole history.
type RequestStore struct {
	db *database.Connection
}

// Ensure RequestStore implements the port at compile time
var _ ports.RequestStore = (*RequestStore)(nil)

// NewRequestStore creates a new RequestStore
func NewRequestStore(db *database.Connection) *RequestStore {
	return &RequestStore{db: db}
}

// ReadRequest returns the request including its concurrency version
func (s *RequestStore) ReadRequest(ctx context.Context, id string) (*models.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, requestColumns, constants.TableRequests)

	row := s.db.QueryRowContext(ctx, query, id)
	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("request", id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read request", err)
	}
	return req, nil
}

// CreateRequest inserts a new request with its first audit event atomically
func (s *RequestStore) CreateRequest(ctx context.Context, req *models.Request, event *models.AuditEvent) error {
	formData, err := marshalFormData(req.FormData)
	if err != nil {
		return apperrors.NewInternalError("failed to encode form data", err)
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer rollback(tx)

	insert := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, constants.TableRequests, requestColumns)

	_, err = tx.ExecContext(ctx, insert,
		req.ID, req.ServiceKey, req.RequesterID, req.Status,
		req.CurrentStepID, req.StepStartedAt, req.StepDeadline,
		req.SLAStatus, req.Priority, formData, req.Version,
		req.CreatedDate, req.ModifiedDate,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to insert request", err)
	}

	if err := insertAuditEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit request creation", err)
	}
	return nil
}

// WriteRequestTransition applies the new request state and appends the audit
// event in one transaction. A version mismatch means a concurrent transition
// won; nothing is written and the caller gets a ConflictError.
func (s *RequestStore) WriteRequestTransition(ctx context.Context, req *models.Request, expectedVersion int64, event *models.AuditEvent) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer rollback(tx)

	update := fmt.Sprintf(`
		UPDATE %s
		SET status = ?, current_step_id = ?, step_started_at = ?, step_deadline = ?,
		    sla_status = ?, version = ?, modified_date = ?
		WHERE id = ? AND version = ?
	`, constants.TableRequests)

	result, err := tx.ExecContext(ctx, update,
		req.Status, req.CurrentStepID, req.StepStartedAt, req.StepDeadline,
		req.SLAStatus, req.Version, req.ModifiedDate,
		req.ID, expectedVersion,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to update request", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to read affected rows", err)
	}
	if affected == 0 {
		return apperrors.NewConflictError("request", req.ID)
	}

	if err := insertAuditEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit transition", err)
	}
	return nil
}

// QueryOverdueRequests returns non-terminal requests past their deadline that
// are not yet marked breached
func (s *RequestStore) QueryOverdueRequests(ctx context.Context, now time.Time, limit int) ([]*models.Request, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE status IN (?, ?)
		  AND step_deadline IS NOT NULL
		  AND step_deadline <= ?
		  AND sla_status <> ?
		ORDER BY step_deadline ASC
		LIMIT ?
	`, requestColumns, constants.TableRequests)

	return s.queryRequests(ctx, query,
		constants.RequestStatusNew, constants.RequestStatusInProgress,
		now, constants.SLAStatusBreached, limit)
}

// QueryWarningCandidates returns non-terminal on_track requests with a future
// deadline
func (s *RequestStore) QueryWarningCandidates(ctx context.Context, now time.Time, limit int) ([]*models.Request, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE status IN (?, ?)
		  AND step_deadline IS NOT NULL
		  AND step_deadline > ?
		  AND sla_status = ?
		ORDER BY step_deadline ASC
		LIMIT ?
	`, requestColumns, constants.TableRequests)

	return s.queryRequests(ctx, query,
		constants.RequestStatusNew, constants.RequestStatusInProgress,
		now, constants.SLAStatusOnTrack, limit)
}

// MarkBreached atomically claims the breach transition and appends the
// sla_breach audit event. The WHERE clause pins the claim to the step and
// deadline the sweep observed: a transition that re-armed the request after
// the scan leaves zero rows, and the stale claim is dropped.
func (s *RequestStore) MarkBreached(ctx context.Context, requestID, stepID string, deadline time.Time, event *models.AuditEvent) (bool, error) {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return false, apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer rollback(tx)

	update := fmt.Sprintf(`
		UPDATE %s
		SET sla_status = ?, modified_date = ?
		WHERE id = ? AND sla_status <> ? AND status IN (?, ?)
		  AND current_step_id = ? AND step_deadline = ?
	`, constants.TableRequests)

	result, err := tx.ExecContext(ctx, update,
		constants.SLAStatusBreached, event.CreatedAt,
		requestID, constants.SLAStatusBreached,
		constants.RequestStatusNew, constants.RequestStatusInProgress,
		stepID, deadline,
	)
	if err != nil {
		return false, apperrors.NewInternalError("failed to mark breach", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewInternalError("failed to read affected rows", err)
	}
	if affected == 0 {
		return false, nil
	}

	if err := insertAuditEvent(ctx, tx, event); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, apperrors.NewInternalError("failed to commit breach marking", err)
	}
	return true, nil
}

// MarkAtRisk flips sla_status from on_track to at_risk, pinned to the
// observed step and deadline like MarkBreached
func (s *RequestStore) MarkAtRisk(ctx context.Context, requestID, stepID string, deadline time.Time) (bool, error) {
	update := fmt.Sprintf(`
		UPDATE %s
		SET sla_status = ?
		WHERE id = ? AND sla_status = ? AND status IN (?, ?)
		  AND current_step_id = ? AND step_deadline = ?
	`, constants.TableRequests)

	result, err := s.db.ExecContext(ctx, update,
		constants.SLAStatusAtRisk, requestID, constants.SLAStatusOnTrack,
		constants.RequestStatusNew, constants.RequestStatusInProgress,
		stepID, deadline,
	)
	if err != nil {
		return false, apperrors.NewInternalError("failed to mark at risk", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewInternalError("failed to read affected rows", err)
	}
	return affected > 0, nil
}

// ListAuditEvents returns the append-only history of a request, oldest first
func (s *RequestStore) ListAuditEvents(ctx context.Context, requestID string) ([]models.AuditEvent, error) {
	query := fmt.Sprintf(`
		SELECT id, request_id, event_type, action, actor_id, from_step_id, to_step_id, comment, detail, created_at
		FROM %s WHERE request_id = ? ORDER BY created_at ASC, id ASC
	`, constants.TableAuditEvents)

	rows, err := s.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query audit events", err)
	}
	defer rows.Close()

	var events []models.AuditEvent
	for rows.Next() {
		var (
			e        models.AuditEvent
			action   sql.NullString
			actor    sql.NullString
			fromStep sql.NullString
			toStep   sql.NullString
			comment  sql.NullString
			detail   sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &e.EventType, &action, &actor, &fromStep, &toStep, &comment, &detail, &e.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan audit event", err)
		}
		e.Action = action.String
		e.ActorID = actor.String
		e.Comment = comment.String
		e.Detail = detail.String
		if fromStep.Valid {
			v := fromStep.String
			e.FromStepID = &v
		}
		if toStep.Valid {
			v := toStep.String
			e.ToStepID = &v
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// helpers

func (s *RequestStore) queryRequests(ctx context.Context, query string, args ...interface{}) ([]*models.Request, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query requests", err)
	}
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan request", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var (
		req           models.Request
		currentStepID sql.NullString
		stepStartedAt sql.NullTime
		stepDeadline  sql.NullTime
		formData      sql.NullString
	)

	err := row.Scan(
		&req.ID, &req.ServiceKey, &req.RequesterID, &req.Status,
		&currentStepID, &stepStartedAt, &stepDeadline,
		&req.SLAStatus, &req.Priority, &formData, &req.Version,
		&req.CreatedDate, &req.ModifiedDate,
	)
	if err != nil {
		return nil, err
	}

	if currentStepID.Valid {
		v := currentStepID.String
		req.CurrentStepID = &v
	}
	if stepStartedAt.Valid {
		v := stepStartedAt.Time
		req.StepStartedAt = &v
	}
	if stepDeadline.Valid {
		v := stepDeadline.Time
		req.StepDeadline = &v
	}
	if formData.Valid && formData.String != "" {
		if err := json.Unmarshal([]byte(formData.String), &req.FormData); err != nil {
			log.Printf("⚠️ Request %s: corrupt form_data, ignoring: %v", req.ID, err)
		}
	}
	return &req, nil
}

func marshalFormData(formData map[string]interface{}) (interface{}, error) {
	if formData == nil {
		return nil, nil
	}
	b, err := json.Marshal(formData)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func insertAuditEvent(ctx context.Context, tx *sql.Tx, event *models.AuditEvent) error {
	insert := fmt.Sprintf(`
		INSERT INTO %s (id, request_id, event_type, action, actor_id, from_step_id, to_step_id, comment, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, constants.TableAuditEvents)

	_, err := tx.ExecContext(ctx, insert,
		event.ID, event.RequestID, event.EventType, event.Action, event.ActorID,
		event.FromStepID, event.ToStepID, event.Comment, event.Detail, event.CreatedAt,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to append audit event", err)
	}
	return nil
}

func rollback(tx *sql.Tx) {
	// Rollback after Commit is a no-op error; safe to ignore
	_ = tx.Rollback()
}
