package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/infrastructure/database"
	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/constants"
)

// InitializeSchema creates the system tables if they do not exist. Safe to run
// on every startup.
func InitializeSchema(ctx context.Context, db *database.Connection) error {
	log.Println("🔧 Initializing system schema...")

	statements := []struct {
		table string
		ddl   string
	}{
		{constants.TableServices, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				service_key          VARCHAR(128) PRIMARY KEY,
				name                 VARCHAR(255) NOT NULL,
				workflow_definition  JSON,
				form_schema          JSON,
				created_date         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				modified_date        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
			)`, constants.TableServices)},

		{constants.TableRequests, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id              VARCHAR(36) PRIMARY KEY,
				service_key     VARCHAR(128) NOT NULL,
				requester_id    VARCHAR(36) NOT NULL,
				status          VARCHAR(32) NOT NULL,
				current_step_id VARCHAR(128),
				step_started_at DATETIME,
				step_deadline   DATETIME,
				sla_status      VARCHAR(16) NOT NULL DEFAULT 'on_track',
				priority        VARCHAR(16) NOT NULL DEFAULT 'medium',
				form_data       JSON,
				version         BIGINT NOT NULL DEFAULT 1,
				created_date    DATETIME NOT NULL,
				modified_date   DATETIME NOT NULL,
				INDEX idx_requests_sweep (status, step_deadline),
				INDEX idx_requests_requester (requester_id)
			)`, constants.TableRequests)},

		{constants.TableAuditEvents, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id           VARCHAR(36) PRIMARY KEY,
				request_id   VARCHAR(36) NOT NULL,
				event_type   VARCHAR(32) NOT NULL,
				action       VARCHAR(32),
				actor_id     VARCHAR(36),
				from_step_id VARCHAR(128),
				to_step_id   VARCHAR(128),
				comment      TEXT,
				detail       TEXT,
				created_at   DATETIME NOT NULL,
				INDEX idx_audit_request (request_id, created_at)
			)`, constants.TableAuditEvents)},

		{constants.TableWorkflowSLAs, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				workflow_id           VARCHAR(128) NOT NULL,
				step_id               VARCHAR(128) NOT NULL,
				duration_hours        DOUBLE NOT NULL,
				warning_threshold_pct DOUBLE NOT NULL DEFAULT 75,
				escalation_action     VARCHAR(128),
				PRIMARY KEY (workflow_id, step_id)
			)`, constants.TableWorkflowSLAs)},

		{constants.TableStepFieldPermissions, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id                BIGINT AUTO_INCREMENT PRIMARY KEY,
				workflow_id       VARCHAR(128) NOT NULL,
				step_id           VARCHAR(128) NOT NULL,
				field_key         VARCHAR(128) NOT NULL,
				role_type         VARCHAR(64),
				visible           BOOLEAN NOT NULL DEFAULT TRUE,
				editable          BOOLEAN NOT NULL DEFAULT TRUE,
				required_override BOOLEAN,
				allowed_roles     JSON,
				INDEX idx_perms_step (workflow_id, step_id)
			)`, constants.TableStepFieldPermissions)},
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt.ddl); err != nil {
			log.Printf("❌ Failed to create table %s: %v", stmt.table, err)
			return fmt.Errorf("create table %s: %w", stmt.table, err)
		}
	}

	log.Println("✅ System schema ready")
	return nil
}
