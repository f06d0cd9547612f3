package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/config"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/events"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/models"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/ports"
	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/constants"
	apperrors "github.com/alhafibarefoot/HelpDesk-sub002/pkg/errors"
	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/utils"
)

// SweepResult summarizes one escalation sweep pass
type SweepResult struct {
	Scanned   int
	Breached  int
	Escalated int
	AtRisk    int
	Errors    []error
}

// EscalationService runs the periodic SLA sweep: it flags newly breached
// requests, fires their configured escalation actions and promotes requests
// past their warning threshold to at_risk. Each request is processed
// independently; one failure never aborts the pass.
type EscalationService struct {
	requests    ports.RequestStore
	definitions *DefinitionService
	slaConfigs  ports.SLAConfigStore
	sla         *SLAService
	notifier    ports.Notifier
	eventBus    ports.EventPublisher
	clock       ports.Clock
	cfg         config.Config

	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	stopped  bool // Prevents double-close of stopChan
}

// NewEscalationService creates a new EscalationService
func NewEscalationService(
	requests ports.RequestStore,
	definitions *DefinitionService,
	slaConfigs ports.SLAConfigStore,
	sla *SLAService,
	notifier ports.Notifier,
	eventBus ports.EventPublisher,
	clock ports.Clock,
	cfg config.Config,
) *EscalationService {
	return &EscalationService{
		requests:    requests,
		definitions: definitions,
		slaConfigs:  slaConfigs,
		sla:         sla,
		notifier:    notifier,
		eventBus:    eventBus,
		clock:       clock,
		cfg:         cfg,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the sweep background loop. Sweeps run on the configured cron
// schedule; the loop wakes periodically to check whether one is due.
func (s *EscalationService) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	schedule, err := parseSweepSchedule(s.cfg.SweepSchedule)
	if err != nil {
		log.Printf("⚠️ Invalid sweep schedule %q, falling back to default: %v", s.cfg.SweepSchedule, err)
		schedule, _ = parseSweepSchedule(constants.SweepDefaultSchedule)
	}

	log.Println("⏰ Escalation sweep loop starting...")

	ticker := time.NewTicker(time.Duration(s.cfg.SweepCheckIntervalSecs) * time.Second)
	defer ticker.Stop()

	// Run immediately on start, then follow the schedule
	s.runGuardedSweep()
	nextRun := schedule.Next(s.clock.Now())

	for {
		select {
		case <-ticker.C:
			if s.clock.Now().Before(nextRun) {
				continue
			}
			s.runGuardedSweep()
			nextRun = schedule.Next(s.clock.Now())
		case <-s.stopChan:
			log.Println("⏰ Escalation sweep loop stopping...")
			s.wg.Wait()
			log.Println("⏰ Escalation sweep loop stopped")
			return
		}
	}
}

// Stop gracefully stops the sweep loop
func (s *EscalationService) Stop() {
	s.mu.Lock()
	if !s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.stopped = true
	s.mu.Unlock()

	close(s.stopChan)
}

// runGuardedSweep executes one sweep with timeout and panic protection
func (s *EscalationService) runGuardedSweep() {
	s.wg.Add(1)
	defer s.wg.Done()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("🔥 Panic in escalation sweep: %v", r)
		}
	}()

	timeout := time.Duration(constants.SweepMaxRuntimeMins) * time.Minute
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	result := s.RunSweep(ctx, s.clock.Now())
	duration := time.Since(start)

	if len(result.Errors) > 0 {
		log.Printf("⚠️ Sweep finished in %v: %d scanned, %d breached, %d escalated, %d at risk, %d errors",
			duration, result.Scanned, result.Breached, result.Escalated, result.AtRisk, len(result.Errors))
		for _, err := range result.Errors {
			log.Printf("   ❌ %v", err)
		}
		return
	}
	log.Printf("✅ Sweep finished in %v: %d scanned, %d breached, %d escalated, %d at risk",
		duration, result.Scanned, result.Breached, result.Escalated, result.AtRisk)
}

// RunSweep executes one idempotent sweep pass at the given instant. Running
// it twice in immediate succession escalates each newly breached request
// exactly once: the second pass finds nothing to claim.
func (s *EscalationService) RunSweep(ctx context.Context, now time.Time) SweepResult {
	var result SweepResult

	overdue, err := s.requests.QueryOverdueRequests(ctx, now, s.cfg.SweepBatchLimit)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("query overdue requests: %w", err))
		return result
	}
	result.Scanned = len(overdue)

	for _, req := range overdue {
		if err := s.escalateRequest(ctx, req, now, &result); err != nil {
			result.Errors = append(result.Errors, err)
		}
	}

	s.markWarnings(ctx, now, &result)
	return result
}

// escalateRequest marks one overdue request breached and fires its configured
// escalation action.
func (s *EscalationService) escalateRequest(ctx context.Context, req *models.Request, now time.Time, result *SweepResult) error {
	if req.CurrentStepID == nil || req.StepDeadline == nil {
		// The overdue query only returns stepped requests with deadlines;
		// hitting this means request/definition drift.
		return apperrors.NewInvalidStateError(req.ID, "", "overdue request has no step or deadline")
	}

	def, err := s.definitions.Definition(ctx, req.ServiceKey)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.ID, err)
	}

	cfg, err := s.slaConfigs.ReadSLAConfig(ctx, def.WorkflowID, *req.CurrentStepID)
	if err != nil {
		return fmt.Errorf("request %s: read SLA config: %w", req.ID, err)
	}

	escalation := ""
	if cfg != nil {
		escalation = cfg.EscalationAction
	}

	event := &models.AuditEvent{
		ID:         utils.GenerateID(),
		RequestID:  req.ID,
		EventType:  constants.AuditEventSLABreach,
		FromStepID: req.CurrentStepID,
		Detail:     fmt.Sprintf("deadline %s passed; escalation_action=%s", req.StepDeadline.UTC().Format(time.RFC3339), escalation),
		CreatedAt:  now,
	}

	claimed, err := s.requests.MarkBreached(ctx, req.ID, *req.CurrentStepID, *req.StepDeadline, event)
	if err != nil {
		return fmt.Errorf("request %s: mark breached: %w", req.ID, err)
	}
	if !claimed {
		// Another pass or a concurrent transition got there first
		return nil
	}
	result.Breached++

	if s.eventBus != nil {
		s.eventBus.PublishAsync(events.RequestSLABreached, RequestEventPayload{
			Request:   req,
			FromStep:  req.CurrentStepID,
			Timestamp: now,
		})
	}

	// No SLA row (or no action configured) is a silent no-op, not an error
	if escalation == "" {
		return nil
	}

	message := fmt.Sprintf("SLA breached for request %s at step '%s' (deadline %s)",
		req.ID, *req.CurrentStepID, req.StepDeadline.UTC().Format(time.RFC3339))
	if err := s.notifier.Notify(ctx, escalation, message); err != nil {
		return apperrors.NewEscalationDeliveryError(req.ID, escalation, err)
	}
	result.Escalated++

	log.Printf("🚨 Request %s breached SLA at step %s, escalated via '%s'", req.ID, *req.CurrentStepID, escalation)
	return nil
}

// markWarnings promotes on_track requests past their warning threshold to
// at_risk. No notification or audit event is produced; at_risk is advisory.
func (s *EscalationService) markWarnings(ctx context.Context, now time.Time, result *SweepResult) {
	candidates, err := s.requests.QueryWarningCandidates(ctx, now, s.cfg.SweepBatchLimit)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("query warning candidates: %w", err))
		return
	}

	for _, req := range candidates {
		if req.CurrentStepID == nil || req.StepStartedAt == nil || req.StepDeadline == nil {
			continue
		}

		def, err := s.definitions.Definition(ctx, req.ServiceKey)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("request %s: %w", req.ID, err))
			continue
		}
		cfg, err := s.slaConfigs.ReadSLAConfig(ctx, def.WorkflowID, *req.CurrentStepID)
		if err != nil || cfg == nil {
			continue
		}

		st := s.sla.ComputeStatus(*req.StepStartedAt, cfg.DurationHours, cfg.WarningThresholdPct, now)
		if s.sla.StatusLabel(st) != constants.SLAStatusAtRisk {
			continue
		}
		flipped, err := s.requests.MarkAtRisk(ctx, req.ID, *req.CurrentStepID, *req.StepDeadline)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("request %s: mark at risk: %w", req.ID, err))
			continue
		}
		if flipped {
			result.AtRisk++
		}
	}
}

func parseSweepSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(expr)
}
