package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/events"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/models"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/ports"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/roles"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/workflow"
	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/constants"
	apperrors "github.com/alhafibarefoot/HelpDesk-sub002/pkg/errors"
	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/utils"
)

// TransitionService is the request state machine. It is the only component
// that mutates a request's status, current step and deadline, and every
// mutation commits atomically with its audit event.
type TransitionService struct {
	requests    ports.RequestStore
	definitions *DefinitionService
	slaConfigs  ports.SLAConfigStore
	sla         *SLAService
	eventBus    ports.EventPublisher
	clock       ports.Clock
}

// NewTransitionService creates a new TransitionService
func NewTransitionService(
	requests ports.RequestStore,
	definitions *DefinitionService,
	slaConfigs ports.SLAConfigStore,
	sla *SLAService,
	eventBus ports.EventPublisher,
	clock ports.Clock,
) *TransitionService {
	return &TransitionService{
		requests:    requests,
		definitions: definitions,
		slaConfigs:  slaConfigs,
		sla:         sla,
		eventBus:    eventBus,
		clock:       clock,
	}
}

// Submit creates a request for a service. The request starts in 'new' status
// at the start node's immediate successor, with its SLA armed.
func (s *TransitionService) Submit(ctx context.Context, serviceKey string, formData map[string]interface{}, priority string, requester *models.UserSession) (*models.Request, error) {
	def, err := s.definitions.Definition(ctx, serviceKey)
	if err != nil {
		return nil, err
	}

	candidates := def.Successors(def.Start(), "", formData, s.definitions.Evaluator())
	if len(candidates) == 0 {
		return nil, apperrors.NewValidationError("workflow", fmt.Sprintf("workflow '%s' has no route out of its start node for this submission", def.WorkflowID))
	}
	firstStep := candidates[0]
	if def.IsTerminal(firstStep) {
		return nil, apperrors.NewValidationError("workflow", fmt.Sprintf("workflow '%s' routes submissions directly to a terminal node", def.WorkflowID))
	}

	now := s.clock.Now()
	if priority == "" {
		priority = constants.PriorityMedium
	}

	req := &models.Request{
		ID:           utils.GenerateID(),
		ServiceKey:   serviceKey,
		RequesterID:  requester.ID,
		Status:       constants.RequestStatusNew,
		SLAStatus:    constants.SLAStatusOnTrack,
		Priority:     priority,
		FormData:     formData,
		Version:      1,
		CreatedDate:  now,
		ModifiedDate: now,
	}
	if err := s.armStep(ctx, req, def.WorkflowID, firstStep, now); err != nil {
		return nil, err
	}

	event := &models.AuditEvent{
		ID:        utils.GenerateID(),
		RequestID: req.ID,
		EventType: constants.AuditEventSubmitted,
		ActorID:   requester.ID,
		ToStepID:  req.CurrentStepID,
		CreatedAt: now,
	}

	if err := s.requests.CreateRequest(ctx, req, event); err != nil {
		return nil, err
	}

	s.publish(events.RequestSubmitted, RequestEventPayload{
		Request:   req,
		ToStep:    req.CurrentStepID,
		NextRole:  s.stepRole(def, firstStep),
		Actor:     requester,
		Timestamp: now,
	})

	log.Printf("📨 Request %s submitted for service %s at step %s", req.ID, serviceKey, firstStep)
	return req, nil
}

// Apply advances a request with the given action. The full transition
// (authorization, routing, deadline re-arm and audit) either commits as one
// unit or leaves the request untouched.
func (s *TransitionService) Apply(ctx context.Context, requestID, action, comment string, actor *models.UserSession) (*models.Request, error) {
	req, err := s.requests.ReadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.IsTerminal() {
		return nil, apperrors.NewAuthorizationError(action, requestID, fmt.Sprintf("request is already %s", req.Status))
	}
	if req.CurrentStepID == nil {
		// Non-terminal without a step violates the data model
		err := apperrors.NewInvalidStateError(requestID, "", "non-terminal request has no current step")
		log.Printf("🛑 Data integrity: %v", err)
		return nil, err
	}

	def, err := s.definitions.Definition(ctx, req.ServiceKey)
	if err != nil {
		return nil, err
	}

	node, ok := def.FindNode(*req.CurrentStepID)
	if !ok {
		err := apperrors.NewInvalidStateError(requestID, *req.CurrentStepID, "current step not present in workflow definition")
		log.Printf("🛑 Data integrity: %v", err)
		return nil, err
	}
	requiredRole, allowedActions, actionable := workflow.ActionableNode(node)
	if !actionable {
		err := apperrors.NewInvalidStateError(requestID, *req.CurrentStepID, fmt.Sprintf("node of type '%s' accepts no actions", node.Kind()))
		log.Printf("🛑 Data integrity: %v", err)
		return nil, err
	}

	// Authorization is enforced here regardless of any UI gating: the UI is
	// an untrusted client. System admins bypass the role and action checks.
	if !actor.IsSystemAdmin() {
		if !roles.Contains(actor.Roles, requiredRole) {
			return nil, apperrors.NewAuthorizationError(action, requestID, fmt.Sprintf("step requires role '%s'", requiredRole))
		}
		if !containsString(allowedActions, action) {
			return nil, apperrors.NewAuthorizationError(action, requestID, fmt.Sprintf("action not allowed at step '%s'", *req.CurrentStepID))
		}
	}

	candidates := def.Successors(*req.CurrentStepID, action, req.FormData, s.definitions.Evaluator())
	if len(candidates) == 0 {
		err := apperrors.NewInvalidStateError(requestID, *req.CurrentStepID, fmt.Sprintf("no route for action '%s'", action))
		log.Printf("🛑 Data integrity: %v", err)
		return nil, err
	}
	nextStep := candidates[0]

	now := s.clock.Now()
	fromStep := req.CurrentStepID
	expectedVersion := req.Version

	updated := *req
	updated.ModifiedDate = now
	updated.Version = expectedVersion + 1

	var nextRole string
	if def.IsTerminal(nextStep) {
		updated.Status = terminalStatusFor(action)
		updated.CurrentStepID = nil
		updated.StepStartedAt = nil
		updated.StepDeadline = nil
	} else {
		updated.Status = constants.RequestStatusInProgress
		if err := s.armStep(ctx, &updated, def.WorkflowID, nextStep, now); err != nil {
			return nil, err
		}
		nextRole = s.stepRole(def, nextStep)
	}

	event := &models.AuditEvent{
		ID:         utils.GenerateID(),
		RequestID:  req.ID,
		EventType:  constants.AuditEventAction,
		Action:     action,
		ActorID:    actor.ID,
		FromStepID: fromStep,
		ToStepID:   updated.CurrentStepID,
		Comment:    comment,
		CreatedAt:  now,
	}
	if def.IsTerminal(nextStep) {
		target := nextStep
		event.ToStepID = &target
	}

	if err := s.requests.WriteRequestTransition(ctx, &updated, expectedVersion, event); err != nil {
		return nil, err
	}

	s.publish(events.RequestTransitioned, RequestEventPayload{
		Request:   &updated,
		Action:    action,
		FromStep:  fromStep,
		ToStep:    event.ToStepID,
		NextRole:  nextRole,
		Actor:     actor,
		Timestamp: now,
	})

	log.Printf("🔄 Request %s: %s by %s (%s → %s)", req.ID, action, actor.ID, *fromStep, nextStep)
	return &updated, nil
}

// Cancel terminates a non-terminal request. Only the requester or a system
// admin may cancel.
func (s *TransitionService) Cancel(ctx context.Context, requestID, comment string, actor *models.UserSession) (*models.Request, error) {
	req, err := s.requests.ReadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.IsTerminal() {
		return nil, apperrors.NewAuthorizationError(constants.ActionCancel, requestID, fmt.Sprintf("request is already %s", req.Status))
	}
	if actor.ID != req.RequesterID && !actor.IsSystemAdmin() {
		return nil, apperrors.NewAuthorizationError(constants.ActionCancel, requestID, "only the requester or an administrator may cancel")
	}

	now := s.clock.Now()
	fromStep := req.CurrentStepID
	expectedVersion := req.Version

	updated := *req
	updated.Status = constants.RequestStatusCancelled
	updated.CurrentStepID = nil
	updated.StepStartedAt = nil
	updated.StepDeadline = nil
	updated.ModifiedDate = now
	updated.Version = expectedVersion + 1

	event := &models.AuditEvent{
		ID:         utils.GenerateID(),
		RequestID:  req.ID,
		EventType:  constants.AuditEventCancelled,
		Action:     constants.ActionCancel,
		ActorID:    actor.ID,
		FromStepID: fromStep,
		Comment:    comment,
		CreatedAt:  now,
	}

	if err := s.requests.WriteRequestTransition(ctx, &updated, expectedVersion, event); err != nil {
		return nil, err
	}

	log.Printf("🚫 Request %s cancelled by %s", req.ID, actor.ID)
	return &updated, nil
}

// SLAStatusFor computes the live SLA position of a request's current step
func (s *TransitionService) SLAStatusFor(ctx context.Context, requestID string) (*SLAStatus, error) {
	req, err := s.requests.ReadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CurrentStepID == nil || req.StepStartedAt == nil {
		return nil, apperrors.NewValidationError("request", "request has no active step deadline")
	}

	def, err := s.definitions.Definition(ctx, req.ServiceKey)
	if err != nil {
		return nil, err
	}
	cfg, err := s.slaConfigs.ReadSLAConfig(ctx, def.WorkflowID, *req.CurrentStepID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, apperrors.NewValidationError("request", "current step has no SLA configuration")
	}

	st := s.sla.ComputeStatus(*req.StepStartedAt, cfg.DurationHours, cfg.WarningThresholdPct, s.clock.Now())
	st.Label = s.sla.StatusLabel(st)
	return &st, nil
}

// armStep points the request at a step and arms its deadline from the step's
// SLA configuration. A step without configuration gets no deadline and is
// exempt from breach detection. A failed configuration read fails the whole
// transition: committing without a deadline would silently exempt the step.
func (s *TransitionService) armStep(ctx context.Context, req *models.Request, workflowID, stepID string, now time.Time) error {
	step := stepID
	req.CurrentStepID = &step
	req.StepStartedAt = &now
	req.StepDeadline = nil
	req.SLAStatus = constants.SLAStatusOnTrack

	cfg, err := s.slaConfigs.ReadSLAConfig(ctx, workflowID, stepID)
	if err != nil {
		log.Printf("⚠️ Failed to read SLA config for %s/%s: %v", workflowID, stepID, err)
		return fmt.Errorf("read SLA config for %s/%s: %w", workflowID, stepID, err)
	}
	if cfg == nil {
		return nil
	}
	deadline := s.sla.DeadlineFor(now, cfg.DurationHours)
	req.StepDeadline = &deadline
	return nil
}

func (s *TransitionService) stepRole(def *workflow.Definition, stepID string) string {
	node, ok := def.FindNode(stepID)
	if !ok {
		return ""
	}
	role, _, actionable := workflow.ActionableNode(node)
	if !actionable {
		return ""
	}
	return string(role)
}

func (s *TransitionService) publish(eventType events.EventType, payload RequestEventPayload) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.PublishAsync(eventType, payload)
}

// terminalStatusFor maps the taken action onto the terminal request status
func terminalStatusFor(action string) string {
	switch action {
	case constants.ActionReject, constants.ActionSendBack:
		return constants.RequestStatusRejected
	default:
		return constants.RequestStatusCompleted
	}
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
