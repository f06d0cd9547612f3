package services

import (
	"context"
	"sync"
	"time"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/models"
	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/constants"
	apperrors "github.com/alhafibarefoot/HelpDesk-sub002/pkg/errors"
)

// fixedClock returns a controllable instant
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(t time.Time) *fixedClock {
	return &fixedClock{now: t}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeDefinitionSource serves raw definitions by service key
type fakeDefinitionSource struct {
	definitions map[string][]byte
}

func (f *fakeDefinitionSource) LoadWorkflowDefinition(_ context.Context, serviceKey string) ([]byte, error) {
	raw, ok := f.definitions[serviceKey]
	if !ok {
		return nil, apperrors.NewNotFoundError("workflow definition", serviceKey)
	}
	return raw, nil
}

// fakeRequestStore is an in-memory RequestStore with real version semantics
type fakeRequestStore struct {
	mu       sync.Mutex
	requests map[string]*models.Request
	events   []*models.AuditEvent
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{requests: make(map[string]*models.Request)}
}

func (f *fakeRequestStore) ReadRequest(_ context.Context, id string) (*models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("request", id)
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRequestStore) CreateRequest(_ context.Context, req *models.Request, event *models.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *req
	f.requests[req.ID] = &cp
	f.events = append(f.events, event)
	return nil
}

func (f *fakeRequestStore) WriteRequestTransition(_ context.Context, req *models.Request, expectedVersion int64, event *models.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.requests[req.ID]
	if !ok {
		return apperrors.NewNotFoundError("request", req.ID)
	}
	if current.Version != expectedVersion {
		return apperrors.NewConflictError("request", req.ID)
	}
	cp := *req
	f.requests[req.ID] = &cp
	f.events = append(f.events, event)
	return nil
}

func (f *fakeRequestStore) QueryOverdueRequests(_ context.Context, now time.Time, _ int) ([]*models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Request
	for _, req := range f.requests {
		if req.IsTerminal() || req.StepDeadline == nil || req.SLAStatus == constants.SLAStatusBreached {
			continue
		}
		if !now.Before(*req.StepDeadline) {
			cp := *req
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRequestStore) QueryWarningCandidates(_ context.Context, now time.Time, _ int) ([]*models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Request
	for _, req := range f.requests {
		if req.IsTerminal() || req.StepDeadline == nil || req.SLAStatus != constants.SLAStatusOnTrack {
			continue
		}
		if now.Before(*req.StepDeadline) {
			cp := *req
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRequestStore) MarkBreached(_ context.Context, requestID, stepID string, deadline time.Time, event *models.AuditEvent) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[requestID]
	if !ok || req.IsTerminal() || req.SLAStatus == constants.SLAStatusBreached {
		return false, nil
	}
	if !atObservedStep(req, stepID, deadline) {
		return false, nil
	}
	req.SLAStatus = constants.SLAStatusBreached
	f.events = append(f.events, event)
	return true, nil
}

func (f *fakeRequestStore) MarkAtRisk(_ context.Context, requestID, stepID string, deadline time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[requestID]
	if !ok || req.IsTerminal() || req.SLAStatus != constants.SLAStatusOnTrack {
		return false, nil
	}
	if !atObservedStep(req, stepID, deadline) {
		return false, nil
	}
	req.SLAStatus = constants.SLAStatusAtRisk
	return true, nil
}

// atObservedStep mirrors the store's claim guard: the request must still be
// at the step and deadline the sweep saw
func atObservedStep(req *models.Request, stepID string, deadline time.Time) bool {
	return req.CurrentStepID != nil && *req.CurrentStepID == stepID &&
		req.StepDeadline != nil && req.StepDeadline.Equal(deadline)
}

func (f *fakeRequestStore) ListAuditEvents(_ context.Context, requestID string) ([]models.AuditEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AuditEvent
	for _, e := range f.events {
		if e.RequestID == requestID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeRequestStore) eventsOfType(eventType string) []*models.AuditEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AuditEvent
	for _, e := range f.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fakeSLAStore serves WorkflowSLA rows by workflow/step
type fakeSLAStore struct {
	configs map[string]*models.WorkflowSLA // key: workflowID + "/" + stepID
	readErr error
}

func (f *fakeSLAStore) ReadSLAConfig(_ context.Context, workflowID, stepID string) (*models.WorkflowSLA, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.configs[workflowID+"/"+stepID], nil
}

// fakePermissionStore serves permission rows by workflow/step
type fakePermissionStore struct {
	perms map[string][]models.StepFieldPermission
}

func (f *fakePermissionStore) ReadStepFieldPermissions(_ context.Context, workflowID, stepID string) ([]models.StepFieldPermission, error) {
	return f.perms[workflowID+"/"+stepID], nil
}

// fakeSchemaSource serves form schemas by service key
type fakeSchemaSource struct {
	schemas map[string][]models.FormField
}

func (f *fakeSchemaSource) LoadFormSchema(_ context.Context, serviceKey string) ([]models.FormField, error) {
	return f.schemas[serviceKey], nil
}

// fakeNotifier records deliveries and can be made to fail for a recipient
type fakeNotifier struct {
	mu       sync.Mutex
	sent     []string // recipient + ": " + message
	failFor  map[string]error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failFor: make(map[string]error)}
}

func (f *fakeNotifier) Notify(_ context.Context, recipient, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[recipient]; ok {
		return err
	}
	f.sent = append(f.sent, recipient+": "+message)
	return nil
}

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
