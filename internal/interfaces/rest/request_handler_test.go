package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/application/services"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/models"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/roles"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/interfaces/rest"
	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/constants"
	apperrors "github.com/alhafibarefoot/HelpDesk-sub002/pkg/errors"
)

// MockWorkflowService is a mock implementation of the WorkflowService
type MockWorkflowService struct {
	mock.Mock
}

func (m *MockWorkflowService) Submit(ctx context.Context, serviceKey string, formData map[string]interface{}, priority string, requester *models.UserSession) (*models.Request, error) {
	args := m.Called(ctx, serviceKey, formData, priority, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockWorkflowService) Apply(ctx context.Context, requestID, action, comment string, actor *models.UserSession) (*models.Request, error) {
	args := m.Called(ctx, requestID, action, comment, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockWorkflowService) Cancel(ctx context.Context, requestID, comment string, actor *models.UserSession) (*models.Request, error) {
	args := m.Called(ctx, requestID, comment, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockWorkflowService) SLAStatusFor(ctx context.Context, requestID string) (*services.SLAStatus, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SLAStatus), args.Error(1)
}

// MockFieldResolver is a mock implementation of the FieldResolver
type MockFieldResolver struct {
	mock.Mock
}

func (m *MockFieldResolver) ResolveForRequest(ctx context.Context, requestID string, caller *models.UserSession) ([]models.FormField, error) {
	args := m.Called(ctx, requestID, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FormField), args.Error(1)
}

// MockRequestStore is a mock implementation of ports.RequestStore, only the
// methods the handler reaches are given behaviour
type MockRequestStore struct {
	mock.Mock
}

func (m *MockRequestStore) ReadRequest(ctx context.Context, id string) (*models.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockRequestStore) CreateRequest(ctx context.Context, req *models.Request, event *models.AuditEvent) error {
	return m.Called(ctx, req, event).Error(0)
}

func (m *MockRequestStore) WriteRequestTransition(ctx context.Context, req *models.Request, expectedVersion int64, event *models.AuditEvent) error {
	return m.Called(ctx, req, expectedVersion, event).Error(0)
}

func (m *MockRequestStore) QueryOverdueRequests(ctx context.Context, now time.Time, limit int) ([]*models.Request, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Request), args.Error(1)
}

func (m *MockRequestStore) QueryWarningCandidates(ctx context.Context, now time.Time, limit int) ([]*models.Request, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Request), args.Error(1)
}

func (m *MockRequestStore) MarkBreached(ctx context.Context, requestID, stepID string, deadline time.Time, event *models.AuditEvent) (bool, error) {
	args := m.Called(ctx, requestID, stepID, deadline, event)
	return args.Bool(0), args.Error(1)
}

func (m *MockRequestStore) MarkAtRisk(ctx context.Context, requestID, stepID string, deadline time.Time) (bool, error) {
	args := m.Called(ctx, requestID, stepID, deadline)
	return args.Bool(0), args.Error(1)
}

func (m *MockRequestStore) ListAuditEvents(ctx context.Context, requestID string) ([]models.AuditEvent, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AuditEvent), args.Error(1)
}

const (
	reqID       = "3f2f6b1a-8f0e-4f6d-9f1b-2a7c5d8e9a01"
	closedReqID = "9d4b7c2e-1a3f-4e5d-8b6c-0f9e8d7c6b02"
)

func newTestContext(t *testing.T, user models.UserSession) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(constants.ContextKeyUser, user)
	return w, c
}

func TestRequestHandler_Submit(t *testing.T) {
	mockSvc := new(MockWorkflowService)
	handler := rest.NewRequestHandler(mockSvc, nil, nil)

	t.Run("Success", func(t *testing.T) {
		user := models.UserSession{ID: "user-1", Name: "Test User", Roles: []roles.Role{roles.Employee}}
		w, c := newTestContext(t, user)

		reqBody := rest.SubmitRequest{
			ServiceKey: "leave-request",
			FormData:   map[string]interface{}{"days": float64(3)},
			Priority:   "high",
		}
		jsonBytes, _ := json.Marshal(reqBody)
		c.Request = httptest.NewRequest("POST", "/api/requests", bytes.NewBuffer(jsonBytes))

		created := &models.Request{ID: reqID, ServiceKey: "leave-request", Status: constants.RequestStatusInProgress}
		mockSvc.On("Submit", mock.Anything, "leave-request", reqBody.FormData, "high", &user).Return(created, nil).Once()

		handler.Submit(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("Missing service key", func(t *testing.T) {
		user := models.UserSession{ID: "user-1"}
		w, c := newTestContext(t, user)

		c.Request = httptest.NewRequest("POST", "/api/requests", bytes.NewBufferString(`{"form_data":{}}`))

		handler.Submit(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Unknown service", func(t *testing.T) {
		user := models.UserSession{ID: "user-1"}
		w, c := newTestContext(t, user)

		c.Request = httptest.NewRequest("POST", "/api/requests", bytes.NewBufferString(`{"service_key":"ghost"}`))

		mockSvc.On("Submit", mock.Anything, "ghost", mock.Anything, "", &user).
			Return(nil, apperrors.NewNotFoundError("service", "ghost")).Once()

		handler.Submit(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestRequestHandler_Act(t *testing.T) {
	mockSvc := new(MockWorkflowService)
	handler := rest.NewRequestHandler(mockSvc, nil, nil)

	t.Run("Approve succeeds", func(t *testing.T) {
		user := models.UserSession{ID: "mgr-1", Roles: []roles.Role{roles.Manager}}
		w, c := newTestContext(t, user)

		c.Request = httptest.NewRequest("POST", "/api/requests/"+reqID+"/actions", bytes.NewBufferString(`{"action":"approve","comment":"ok"}`))
		c.Params = gin.Params{{Key: "id", Value: reqID}}

		updated := &models.Request{ID: reqID, Status: constants.RequestStatusCompleted}
		mockSvc.On("Apply", mock.Anything, reqID, "approve", "ok", &user).Return(updated, nil).Once()

		handler.Act(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("Authorization failure maps to 403", func(t *testing.T) {
		user := models.UserSession{ID: "emp-1", Roles: []roles.Role{roles.Employee}}
		w, c := newTestContext(t, user)

		c.Request = httptest.NewRequest("POST", "/api/requests/"+reqID+"/actions", bytes.NewBufferString(`{"action":"approve"}`))
		c.Params = gin.Params{{Key: "id", Value: reqID}}

		mockSvc.On("Apply", mock.Anything, reqID, "approve", "", &user).
			Return(nil, apperrors.NewAuthorizationError("approve", "request", "missing role manager")).Once()

		handler.Act(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("Version conflict maps to 409", func(t *testing.T) {
		user := models.UserSession{ID: "mgr-1", Roles: []roles.Role{roles.Manager}}
		w, c := newTestContext(t, user)

		c.Request = httptest.NewRequest("POST", "/api/requests/"+reqID+"/actions", bytes.NewBufferString(`{"action":"approve"}`))
		c.Params = gin.Params{{Key: "id", Value: reqID}}

		mockSvc.On("Apply", mock.Anything, reqID, "approve", "", &user).
			Return(nil, apperrors.NewConflictError("request", reqID)).Once()

		handler.Act(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("Malformed id maps to 400", func(t *testing.T) {
		user := models.UserSession{ID: "mgr-1", Roles: []roles.Role{roles.Manager}}
		w, c := newTestContext(t, user)

		c.Request = httptest.NewRequest("POST", "/api/requests/not-a-uuid/actions", bytes.NewBufferString(`{"action":"approve"}`))
		c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

		handler.Act(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Terminal request maps to 422 on invalid state", func(t *testing.T) {
		user := models.UserSession{ID: "mgr-1", Roles: []roles.Role{roles.Manager}}
		w, c := newTestContext(t, user)

		c.Request = httptest.NewRequest("POST", "/api/requests/"+closedReqID+"/actions", bytes.NewBufferString(`{"action":"approve"}`))
		c.Params = gin.Params{{Key: "id", Value: closedReqID}}

		mockSvc.On("Apply", mock.Anything, closedReqID, "approve", "", &user).
			Return(nil, apperrors.NewInvalidStateError(closedReqID, "review", "no outgoing route for action")).Once()

		handler.Act(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestRequestHandler_Get(t *testing.T) {
	mockStore := new(MockRequestStore)
	handler := rest.NewRequestHandler(nil, nil, mockStore)

	t.Run("Requester reads own request", func(t *testing.T) {
		user := models.UserSession{ID: "user-1"}
		w, c := newTestContext(t, user)

		c.Request = httptest.NewRequest("GET", "/api/requests/"+reqID, nil)
		c.Params = gin.Params{{Key: "id", Value: reqID}}

		mockStore.On("ReadRequest", mock.Anything, reqID).
			Return(&models.Request{ID: reqID, RequesterID: "user-1"}, nil).Once()

		handler.Get(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockStore.AssertExpectations(t)
	})

	t.Run("Stranger without roles is rejected", func(t *testing.T) {
		user := models.UserSession{ID: "other"}
		w, c := newTestContext(t, user)

		c.Request = httptest.NewRequest("GET", "/api/requests/"+reqID, nil)
		c.Params = gin.Params{{Key: "id", Value: reqID}}

		mockStore.On("ReadRequest", mock.Anything, reqID).
			Return(&models.Request{ID: reqID, RequesterID: "user-1"}, nil).Once()

		handler.Get(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		mockStore.AssertExpectations(t)
	})
}

func TestRequestHandler_History(t *testing.T) {
	mockStore := new(MockRequestStore)
	handler := rest.NewRequestHandler(nil, nil, mockStore)

	user := models.UserSession{ID: "user-1"}
	w, c := newTestContext(t, user)

	c.Request = httptest.NewRequest("GET", "/api/requests/"+reqID+"/history", nil)
	c.Params = gin.Params{{Key: "id", Value: reqID}}

	step := "review"
	mockStore.On("ReadRequest", mock.Anything, reqID).
		Return(&models.Request{ID: reqID, RequesterID: "user-1"}, nil).Once()
	mockStore.On("ListAuditEvents", mock.Anything, reqID).
		Return([]models.AuditEvent{
			{ID: "evt-1", RequestID: reqID, EventType: constants.AuditEventSubmitted, ToStepID: &step},
			{ID: "evt-2", RequestID: reqID, EventType: constants.AuditEventAction, Action: constants.ActionApprove},
		}, nil).Once()

	handler.History(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string][]models.AuditEvent
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body["history"], 2)
	mockStore.AssertExpectations(t)
}

func TestRequestHandler_Fields(t *testing.T) {
	mockFields := new(MockFieldResolver)
	handler := rest.NewRequestHandler(nil, mockFields, nil)

	user := models.UserSession{ID: "user-1", Roles: []roles.Role{roles.Employee}}
	w, c := newTestContext(t, user)

	c.Request = httptest.NewRequest("GET", "/api/requests/"+reqID+"/fields", nil)
	c.Params = gin.Params{{Key: "id", Value: reqID}}

	mockFields.On("ResolveForRequest", mock.Anything, reqID, &user).
		Return([]models.FormField{
			{Key: "days", Label: "Days", Type: "number", ReadOnly: true},
			{Key: "salary", Hidden: true},
		}, nil).Once()

	handler.Fields(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockFields.AssertExpectations(t)
}
