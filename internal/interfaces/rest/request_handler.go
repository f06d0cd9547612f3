package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/application/services"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/models"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/ports"
	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/constants"
	apperrors "github.com/alhafibarefoot/HelpDesk-sub002/pkg/errors"
	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/utils"
)

// WorkflowService defines the workflow operations the handler needs
type WorkflowService interface {
	Submit(ctx context.Context, serviceKey string, formData map[string]interface{}, priority string, requester *models.UserSession) (*models.Request, error)
	Apply(ctx context.Context, requestID, action, comment string, actor *models.UserSession) (*models.Request, error)
	Cancel(ctx context.Context, requestID, comment string, actor *models.UserSession) (*models.Request, error)
	SLAStatusFor(ctx context.Context, requestID string) (*services.SLAStatus, error)
}

// FieldResolver resolves the effective form field view for a caller
type FieldResolver interface {
	ResolveForRequest(ctx context.Context, requestID string, caller *models.UserSession) ([]models.FormField, error)
}

// RequestHandler handles request lifecycle API endpoints
type RequestHandler struct {
	workflow WorkflowService
	fields   FieldResolver
	store    ports.RequestStore
}

// NewRequestHandler creates a new RequestHandler
func NewRequestHandler(workflow WorkflowService, fields FieldResolver, store ports.RequestStore) *RequestHandler {
	return &RequestHandler{workflow: workflow, fields: fields, store: store}
}

// SubmitRequest is the payload for creating a new request
type SubmitRequest struct {
	ServiceKey string                 `json:"service_key" binding:"required"`
	FormData   map[string]interface{} `json:"form_data"`
	Priority   string                 `json:"priority"`
}

// ActionRequest is the payload for acting on a pending step
type ActionRequest struct {
	Action  string `json:"action" binding:"required"`
	Comment string `json:"comment"`
}

// CancelRequest is the payload for withdrawing a request
type CancelRequest struct {
	Comment string `json:"comment"`
}

// requestID validates the :id path parameter before it reaches a store query
func requestID(c *gin.Context) (string, error) {
	id := c.Param("id")
	if !utils.IsValidUUID(id) {
		return "", apperrors.NewValidationError("id", "malformed request id")
	}
	return id, nil
}

// RegisterRoutes wires the request endpoints onto an authenticated group
func (h *RequestHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/requests", h.Submit)
	rg.GET("/requests/:id", h.Get)
	rg.POST("/requests/:id/actions", h.Act)
	rg.POST("/requests/:id/cancel", h.Cancel)
	rg.GET("/requests/:id/fields", h.Fields)
	rg.GET("/requests/:id/sla", h.SLA)
	rg.GET("/requests/:id/history", h.History)
}

// Submit handles POST /api/requests
func (h *RequestHandler) Submit(c *gin.Context) {
	user := GetUserFromContext(c)

	var req SubmitRequest
	if !BindJSON(c, &req) {
		return
	}

	created, err := h.workflow.Submit(c.Request.Context(), req.ServiceKey, req.FormData, req.Priority, user)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{constants.ResponseData: created})
}

// Get handles GET /api/requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	user := GetUserFromContext(c)

	request, err := h.readVisible(c, user)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	RespondData(c, constants.ResponseData, request)
}

// Act handles POST /api/requests/:id/actions
func (h *RequestHandler) Act(c *gin.Context) {
	user := GetUserFromContext(c)

	id, err := requestID(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	var req ActionRequest
	if !BindJSON(c, &req) {
		return
	}

	updated, err := h.workflow.Apply(c.Request.Context(), id, req.Action, req.Comment, user)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.ResponseData:    updated,
		constants.ResponseMessage: "Action applied",
	})
}

// Cancel handles POST /api/requests/:id/cancel
func (h *RequestHandler) Cancel(c *gin.Context) {
	user := GetUserFromContext(c)

	id, err := requestID(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	var req CancelRequest
	_ = c.ShouldBindJSON(&req) // Optional comment

	updated, err := h.workflow.Cancel(c.Request.Context(), id, req.Comment, user)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.ResponseData:    updated,
		constants.ResponseMessage: "Request cancelled",
	})
}

// Fields handles GET /api/requests/:id/fields
func (h *RequestHandler) Fields(c *gin.Context) {
	user := GetUserFromContext(c)

	id, err := requestID(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	fields, err := h.fields.ResolveForRequest(c.Request.Context(), id, user)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	RespondData(c, "fields", fields)
}

// SLA handles GET /api/requests/:id/sla
func (h *RequestHandler) SLA(c *gin.Context) {
	user := GetUserFromContext(c)

	request, err := h.readVisible(c, user)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	status, err := h.workflow.SLAStatusFor(c.Request.Context(), request.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	RespondData(c, "sla", status)
}

// History handles GET /api/requests/:id/history
func (h *RequestHandler) History(c *gin.Context) {
	user := GetUserFromContext(c)

	request, err := h.readVisible(c, user)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	events, err := h.store.ListAuditEvents(c.Request.Context(), request.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	RespondData(c, "history", events)
}

// readVisible loads the request and enforces read visibility: the requester,
// a system admin, or any role holder may view it.
func (h *RequestHandler) readVisible(c *gin.Context, user *models.UserSession) (*models.Request, error) {
	if user == nil {
		return nil, apperrors.NewAuthorizationError("read", "request", "not authenticated")
	}

	id, err := requestID(c)
	if err != nil {
		return nil, err
	}

	request, err := h.store.ReadRequest(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}

	if request.RequesterID != user.ID && !user.IsSystemAdmin() && len(user.Roles) == 0 {
		return nil, apperrors.NewAuthorizationError("read", "request", "request belongs to another user")
	}
	return request, nil
}
