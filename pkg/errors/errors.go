package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the base interface for all application errors
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// NotFoundError represents a resource that was not found
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

func (e *NotFoundError) Code() string {
	return "NOT_FOUND"
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a malformed workflow definition or invalid input.
// Fatal to the definition it describes; nothing is partially applied.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

func (e *ValidationError) Code() string {
	return "VALIDATION_ERROR"
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AuthorizationError represents a caller lacking role/action rights.
// Surfaced to the caller; no state change occurs.
type AuthorizationError struct {
	Action   string
	Resource string
	Reason   string
}

func (e *AuthorizationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("not authorized to %s %s: %s", e.Action, e.Resource, e.Reason)
	}
	return fmt.Sprintf("not authorized to %s %s", e.Action, e.Resource)
}

func (e *AuthorizationError) HTTPStatus() int {
	return http.StatusForbidden
}

func (e *AuthorizationError) Code() string {
	return "AUTHORIZATION_ERROR"
}

// NewAuthorizationError creates a new AuthorizationError
func NewAuthorizationError(action, resource, reason string) *AuthorizationError {
	return &AuthorizationError{Action: action, Resource: resource, Reason: reason}
}

// InvalidStateError represents a request pointing at a non-existent or
// malformed workflow node. Indicates drift between the request and its
// definition, so callers should log it as a data-integrity signal.
type InvalidStateError struct {
	RequestID string
	StepID    string
	Message   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state for request '%s' at step '%s': %s", e.RequestID, e.StepID, e.Message)
}

func (e *InvalidStateError) HTTPStatus() int {
	return http.StatusUnprocessableEntity
}

func (e *InvalidStateError) Code() string {
	return "INVALID_STATE"
}

// NewInvalidStateError creates a new InvalidStateError
func NewInvalidStateError(requestID, stepID, message string) *InvalidStateError {
	return &InvalidStateError{RequestID: requestID, StepID: stepID, Message: message}
}

// ConflictError represents a concurrent transition that lost the race.
// The caller should re-fetch and retry at its discretion.
type ConflictError struct {
	Resource string
	ID       string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s '%s' was modified concurrently", e.Resource, e.ID)
}

func (e *ConflictError) HTTPStatus() int {
	return http.StatusConflict
}

func (e *ConflictError) Code() string {
	return "CONFLICT"
}

// NewConflictError creates a new ConflictError
func NewConflictError(resource, id string) *ConflictError {
	return &ConflictError{Resource: resource, ID: id}
}

// EscalationDeliveryError represents a notifier failure during an escalation
// sweep. Logged per request; never blocks sibling requests.
type EscalationDeliveryError struct {
	RequestID string
	Action    string
	Cause     error
}

func (e *EscalationDeliveryError) Error() string {
	return fmt.Sprintf("escalation '%s' delivery failed for request '%s': %v", e.Action, e.RequestID, e.Cause)
}

func (e *EscalationDeliveryError) HTTPStatus() int {
	return http.StatusBadGateway
}

func (e *EscalationDeliveryError) Code() string {
	return "ESCALATION_DELIVERY_FAILED"
}

func (e *EscalationDeliveryError) Unwrap() error {
	return e.Cause
}

// NewEscalationDeliveryError creates a new EscalationDeliveryError
func NewEscalationDeliveryError(requestID, action string, cause error) *EscalationDeliveryError {
	return &EscalationDeliveryError{RequestID: requestID, Action: action, Cause: cause}
}

// InternalError represents unexpected server errors
type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("internal error: %s (caused by: %v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("internal error: %s", e.Message)
}

func (e *InternalError) HTTPStatus() int {
	return http.StatusInternalServerError
}

func (e *InternalError) Code() string {
	return "INTERNAL_ERROR"
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{Message: message, Cause: cause}
}

// Helper functions for error checking

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}

// IsAuthorization checks if an error is an AuthorizationError
func IsAuthorization(err error) bool {
	var authz *AuthorizationError
	return errors.As(err, &authz)
}

// IsInvalidState checks if an error is an InvalidStateError
func IsInvalidState(err error) bool {
	var invalid *InvalidStateError
	return errors.As(err, &invalid)
}

// IsConflict checks if an error is a ConflictError
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}

// IsEscalationDelivery checks if an error is an EscalationDeliveryError
func IsEscalationDelivery(err error) bool {
	var delivery *EscalationDeliveryError
	return errors.As(err, &delivery)
}

// GetHTTPStatus returns the HTTP status code for an error
// Returns 500 if the error doesn't implement AppError
func GetHTTPStatus(err error) int {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// GetErrorCode returns the error code for an error
// Returns "UNKNOWN_ERROR" if the error doesn't implement AppError
func GetErrorCode(err error) string {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return "UNKNOWN_ERROR"
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ToResponse converts an error to an ErrorResponse
func ToResponse(err error) ErrorResponse {
	return ErrorResponse{
		Code:    GetErrorCode(err),
		Message: err.Error(),
	}
}
