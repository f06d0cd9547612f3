package rest

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/models"
	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/constants"
	apperrors "github.com/alhafibarefoot/HelpDesk-sub002/pkg/errors"
)

// GetUserFromContext extracts the authenticated user from gin.Context
func GetUserFromContext(c *gin.Context) *models.UserSession {
	userInterface, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil
	}
	user := userInterface.(models.UserSession)
	return &user
}

// RespondAppError sends a standardised JSON error response using pkg/errors
func RespondAppError(c *gin.Context, err error) {
	code := apperrors.GetHTTPStatus(err)
	errorCode := apperrors.GetErrorCode(err)
	message := err.Error()

	if code >= 500 {
		log.Printf("❌ ERROR [%d] %s %s: %s", code, c.Request.Method, c.Request.URL.Path, message)
	}

	c.JSON(code, gin.H{
		constants.ResponseError:   message,
		constants.ResponseMessage: message,
		"code":                    errorCode,
		"data":                    nil,
	})
}

// BindJSON binds JSON and returns true if successful. If failed, it sends bad request error.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondAppError(c, apperrors.NewValidationError("body", err.Error()))
		return false
	}
	return true
}

// RespondData wraps a successful read in the standard envelope
func RespondData(c *gin.Context, key string, value interface{}) {
	c.JSON(http.StatusOK, gin.H{key: value})
}
