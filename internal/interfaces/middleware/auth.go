package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/models"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/roles"
	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/constants"
)

// SessionClaims is the JWT payload issued by the platform's identity service
type SessionClaims struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// RequireAuth is a middleware that validates JWT bearer tokens and places the
// resolved UserSession in the request context. Role names in the token may be
// legacy aliases; they are normalized here so handlers never see raw strings.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" {
			abortUnauthorized(c, "No authorization token provided")
			return
		}

		// Extract token (format: "Bearer <token>")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims := &SessionClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}
		if claims.Subject == "" {
			abortUnauthorized(c, "Token missing subject")
			return
		}

		c.Set(constants.ContextKeyUser, models.UserSession{
			ID:    claims.Subject,
			Name:  claims.Name,
			Roles: roles.NormalizeAll(claims.Roles),
		})

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		constants.ResponseError:   "Unauthorized",
		constants.ResponseMessage: message,
		"code":                    "UNAUTHORIZED",
		"data":                    nil,
	})
	c.Abort()
}
