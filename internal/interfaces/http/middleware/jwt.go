package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/auth"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"github.com/retailops/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const (
	PrincipalKey = "principal"
	BearerPrefix = "Bearer "
)

// Authenticator turns a bearer token into a principal.
type Authenticator interface {
	Authenticate(token string) (shared.Principal, error)
}

// Auth requires a valid bearer token and stores the caller's principal on
// the gin context. The owner scope and user id are added to the request
// context for log correlation.
func Auth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, BearerPrefix)
		if !found || strings.TrimSpace(token) == "" {
			unauthorized(c, shared.CodeUnauthorized, "Missing or malformed bearer token")
			return
		}

		p, err := authn.Authenticate(strings.TrimSpace(token))
		if err != nil {
			logger.L(c.Request.Context()).Debug("authentication failed", zap.Error(err))
			if errors.Is(err, auth.ErrExpiredToken) {
				unauthorized(c, dto.CodeTokenExpired, "Token has expired")
				return
			}
			unauthorized(c, shared.CodeUnauthorized, "Invalid token")
			return
		}

		c.Set(PrincipalKey, p)
		ctx := logger.WithOwner(c.Request.Context(), p.Owner().String())
		ctx = logger.WithUserID(ctx, p.UserID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func unauthorized(c *gin.Context, code, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="retailops"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrorInfo{
		Code:      code,
		Message:   message,
		RequestID: c.GetString(RequestIDKey),
	}))
}

// GetPrincipal returns the principal stored by Auth.
func GetPrincipal(c *gin.Context) (shared.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return shared.Principal{}, false
	}
	p, ok := v.(shared.Principal)
	return p, ok && p.Role != nil
}
