package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/retailops/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects declared oversize bodies up front and caps streamed
// ones; handlers see *http.MaxBytesError from the bind in that case.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(dto.ErrorInfo{
				Code:      dto.CodeRequestTooLarge,
				Message:   "Request body exceeds maximum allowed size",
				RequestID: c.GetString(RequestIDKey),
			}))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
