// Package middleware provides the gin middleware of the HTTP API.
package middleware

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retailops/backend/internal/infrastructure/logger"
)

const (
	// RequestIDKey is the gin context key holding the request id.
	RequestIDKey = logger.GinRequestIDKey
	// RequestIDHeader carries a caller supplied request id in and the
	// effective one out.
	RequestIDHeader = "X-Request-ID"
	// MaxRequestIDLength bounds caller supplied ids.
	MaxRequestIDLength = 128
)

// RequestID assigns every request an id, reusing a sane X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > MaxRequestIDLength {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Next()
	}
}

// CORSConfig holds CORS settings. An empty AllowOrigins list disables
// cross-origin access entirely.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// CORS builds the gin-contrib/cors handler, or a pass-through when no
// origin is allowed.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	if len(cfg.AllowOrigins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}
	wildcard := false
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			wildcard = true
		}
	}
	cc := cors.Config{
		AllowMethods:  cfg.AllowMethods,
		AllowHeaders:  cfg.AllowHeaders,
		ExposeHeaders: cfg.ExposeHeaders,
		MaxAge:        cfg.MaxAge,
	}
	if wildcard {
		// Browsers reject credentials with a wildcard origin.
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = cfg.AllowOrigins
		cc.AllowCredentials = cfg.AllowCredentials
	}
	return cors.New(cc)
}

// SecurityConfig holds response security header settings. HSTS only makes
// sense behind TLS and is off unless enabled.
type SecurityConfig struct {
	HSTSEnabled bool
	HSTSMaxAge  time.Duration
}

// Secure sets conservative security headers on every response. The API
// serves JSON only, so the content security policy denies everything.
func Secure(cfg SecurityConfig) gin.HandlerFunc {
	hsts := ""
	if cfg.HSTSEnabled {
		hsts = fmt.Sprintf("max-age=%d; includeSubDomains", int(cfg.HSTSMaxAge.Seconds()))
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")
		if hsts != "" {
			h.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}
