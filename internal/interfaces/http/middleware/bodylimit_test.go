package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/retailops/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodyLimit(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), BodyLimit(16))
	router.POST("/test", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			BindError(c, err)
			return
		}
		c.String(http.StatusOK, string(body))
	})

	t.Run("allows body within limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("small")))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "small", w.Body.String())
	})

	t.Run("rejects declared oversize body", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(strings.Repeat("a", 64))))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.CodeRequestTooLarge, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)
	})

	t.Run("caps streamed body without content length", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", io.NopCloser(strings.NewReader(strings.Repeat("a", 64))))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
