package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lending/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("allows request within limit", func(t *testing.T) {
		router := gin.New()
		router.Use(BodyLimit(1024))
		router.POST("/payments", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		body := bytes.NewReader([]byte(`{"amount":"150.00"}`))
		req := httptest.NewRequest("POST", "/payments", body)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects request exceeding declared length", func(t *testing.T) {
		router := gin.New()
		router.Use(BodyLimit(100))
		router.POST("/payments", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		body := bytes.NewReader([]byte(strings.Repeat("x", 200)))
		req := httptest.NewRequest("POST", "/payments", body)
		req.ContentLength = 200
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeRequestTooLarge)
	})

	t.Run("allows GET requests", func(t *testing.T) {
		router := gin.New()
		router.Use(BodyLimit(10))
		router.GET("/loans", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest("GET", "/loans", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("caps streaming bodies without a declared length", func(t *testing.T) {
		router := gin.New()
		router.Use(BodyLimit(50))
		router.POST("/payments", func(c *gin.Context) {
			buf := make([]byte, 200)
			if _, err := c.Request.Body.Read(buf); err != nil {
				c.String(http.StatusBadRequest, "body too large")
				return
			}
			c.String(http.StatusOK, "ok")
		})

		body := strings.NewReader(strings.Repeat("x", 100))
		req := httptest.NewRequest("POST", "/payments", body)
		req.ContentLength = -1
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
