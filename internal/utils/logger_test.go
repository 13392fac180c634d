package utils

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerMiddleware_LogsStatusAndRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := NewSlogLogger(NewSlog(&buf, true))

	router := gin.New()
	router.Use(RequestID(), LoggerMiddleware(logger))
	router.GET("/missing", func(c *gin.Context) {
		c.Set("user_id", "u1")
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"status_code":404`)
	assert.Contains(t, out, `"request_id":"req-42"`)
	assert.Contains(t, out, `"user_id":"u1"`)
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	var seen string
	router.GET("/", func(c *gin.Context) {
		seen = c.GetHeader(RequestIDHeader)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
}

func TestSlogLogger_LogError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(NewSlog(&buf, false)).With("component", "test")

	logger.LogError(assert.AnError, "boom", "attempt_id", 7)

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "component=test")
	assert.Contains(t, out, "attempt_id=7")
}
