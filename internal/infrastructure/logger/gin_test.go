package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinMiddleware_LevelsByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusConflict, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		core, logs := observer.New(zapcore.DebugLevel)
		r := gin.New()
		r.Use(func(c *gin.Context) { c.Set("request_id", "req-1") })
		r.Use(GinMiddleware(zap.New(core)))
		r.GET("/x", func(c *gin.Context) { c.Status(tt.status) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x?page=2", nil))

		entries := logs.All()
		if assert.Len(t, entries, 1) {
			assert.Equal(t, tt.level, entries[0].Level)
			fields := entries[0].ContextMap()
			assert.Equal(t, "req-1", fields["request_id"])
			assert.Equal(t, "page=2", fields["query"])
			assert.EqualValues(t, tt.status, fields["status"])
		}
	}
}

func TestGinMiddleware_PropagatesRequestContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("request_id", "req-ctx") })
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/x", func(c *gin.Context) {
		assert.Equal(t, "req-ctx", GetRequestID(c.Request.Context()))
		L(c.Request.Context()).Info("inside handler")
		GetGinLogger(c).Info("from gin")
		c.Status(http.StatusNoContent)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, 1, logs.FilterMessage("inside handler").Len())
	assert.Equal(t, 1, logs.FilterMessage("from gin").Len())
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
}

func TestGetGinLogger_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}
