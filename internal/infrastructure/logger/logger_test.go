package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func observed(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

func fieldMap(entry observer.LoggedEntry) map[string]any {
	return entry.ContextMap()
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew(t *testing.T) {
	l, err := New(&Config{Level: "info", Format: "json", Output: "stderr", Service: "marketplace"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = New(&Config{Format: "xml"})
	assert.Error(t, err)

	_, err = New(&Config{Output: filepath.Join(t.TempDir(), "missing", "app.log")})
	assert.Error(t, err)
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(&Config{Level: "debug", Output: path, Service: "marketplace"})
	require.NoError(t, err)

	l.Info("order placed", zap.Int("items", 2))
	require.NoError(t, Sync(l))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"order placed"`)
	assert.Contains(t, string(raw), `"service":"marketplace"`)
}

func TestL_EnrichesFromContext(t *testing.T) {
	base, logs := observed(zapcore.DebugLevel)
	ctx := WithContext(context.Background(), base)
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithUserID(ctx, "user-9")

	L(ctx).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := fieldMap(logs.All()[0])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "user-9", fields["user_id"])
	assert.NotContains(t, fields, "trace_id")
}

func TestL_WithoutLoggerIsNop(t *testing.T) {
	assert.NotPanics(t, func() {
		L(context.Background()).Info("dropped")
	})
	assert.Equal(t, "", GetTraceID(context.Background()))
}

func TestGinMiddleware_LogLevelByStatus(t *testing.T) {
	base, logs := observed(zapcore.DebugLevel)
	r := gin.New()
	r.Use(GinMiddleware(base))
	r.GET("/ok", func(c *gin.Context) {
		L(c.Request.Context()).Info("inside handler")
		c.Status(http.StatusOK)
	})
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusConflict) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/ok", "/bad", "/boom", "/health"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 1, logs.FilterMessage("inside handler").Len())
	requests := logs.FilterMessage("HTTP Request").All()
	require.Len(t, requests, 4)
	assert.Equal(t, zapcore.InfoLevel, requests[0].Level)
	assert.Equal(t, zapcore.WarnLevel, requests[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, requests[2].Level)
	assert.Equal(t, zapcore.DebugLevel, requests[3].Level)
	assert.Equal(t, "/bad", fieldMap(requests[1])["path"])
}

func TestRecovery(t *testing.T) {
	base, logs := observed(zapcore.DebugLevel)
	r := gin.New()
	r.Use(Recovery(base))
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
}

func TestGetGinLogger_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}

func TestGormLogger_Trace(t *testing.T) {
	base, logs := observed(zapcore.DebugLevel)
	gl := NewGormLogger(base, GormConfig{Level: "debug", SlowThreshold: 10 * time.Millisecond})
	ctx := WithRequestID(context.Background(), "req-7")
	sql := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(ctx, time.Now(), sql, nil)
	gl.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	gl.Trace(ctx, time.Now(), sql, errors.New("broken"))
	gl.Trace(ctx, time.Now(), sql, gormlogger.ErrRecordNotFound)

	all := logs.All()
	require.Len(t, all, 3)
	assert.Equal(t, zapcore.DebugLevel, all[0].Level)
	assert.Equal(t, "Slow SQL statement", all[1].Message)
	assert.Equal(t, "SQL statement failed", all[2].Message)
	assert.Equal(t, "req-7", fieldMap(all[2])["request_id"])
	assert.Equal(t, "broken", fieldMap(all[2])["error"])
}

func TestGormLogger_WarnLevelSkipsFastStatements(t *testing.T) {
	base, logs := observed(zapcore.DebugLevel)
	gl := NewGormLogger(base, GormConfig{Level: "warn", SlowThreshold: time.Second, LogNotFound: true})
	sql := func() (string, int64) { return "SELECT * FROM cart_items WHERE user_id = 1", 0 }

	gl.Trace(context.Background(), time.Now(), sql, nil)
	gl.Trace(context.Background(), time.Now(), sql, gormlogger.ErrRecordNotFound)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
}

func TestGormLogger_TruncatesLongStatements(t *testing.T) {
	base, logs := observed(zapcore.DebugLevel)
	gl := NewGormLogger(base, GormConfig{Level: "info"})
	long := "INSERT INTO reservations VALUES " + strings.Repeat("(?),", 2000)

	gl.Trace(context.Background(), time.Now(), func() (string, int64) { return long, 2000 }, nil)

	require.Equal(t, 1, logs.Len())
	sql := fieldMap(logs.All()[0])["sql"].(string)
	assert.Len(t, sql, maxSQLLength+3)
	assert.True(t, strings.HasSuffix(sql, "..."))
}

func TestGormLogger_Silent(t *testing.T) {
	base, logs := observed(zapcore.DebugLevel)
	gl := NewGormLogger(base, GormConfig{Level: "warn"}).LogMode(gormlogger.Silent)
	gl.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("x"))
	assert.Equal(t, 0, logs.Len())
}

func TestParseGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, ParseGormLevel("silent"))
	assert.Equal(t, gormlogger.Info, ParseGormLevel("DEBUG"))
	assert.Equal(t, gormlogger.Error, ParseGormLevel("error"))
	assert.Equal(t, gormlogger.Warn, ParseGormLevel(""))
}
