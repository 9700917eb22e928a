package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingMiddlewareLevels(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)
			handler := middleware.RequestID(LoggingMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/products", nil))

			entries := logs.FilterMessage("Request completed").All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)

			fields := entries[0].ContextMap()
			assert.Equal(t, int64(tt.status), fields["status"])
			assert.Equal(t, "/api/products", fields["path"])
			assert.NotEmpty(t, fields["request_id"])
		})
	}
}

func TestLoggingMiddlewareRecordsRoutePattern(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	r := chi.NewRouter()
	r.Use(LoggingMiddleware(zap.New(core)))
	r.Get("/api/admin/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/admin/orders/42", nil))

	entries := logs.FilterMessage("Request completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "/api/admin/orders/{id}", entries[0].ContextMap()["route"])
}

func TestLoggingMiddlewareQuietsHealthProbes(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := LoggingMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	assert.Zero(t, logs.Len())
}
