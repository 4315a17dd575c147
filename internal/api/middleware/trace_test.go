package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stickyasks/stickyasks-api/internal/api/shared"
	"github.com/stickyasks/stickyasks-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceMiddleware(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	var traceID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())

		// Context-scoped logging inside the request should carry the
		// trace ID without any extra setup.
		logger.FromContext(r.Context()).Info("inner handler ran")
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	TraceMiddleware(inner).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, traceID, "inner handler should see a trace ID")

	assert.Contains(t, buf.String(), "inner handler ran")
	assert.Contains(t, buf.String(), traceID)
}
