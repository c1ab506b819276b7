package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFrom(ctx))

	ctx = WithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", RequestIDFrom(ctx))
}

func TestFromCtx(t *testing.T) {
	Init("development")

	// Without a request id, FromCtx falls back to the global logger.
	assert.Equal(t, L(), FromCtx(context.Background()))

	ctx := WithRequestID(context.Background(), "req-123")
	assert.NotNil(t, FromCtx(ctx))
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	t.Run("GeneratesID", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
	})

	t.Run("HonorsInboundID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("X-Request-ID", "req-upstream")

		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, "req-upstream", seen)
		assert.Equal(t, "req-upstream", w.Header().Get("X-Request-ID"))
	})
}

func TestLoggingMiddlewareRecordsStatus(t *testing.T) {
	Init("development")

	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
