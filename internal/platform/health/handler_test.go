package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func get(t *testing.T, handler http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestStatusAndLiveness(t *testing.T) {
	router := newRouter(New("test"))

	w, body := get(t, router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["environment"])

	w, body = get(t, router, "/health/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", body["status"])
}

func TestReadiness(t *testing.T) {
	t.Run("ready when every check passes", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("postgres", func(context.Context) error { return nil })

		w, body := get(t, newRouter(h), "/health/ready")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ready", body["status"])
		assert.Equal(t, map[string]any{"postgres": "up"}, body["checks"])
	})

	t.Run("not ready when a check fails, without leaking the cause", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("postgres", func(context.Context) error { return nil })
		h.RegisterCheck("redis", func(context.Context) error { return errors.New("dial tcp 10.0.0.5:6379: refused") })

		w, body := get(t, newRouter(h), "/health/ready")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "not_ready", body["status"])
		assert.Equal(t, map[string]any{"postgres": "up", "redis": "down"}, body["checks"])
		assert.NotContains(t, w.Body.String(), "10.0.0.5")
	})

	t.Run("checks receive a deadline", func(t *testing.T) {
		h := New("test")
		var hadDeadline bool
		h.RegisterCheck("kafka", func(ctx context.Context) error {
			_, hadDeadline = ctx.Deadline()
			return nil
		})

		get(t, newRouter(h), "/health/ready")

		assert.True(t, hadDeadline)
	})
}
