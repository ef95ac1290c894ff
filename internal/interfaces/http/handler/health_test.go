package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: connection refused") }

	t.Run("health always answers", func(t *testing.T) {
		h := NewHealthHandler("1.2.3", map[string]ReadinessCheck{"database": down})
		router := newTestRouter(nil)
		router.GET("/health", h.Health)

		w := doRequest(router, http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w).Data.(map[string]any)
		assert.Equal(t, "1.2.3", data["version"])
	})

	t.Run("ready when all checks pass", func(t *testing.T) {
		h := NewHealthHandler("dev", map[string]ReadinessCheck{"database": ok, "redis": ok})
		router := newTestRouter(nil)
		router.GET("/ready", h.Ready)

		w := doRequest(router, http.MethodGet, "/ready", "")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unavailable when a check fails", func(t *testing.T) {
		h := NewHealthHandler("dev", map[string]ReadinessCheck{"database": ok, "redis": down})
		router := newTestRouter(nil)
		router.GET("/ready", h.Ready)

		w := doRequest(router, http.MethodGet, "/ready", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp := decode(t, w)
		checks := resp.Data.(map[string]any)["checks"].(map[string]any)
		assert.Equal(t, "ok", checks["database"])
		assert.Contains(t, checks["redis"], "connection refused")
	})
}
