package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/b2bshop/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func through(h gin.HandlerFunc, method, origin string, header map[string]string) *httptest.ResponseRecorder {
	r := gin.New()
	r.Use(h)
	r.Any("/cart", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	req := httptest.NewRequest(method, "/cart", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSWithConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const shop = "https://buyers.example.in"

	pinned := DefaultCORSConfig()
	pinned.AllowOrigins = []string{shop}
	open := DefaultCORSConfig()
	open.AllowOrigins = []string{"*"}

	tests := []struct {
		name        string
		cfg         CORSConfig
		method      string
		origin      string
		wantStatus  int
		wantOrigin  string
		wantCreds   string
		wantMethods string
	}{
		{"configured origin", pinned, http.MethodGet, shop, http.StatusOK, shop, "true", "PUT"},
		{"foreign origin", pinned, http.MethodGet, "https://elsewhere.example.com", http.StatusOK, "", "", ""},
		{"preflight", pinned, http.MethodOptions, shop, http.StatusNoContent, shop, "true", "DELETE"},
		{"wildcard drops credentials", open, http.MethodGet, "https://any.example.com", http.StatusOK, "*", "", "GET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := through(CORSWithConfig(tt.cfg), tt.method, tt.origin, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCreds, w.Header().Get("Access-Control-Allow-Credentials"))
			if tt.wantMethods == "" {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
				return
			}
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), tt.wantMethods)
			assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
			assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), RequestIDHeader)
		})
	}
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("client id is kept", func(t *testing.T) {
		w := through(RequestID(), http.MethodGet, "", map[string]string{RequestIDHeader: "po-7781-retry"})
		assert.Equal(t, "po-7781-retry", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "po-7781-retry", w.Body.String())
	})

	for name, sent := range map[string]string{
		"missing id":   "",
		"oversized id": strings.Repeat("x", maxRequestIDLength+1),
	} {
		t.Run(name+" is replaced by a uuid", func(t *testing.T) {
			w := through(RequestID(), http.MethodGet, "", map[string]string{RequestIDHeader: sent})
			id := w.Header().Get(RequestIDHeader)
			_, err := uuid.Parse(id)
			require.NoError(t, err)
			assert.Equal(t, id, w.Body.String())
		})
	}

	t.Run("request context carries the id", func(t *testing.T) {
		r := gin.New()
		r.Use(RequestID())
		r.GET("/cart", func(c *gin.Context) {
			assert.Equal(t, c.GetString(RequestIDKey), logger.GetRequestID(c.Request.Context()))
			c.Status(http.StatusOK)
		})
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cart", nil))
	})
}

func TestSecure(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := through(Secure(), http.MethodGet, "", nil).Header()

	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", h.Get("Referrer-Policy"))
	assert.Contains(t, h.Get("Content-Security-Policy"), "default-src 'none'")
}
