package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// captureSpans installs a synchronous in-memory exporter as the global tracer
func captureSpans(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))

	oldTP, oldProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(oldTP)
		otel.SetTextMapPropagator(oldProp)
	})
	return exp
}

func tracedRequest(enabled bool, path string, status int, header map[string]string) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Tracing("b2b-test", enabled), SpanAttributes(), SpanErrorMarker())
	r.GET("/orders/:id", func(c *gin.Context) { c.Status(status) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/ready", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(httptest.NewRecorder(), req)
}

func TestTracing_WhichRequestsGetSpans(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		path    string
		want    int
	}{
		{"order route", true, "/orders/42", 1},
		{"liveness probe", true, "/health", 0},
		{"readiness probe", true, "/ready", 0},
		{"tracing off", false, "/orders/42", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := captureSpans(t)
			tracedRequest(tt.enabled, tt.path, http.StatusOK, nil)
			assert.Len(t, exp.GetSpans(), tt.want)
		})
	}
}

func TestTracing_SpanCarriesRouteAndRequestID(t *testing.T) {
	exp := captureSpans(t)
	tracedRequest(true, "/orders/42", http.StatusOK, map[string]string{RequestIDHeader: "req-7"})

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Name, "/orders/:id")
	assert.Contains(t, spans[0].Attributes, attribute.String("request_id", "req-7"))
}

// Only server faults mark the span; 4xx are ordinary outcomes for this API
func TestSpanErrorMarker(t *testing.T) {
	for status, want := range map[int]codes.Code{
		http.StatusOK:                  codes.Unset,
		http.StatusConflict:            codes.Unset,
		http.StatusNotFound:            codes.Unset,
		http.StatusInternalServerError: codes.Error,
		http.StatusServiceUnavailable:  codes.Error,
	} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			exp := captureSpans(t)
			tracedRequest(true, "/orders/1", status, nil)

			spans := exp.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, want, spans[0].Status.Code)
		})
	}
}

func TestSpanErrorMarker_WithoutSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SpanErrorMarker())
	r.GET("/orders", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() { r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil)) })
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
