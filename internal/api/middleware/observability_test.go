package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestObservabilityMiddleware_StartsSpanPerRequest(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var handlerSawSpan bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/bookings/{id}/queue", func(w http.ResponseWriter, r *http.Request) {
		handlerSawSpan = trace.SpanFromContext(r.Context()).SpanContext().IsValid()
		w.WriteHeader(http.StatusAccepted)
	})

	handler := ObservabilityMiddleware(mux)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bookings/booking-1/queue", nil))

	assert.True(t, handlerSawSpan)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "/api/bookings/booking-1/queue", spans[0].Name())

	var statusCode int64
	for _, attr := range spans[0].Attributes() {
		if attr.Key == attribute.Key("http.status_code") {
			statusCode = attr.Value.AsInt64()
		}
	}
	assert.Equal(t, int64(http.StatusAccepted), statusCode)
}
