package middleware

import (
	"net/http"

	"github.com/zatekoja/ipd-admission-engine/backend/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
)

// ObservabilityMiddleware adds OpenTelemetry tracing to HTTP requests
func ObservabilityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Use route pattern instead of raw path to avoid high cardinality
		route := r.Pattern
		if route == "" {
			route = r.URL.Path
		}

		ctx, span := observability.StartSpan(r.Context(), route)
		defer span.End()

		observability.SetSpanAttributes(span,
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
			attribute.String("http.user_agent", r.UserAgent()),
		)

		// Wrap the response writer to capture the status code
		rw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r.WithContext(ctx))

		observability.SetSpanAttributes(span, attribute.Int("http.status_code", rw.statusCode))
	})
}
