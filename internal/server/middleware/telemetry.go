package middleware

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"purityscan/backend/internal/telemetry"
	telemetrydomain "purityscan/backend/internal/telemetry/domain"
)

// Telemetry returns middleware that emits an http_request event after each
// request. Best-effort: emit failures are logged, never surfaced. A nil
// emitter disables the middleware.
func Telemetry(emitter telemetry.EventEmitter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if emitter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			event := &telemetrydomain.Event{
				EventType: telemetrydomain.EventHTTPRequest,
				Source:    "http",
				Metadata: map[string]string{
					"method":      r.Method,
					"path":        r.URL.Path,
					"status":      strconv.Itoa(ww.Status()),
					"duration_ms": strconv.FormatInt(time.Since(start).Milliseconds(), 10),
					"client_ip":   ClientIP(r),
				},
				CreatedAt: time.Now().UTC(),
			}
			if ident, ok := GetIdentity(r.Context()); ok {
				event.OrgID = ident.OrgID
				event.UserID = ident.UserID
				event.DeviceID = ident.DeviceID
			}
			telemetry.EmitAsync(emitter, r.Context(), event)
		})
	}
}
