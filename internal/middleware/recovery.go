package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/pkg"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

// PanicRecovery turns a handler panic into a 500 JSON error. The panic is logged
// with its stack and request id, and reported to sentry when it is set up.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.WithFields(log.Fields{
					"method":     req.Method,
					"path":       req.URL.Path,
					"request_id": w.Header().Get(RequestIDHeader),
				}).Errorf("http: panic serving request: %v\n%s", rec, debug.Stack())

				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}

				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(req)
				hub.Recover(rec)

				pkg.WriteJSONError(w, http.StatusInternalServerError,
					"Internal Server Error", "An unexpected error occurred", nil)
			}()

			next.ServeHTTP(w, req)
		})
	}
}
