package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mileusna/useragent"
	log "github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

// LogRequest tags every request with an id (kept when the caller sent one) and logs
// it once the handler is done.
func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			resp := newResponseWriter(w)
			begin := time.Now()
			next.ServeHTTP(resp, r)

			ua := useragent.Parse(r.UserAgent())
			fields := log.Fields{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     resp.statusCode,
				"duration":   time.Since(begin).String(),
				"client":     clientName(ua),
			}
			if ua.Bot {
				fields["bot"] = true
			}

			entry := log.WithFields(fields)
			if resp.statusCode >= http.StatusInternalServerError {
				entry.Warn("request served")
				return
			}
			entry.Trace("request served")
		})
	}
}

func clientName(ua useragent.UserAgent) string {
	if ua.Name == "" {
		return "unknown"
	}
	if ua.OS == "" {
		return ua.Name
	}
	return ua.Name + "/" + ua.OS
}
