// Package audit - HTTP auto-capture middleware
package audit

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"finopsguard/core/types"
)

// skippedPaths are high-frequency or non-business endpoints that do not
// generate audit events.
var skippedPaths = []string{"/healthz", "/metrics", "/docs", "/static"}

// statusRecorder captures the response status for the audit event.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records one api.request event per handled request.
func (l *Logger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if skipAudit(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		requestID := uuid.New().String()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		severity := types.SeverityInfo
		switch {
		case rec.status >= 500:
			severity = types.SeverityError
		case rec.status >= 400:
			severity = types.SeverityWarning
		}

		opts := []Option{
			WithSeverity(severity),
			WithRequestID(requestID),
			WithHTTP(types.AuditHTTP{
				Method: r.Method,
				Path:   r.URL.Path,
				Status: rec.status,
			}),
			WithActor(types.AuditActor{
				IP:        clientIP(r),
				UserAgent: r.UserAgent(),
			}),
			WithDetails(map[string]interface{}{
				"duration_ms": time.Since(start).Milliseconds(),
			}),
		}
		if rec.status >= 400 {
			opts = append(opts, WithError(fmt.Errorf("%d %s", rec.status, http.StatusText(rec.status))))
		}
		l.Log(r.Context(), types.AuditAPIRequest, r.Method+" "+r.URL.Path, opts...)
	})
}

func skipAudit(path string) bool {
	for _, prefix := range skippedPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the socket peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx >= 0 {
		return host[:idx]
	}
	return host
}
