package web

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/google/uuid"

	appLog "clinicdash/internal/log"
)

const headerRequestID = "X-Request-ID"

type ctxKey int

const requestIDKey ctxKey = iota

// requestID returns the ID assigned by requestIDMiddleware, if any.
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// statusRecorder captures the response status for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestIDMiddleware reuses a client-supplied X-Request-ID or assigns a
// new one, echoes it on the response and logs the request.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))

		appLog.Debug("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start).String(),
		)
	})
}

// rateLimitMiddleware applies one token bucket to every request except
// /health.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured. Empty
// credentials disable it.
func (s *Server) basicAuthEnabled() bool {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

// basicAuthMiddleware guards everything except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	s.cfgMu.RLock()
	username, password := s.cfg.BasicAuth.Username, s.cfg.BasicAuth.Password
	s.cfgMu.RUnlock()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="clinicdash", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
