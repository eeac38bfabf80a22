package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/passengerflow-console/internal/api"
	"github.com/passengerflow-console/internal/common/logger"
)

// TokenCookie carries the operator's backend token when no Authorization header is sent
const TokenCookie = "pf_token"

// RequestLogger logs one line per request
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []interface{}{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			}
			if status >= 500 {
				log.Error("Request failed", fields...)
				return
			}
			log.Debug("Request served", fields...)
		})
	}
}

// ForwardToken passes the operator's bearer token on to backend calls
func ForwardToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		} else if c, err := r.Cookie(TokenCookie); err == nil {
			token = c.Value
		}
		if token != "" {
			r = r.WithContext(api.WithToken(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}
