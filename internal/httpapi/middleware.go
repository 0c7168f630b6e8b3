package httpapi

import (
	"log/slog"
	"net/http"
	"time"
)

// withLogging wraps a handler to log method/path/status/duration, following
// services/gamification/internal/core/middleware.go's WithLogging.
func withLogging(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rl := &respLogger{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rl, r)
		log.Info("http",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rl.status),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

type respLogger struct {
	http.ResponseWriter
	status int
}

func (rl *respLogger) WriteHeader(code int) {
	rl.status = code
	rl.ResponseWriter.WriteHeader(code)
}
