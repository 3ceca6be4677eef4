package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pandeptwidyaop/simple404/pkg/logger"
)

const sessionSlotKey contextKey = "session-slot"

// sessionSlot lets the outer logger see claims set by inner auth middleware.
type sessionSlot struct {
	claims *Claims
}

func noteClaims(ctx context.Context, claims *Claims) {
	if slot, ok := ctx.Value(sessionSlotKey).(*sessionSlot); ok {
		slot.claims = claims
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Flush implements http.Flusher
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// HTTPLoggerWithLevel logs HTTP requests based on configured level:
// "silent" logs nothing, "error" logs 5xx, "warn" logs 4xx and 5xx,
// anything else logs every request.
func HTTPLoggerWithLevel(next http.Handler, logLevel string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		slot := &sessionSlot{}
		r = r.WithContext(context.WithValue(r.Context(), sessionSlotKey, slot))

		next.ServeHTTP(rw, r)

		logEvent := eventFor(logLevel, rw.statusCode)
		if logEvent == nil {
			return
		}

		duration := time.Since(start)
		logEvent = logEvent.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Int("status", rw.statusCode).
			Int64("bytes", rw.written).
			Dur("duration", duration)

		if claims := slot.claims; claims != nil {
			logEvent = logEvent.
				Str("user_id", claims.UserID).
				Str("username", claims.Username).
				Str("role", claims.Role)
		}

		if r.URL.RawQuery != "" {
			logEvent = logEvent.Str("query", r.URL.RawQuery)
		}

		logEvent.Msg("HTTP request")
	})
}

func eventFor(logLevel string, status int) *zerolog.Event {
	switch logLevel {
	case "silent":
		return nil
	case "error":
		if status >= 500 {
			return logger.ErrorEvent()
		}
		return nil
	case "warn":
		if status < 400 {
			return nil
		}
	}

	switch {
	case status >= 500:
		return logger.ErrorEvent()
	case status >= 400:
		return logger.WarnEvent()
	default:
		return logger.InfoEvent()
	}
}
