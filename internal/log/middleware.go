package log

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
	// RequestIDContextKey holds the request ID string
	RequestIDContextKey ContextKey = "request_id"

	RequestIDHeader = "X-Request-ID"
)

// Middleware adds logger to the request context
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext extracts a logger from the request context, falling back to
// the default slog logger.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default()}
}

// RequestID returns the request ID stored by RequestIDMiddleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// RequestIDMiddleware reuses an incoming X-Request-ID or generates one,
// echoes it on the response and adds it to the context logger.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if requestID == "" || len(requestID) > 128 {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			logger := FromContext(r.Context()).With(FieldRequestID, requestID)
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			ctx = context.WithValue(ctx, RequestIDContextKey, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessLog logs every completed request with its status and duration.
// 4xx responses log at Warn, 5xx at Error.
func AccessLog() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}
			fields := NewFields().
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
				WithHTTPResponse(rec.status, time.Since(start).Milliseconds()).
				WithClientIP(clientIP(r))
			FromContext(r.Context()).LogFields(r.Context(), level, "HTTP request completed", fields)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
