package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxLoggedBody bounds request and response bodies captured at debug level
const maxLoggedBody = 4 << 10

const logEntryKey contextKey = "log_entry"

// logEntry is filled in by handlers further down the chain
type logEntry struct {
	userID string
}

func noteUser(ctx context.Context, userID string) {
	if entry, ok := ctx.Value(logEntryKey).(*logEntry); ok {
		entry.userID = userID
	}
}

// responseWriter captures the status code and, at debug level, the response body
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
	body       *bytes.Buffer
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	if rw.body != nil && rw.body.Len() < maxLoggedBody {
		rw.body.Write(b[:min(len(b), maxLoggedBody-rw.body.Len())])
	}
	return rw.ResponseWriter.Write(b)
}

// LoggingMiddleware logs every request; the level follows the status class
// (info for success, warn for 4xx, error for 5xx). At debug level bodies and
// query parameters are included.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		debug := slog.Default().Enabled(r.Context(), slog.LevelDebug)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		var requestBody []byte
		if debug {
			wrapped.body = &bytes.Buffer{}
			if r.Body != nil {
				requestBody, _ = io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewReader(requestBody))
			}
		}

		entry := &logEntry{}
		next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), logEntryKey, entry)))
		userID := entry.userID

		level := slog.LevelInfo
		message := "Request completed"
		switch {
		case wrapped.statusCode >= 500:
			level, message = slog.LevelError, "Request failed with error"
		case wrapped.statusCode >= 400:
			level, message = slog.LevelWarn, "Request failed"
		}

		attrs := []any{
			"remote_ip", GetIP(r),
			"user_agent", r.UserAgent(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if userID != "" {
			attrs = append(attrs, "user_id", userID)
		}
		if debug {
			if len(r.URL.Query()) > 0 {
				attrs = append(attrs, "query_params", r.URL.Query())
			}
			if len(requestBody) > 0 {
				attrs = append(attrs, "request_body", string(requestBody[:min(len(requestBody), maxLoggedBody)]))
			}
			if wrapped.body.Len() > 0 {
				attrs = append(attrs, "response_body", wrapped.body.String())
			}
		}

		slog.Log(r.Context(), level, message, attrs...)
	})
}
