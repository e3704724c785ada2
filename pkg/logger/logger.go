package logger

import (
	"context"
	"net/http"
	"time"
)

// NewContext returns a context whose log lines carry the given key/value
// pairs. Loggers not built by this package leave ctx unchanged.
func NewContext(ctx context.Context, l Logger, keysAndValues ...any) context.Context {
	zl, ok := l.(*zapLogger)
	if !ok {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, zl.from(ctx).With(keysAndValues...))
}

// HTTPLogger logs every request served by next.
func HTTPLogger(l Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			ctx := NewContext(r.Context(), l, "method", r.Method, "path", r.URL.Path)

			next.ServeHTTP(ww, r.WithContext(ctx))

			l.Debugf(ctx, "HTTP request - status: %d, duration_ms: %d, remote_addr: %s",
				ww.statusCode, time.Since(start).Milliseconds(), r.RemoteAddr)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
