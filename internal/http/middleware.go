package httpx

import (
	"bufio"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"time"
)

// Logging returns a middleware that logs HTTP requests and responses.
// The websocket endpoint logs only the upgrade; the stream itself is
// logged by the hub.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *respWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Hijack keeps the websocket upgrade working behind the logging wrapper.
func (w *respWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, errors.New("http.Hijacker not supported")
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// internalKeyHeader carries the shared key for the trusted internal API.
const internalKeyHeader = "X-Internal-Key"

// RequireInternalKey returns a middleware that authorizes internal
// endpoints with a shared key. An empty configured key disables the
// check; bootstrap refuses that outside dev mode.
func RequireInternalKey(key string) func(http.Handler) http.Handler {
	// Hashing both sides makes the comparison constant-time without
	// leaking key length.
	want := sha256.Sum256([]byte(key))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key != "" {
				got := sha256.Sum256([]byte(r.Header.Get(internalKeyHeader)))
				if subtle.ConstantTimeCompare(want[:], got[:]) != 1 {
					WriteError(w, ErrorParams{
						Code:    http.StatusUnauthorized,
						ErrCode: "invalid_internal_key",
						Err:     errors.New("missing or invalid internal key"),
					})
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
