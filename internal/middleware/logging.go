package middleware

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// bodySample bounds how much of a response is kept to detect in-band errors
const bodySample = 4096

type trackingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *trackingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if room := bodySample - w.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		w.body.Write(b[:room])
	}
	return w.ResponseWriter.Write(b)
}

// hasRPCError reports whether the sampled body is a JSON-RPC error envelope
func (w *trackingWriter) hasRPCError() bool {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(w.body.Bytes(), &envelope) != nil {
		return false
	}
	return len(envelope.Error) > 0 && string(envelope.Error) != "null"
}

// RequestLogger logs every request with client IP, duration and outcome.
// JSON-RPC responses carrying an error are logged as failures even though
// they are sent with HTTP 200.
func RequestLogger(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			tw := &trackingWriter{ResponseWriter: w}

			next.ServeHTTP(tw, r)

			if tw.status == 0 {
				tw.status = http.StatusOK
			}
			failed := tw.status >= http.StatusBadRequest || tw.hasRPCError()
			entry := logger.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"ip_address":  ClientIP(r),
				"status":      tw.status,
				"duration_ms": time.Since(start).Milliseconds(),
				"error":       failed,
			})
			if failed {
				entry.Warn("Request failed")
			} else {
				entry.Info("Request completed")
			}
		})
	}
}

// ClientIP returns the first X-Forwarded-For hop, else the remote address
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
