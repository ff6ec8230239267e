package middleware

import (
	"log"
	"net/http"
	"time"
)

// statusRecorder captures the response status and body size. The status
// defaults to 200 because handlers that only call Write never issue an
// explicit WriteHeader.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func wrapResponseWriter(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rec *statusRecorder) WriteHeader(code int) {
	if rec.written {
		return
	}
	rec.status = code
	rec.written = true
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	rec.written = true
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// Logging writes one line per request: method, path, status, response size
// and elapsed time.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := wrapResponseWriter(w)
		next.ServeHTTP(rec, r)

		log.Printf("%s %s %d %dB in %s", r.Method, r.URL.Path, rec.status, rec.bytes, time.Since(start))
	})
}
