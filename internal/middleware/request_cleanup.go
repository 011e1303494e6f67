package middleware

import (
	"io"
	"net/http"
)

// DefaultMaxBodyBytes caps JSON payloads; a session with all its sets stays far below it.
const DefaultMaxBodyBytes = 1 << 20

// LimitAndDrainRequest caps the request body at maxBodyBytes and, once the handler is done,
// drains and closes whatever the handler left unread.
func LimitAndDrainRequest(maxBodyBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && maxBodyBytes > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			}
			next.ServeHTTP(w, r)
			if r.Body != nil {
				_, _ = io.Copy(io.Discard, r.Body)
				_ = r.Body.Close()
			}
		})
	}
}
