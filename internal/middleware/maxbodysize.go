package middleware

import (
	"net/http"
)

// tooLargeBody is written when the declared Content-Length is over the limit.
// It matches the error envelope the handlers use.
const tooLargeBody = `{"error":{"code":"validation_error","message":"request body too large"}}` + "\n"

// NewMaxBodySizeHandler returns a middleware that limits incoming request body
// sizes to limit bytes. Requests whose Content-Length exceeds the limit are
// rejected with 413 before reaching the next handler. Bodies without a length
// (chunked uploads) are wrapped in http.MaxBytesReader, so the handler's read
// fails with *http.MaxBytesError once limit bytes have been consumed.
//
// A limit <= 0 disables enforcement.
func NewMaxBodySizeHandler(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_, _ = w.Write([]byte(tooLargeBody))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
