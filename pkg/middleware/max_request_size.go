package middleware

import "net/http"

// MaxRequestSize rejects request bodies larger than the configured limit.
// The body is wrapped rather than pre-read, so handlers see the normal
// error from MaxBytesReader when decoding oversized payloads.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
