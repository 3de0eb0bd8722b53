package middleware

import (
	"net/http"

	"github.com/dukerupert/loomworks/internal/domain"
)

// Common size limits
const (
	KB = 1024
	MB = 1024 * KB

	// SmallMaxBodySize covers JSON API requests.
	SmallMaxBodySize = 1 * MB

	// WebhookMaxBodySize covers provider event payloads.
	WebhookMaxBodySize = 512 * KB
)

// MaxBodySize rejects bodies larger than maxBytes with 413 and caps reads
// of bodies with unknown length.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				w.Write([]byte(`{"error":"Request body too large","code":"` + domain.EINVALID + `"}`))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
