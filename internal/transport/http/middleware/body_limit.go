package middleware

import (
	"net/http"
	"strings"
)

// BodyLimit caps request bodies at maxBytes. Multipart uploads get
// uploadBytes plus a small allowance for the form fields around the file.
func BodyLimit(maxBytes, uploadBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
				limit := maxBytes
				if isMultipart(r) && uploadBytes > 0 {
					limit = uploadBytes + 1<<20
				}
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}
