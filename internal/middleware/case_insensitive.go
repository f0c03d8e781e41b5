package middleware

import (
	"net/http"
	"strings"
)

// CaseInsensitive converts all URL paths to lowercase so endpoints work
// regardless of case. Pairing QR codes encode URLs in uppercase because
// the alphanumeric QR mode packs those tighter.
func CaseInsensitive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.URL.Path = strings.ToLower(r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
