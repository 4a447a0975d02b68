package http

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// RequireAPIKey rejects /api requests that do not carry one of keys, either
// as "Authorization: Bearer <key>", as an X-API-Key header, or (for event
// streams opened by EventSource, which cannot set headers) as the
// access_token query parameter. A missing key is 401, a wrong one 403.
func RequireAPIKey(keys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			presented := extractAPIKey(r)
			if presented == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="calbot"`)
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "API key required"})
				return
			}
			if !matchKey(keys, presented) {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid API key"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if r.Method == http.MethodGet {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

func matchKey(keys []string, presented string) bool {
	ok := 0
	for _, k := range keys {
		ok |= subtle.ConstantTimeCompare([]byte(k), []byte(presented))
	}
	return ok == 1
}
