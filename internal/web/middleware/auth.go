package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/JonMunkholm/csvload/internal/config"
	"github.com/JonMunkholm/csvload/internal/logging"
)

// APIKeyAuth rejects requests without a valid X-API-Key header when
// cfg.RequireAPIKey is set. Otherwise every request passes.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-API-Key")
			status, code := 0, ""
			switch {
			case key == "":
				status, code = http.StatusUnauthorized, "AUTH001"
			case !isValidAPIKey(key, cfg.APIKeys):
				status, code = http.StatusForbidden, "AUTH002"
			}
			if status != 0 {
				logging.FromContext(r.Context()).Warn("api key rejected",
					"path", r.URL.Path,
					"code", code,
					"remote_addr", r.RemoteAddr,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"error":"` + http.StatusText(status) + `","code":"` + code + `"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isValidAPIKey compares key against every configured key in constant time.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, k := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(k))
	}
	return valid == 1
}
