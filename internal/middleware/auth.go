package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"boxcounter/internal/dto"
)

// publicPaths are reachable without a token.
var publicPaths = map[string]bool{
	"/health": true,
}

// AuthMiddleware requires the API token on every route except the public ones.
// The token is read from "Authorization: Bearer <token>", a bare
// Authorization value, or the "token" query parameter (browser websockets
// cannot set headers).
func AuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			provided, ok := extractToken(r)
			if !ok {
				unauthorized(w, "Authorization token required", "Include the header: Authorization: Bearer <token>")
				return
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				unauthorized(w, "Invalid token", "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		if rest, found := strings.CutPrefix(header, "Bearer "); found {
			rest = strings.TrimSpace(rest)
			return rest, rest != ""
		}
		return header, true
	}

	if t := r.URL.Query().Get("token"); t != "" {
		return t, true
	}
	return "", false
}

func unauthorized(w http.ResponseWriter, errText, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="boxcounter"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(dto.ErrorResponse{Success: false, Error: errText, Message: message})
}
