package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"

	"travelapi/pkg/logger"
)

const adminRole = "admin"

// AdminAuth guards a route with the "caller is admin" capability check:
// a bearer JWT signed with the shared secret and carrying role=admin.
func AdminAuth(secret string, log *logger.Logger) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			token, ok := extractBearerToken(r)
			if !ok {
				rejectAdmin(w, log, r, "Missing bearer token")
				return
			}

			claims := jwt.MapClaims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !parsed.Valid {
				rejectAdmin(w, log, r, "Invalid token")
				return
			}

			if role, _ := claims["role"].(string); role != adminRole {
				rejectAdmin(w, log, r, "Token missing admin role")
				return
			}

			next(w, r, ps)
		}
	}
}

func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func rejectAdmin(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	log.Warn("Admin authorization failed",
		"request_id", RequestIDFromContext(r.Context()),
		"reason", reason,
		"path", r.URL.Path,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"code":"UNAUTHORIZED","message":"Unauthorized"}`))
}
