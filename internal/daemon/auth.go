package daemon

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/stevendeporre123/quest-app/internal/logging"
)

// bearerToken extracts the credential from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || presented == "" {
		return "", false
	}
	return presented, true
}

// requireToken guards a handler with the configured API token. With no
// token configured the API is open, which is only sensible on a loopback bind.
func (s *apiServer) requireToken(token string, next http.HandlerFunc) http.HandlerFunc {
	if token == "" {
		return next
	}
	want := []byte(token)
	return func(w http.ResponseWriter, r *http.Request) {
		presented, ok := bearerToken(r)
		if !ok || subtle.ConstantTimeCompare([]byte(presented), want) != 1 {
			s.log().Debug("rejected unauthenticated request",
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="questd"`)
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}
