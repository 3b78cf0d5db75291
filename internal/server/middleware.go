package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/kazkleen/crm/internal/storage"
)

type principalKey struct{}

// Principal is the authenticated caller of a request.
type Principal struct {
	Username string
	Role     storage.Role
}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// authMiddleware accepts a bearer token issued by POST /session or HTTP basic
// credentials.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p Principal

		if header := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(header), "bearer ") {
			claims, err := s.tokens.Parse(strings.TrimSpace(header[len("bearer "):]))
			if err != nil {
				respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			p = Principal{Username: claims.Username, Role: claims.Role}
		} else if username, password, ok := r.BasicAuth(); ok {
			user, err := s.users.Authenticate(r.Context(), username, password)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
				respondError(w, http.StatusUnauthorized, "Invalid credentials. Please try again.")
				return
			}
			p = Principal{Username: user.Username, Role: user.Role}
		} else {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		setAuditUser(r.Context(), p.Username)
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
	})
}

func (s *Server) requireManager(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if p.Role != storage.RoleManager {
			respondError(w, http.StatusForbidden, "Manager role required")
			return
		}
		next(w, r)
	}
}
