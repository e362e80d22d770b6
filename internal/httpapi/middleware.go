package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/apperr"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/auth"
)

type contextKey int

const identityKey contextKey = 0

// identityFrom returns the verified identity stored by requireAuth.
func identityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}

// requireAuth verifies the bearer token and stores the identity in the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, fmt.Errorf("%w: missing bearer token", apperr.ErrUnauthorized))
			return
		}
		identity, err := s.auth.Verify(token)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	}
}

// requireAdmin is requireAuth plus an admin-role check.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := identityFrom(r.Context())
		if !identity.IsAdmin() {
			writeError(w, fmt.Errorf("%w: admin access required", apperr.ErrForbidden))
			return
		}
		next(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	// Browsers cannot set headers on websocket dials; allow ?token=.
	return r.URL.Query().Get("token")
}
