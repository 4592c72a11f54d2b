package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/Clark-Hu/cinerank/internal/domain"
)

type contextKey struct{}

// WithVoter stores voter on ctx.
func WithVoter(ctx context.Context, voter domain.Voter) context.Context {
	return context.WithValue(ctx, contextKey{}, voter)
}

// FromContext returns the authenticated voter, or nil for anonymous requests.
func FromContext(ctx context.Context) *domain.Voter {
	voter, ok := ctx.Value(contextKey{}).(domain.Voter)
	if !ok {
		return nil
	}
	return &voter
}

// Middleware attaches the bearer token's voter to the request context.
// Requests without an Authorization header pass through anonymously; a
// header that does not verify is handed to reject.
func Middleware(m *Manager, reject func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				reject(w, r, domain.ErrUnauthenticated)
				return
			}
			voter, err := m.Verify(strings.TrimSpace(token))
			if err != nil {
				reject(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithVoter(r.Context(), voter)))
		})
	}
}
