package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-orders-api/internal/accounts"
	"go.uber.org/zap"
)

type Authenticator interface {
	Authenticate(ctx context.Context, access string) (accounts.User, error)
}

type userKey struct{}

// CurrentUser returns the caller resolved by RequireAuth.
func CurrentUser(ctx context.Context) (accounts.User, bool) {
	u, ok := ctx.Value(userKey{}).(accounts.User)
	return u, ok
}

// RequireAuth rejects requests without a valid bearer access token.
func RequireAuth(a Authenticator, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
				return
			}
			u, err := a.Authenticate(r.Context(), strings.TrimSpace(token))
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				writeError(w, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, u)))
		})
	}
}
