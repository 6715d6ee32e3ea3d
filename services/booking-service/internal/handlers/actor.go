package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

type ctxKey int

const ctxKeyActor ctxKey = iota

// TokenParser verifies a bearer token. *auth.Verifier implements it.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

func ActorFromContext(ctx context.Context) (model.Actor, bool) {
	a, ok := ctx.Value(ctxKeyActor).(model.Actor)
	return a, ok
}

func ContextWithActor(ctx context.Context, a model.Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor, a)
}

// RequireActor authenticates the bearer token and stores the caller as a model.Actor.
func RequireActor(next http.Handler, tokens TokenParser) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") || len(strings.TrimSpace(authHeader)) <= len("Bearer ") {
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := tokens.Parse(token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			http.Error(w, "token verification failed", http.StatusUnauthorized)
			return
		}

		actor := model.Actor{
			UserID:     claims.Subject,
			Role:       model.Role(strings.ToLower(claims.Role)),
			ProviderID: claims.ProviderID,
		}
		if !actor.Role.Valid() {
			http.Error(w, "unknown role", http.StatusForbidden)
			return
		}
		if actor.Role == model.RoleProvider && actor.ProviderID == "" {
			http.Error(w, "provider token without provider_id", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
	})
}

// RequireRole must run inside RequireActor.
func RequireRole(next http.Handler, roles ...model.Role) http.Handler {
	allowed := map[model.Role]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		if _, ok := allowed[actor.Role]; !ok {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
