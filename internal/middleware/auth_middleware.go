package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"schedule-go/internal/auth"
	"schedule-go/internal/models"
	"schedule-go/internal/services"
)

// contextKey 是用于在 context.Context 中存储值的自定义类型，以避免键冲突。
type contextKey string

// CallerKey 是用于在上下文中存储当前用户的键。
const CallerKey contextKey = "caller"

// ClaimsKey 是用于在上下文中存储 JWT claims 的键。
const ClaimsKey contextKey = "claims"

// Authenticator resolves a bearer token into the calling user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error)
}

// AuthMiddleware 验证 Bearer token，并把当前用户和 claims 放入请求上下文。
func AuthMiddleware(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthorized(w, "请求未包含授权令牌")
				return
			}

			headerParts := strings.Fields(authHeader)
			if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") {
				writeUnauthorized(w, "授权头部格式无效，应为 Bearer {token}")
				return
			}

			user, claims, err := authenticator.Authenticate(r.Context(), headerParts[1])
			if err != nil {
				if !errors.Is(err, services.ErrUnauthenticated) {
					log.Printf("Authentication failed for %s %s: %v", r.Method, r.URL.Path, err)
				}
				writeUnauthorized(w, "令牌无效或已过期")
				return
			}

			ctx := WithCaller(r.Context(), user, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithCaller returns a context carrying the authenticated user and claims.
func WithCaller(ctx context.Context, user *models.User, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, CallerKey, user)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// CallerFromContext 从上下文中获取当前用户。
func CallerFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(CallerKey).(*models.User)
	return user, ok && user != nil
}

// GetUserIDFromContext 从上下文中获取用户ID。
// 如果用户不存在，返回0和false。
func GetUserIDFromContext(ctx context.Context) (uint, bool) {
	user, ok := CallerFromContext(ctx)
	if !ok {
		return 0, false
	}
	return user.ID, true
}

// GetClaimsFromContext 从上下文中获取 JWT claims。
func GetClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
