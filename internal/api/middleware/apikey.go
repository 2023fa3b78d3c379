package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/clipstack/clipstack/internal/auth"
	"github.com/clipstack/clipstack/internal/domain"
	"github.com/clipstack/clipstack/internal/storage"
)

// APIKeyHeader is the header carrying the plaintext key on external calls.
const APIKeyHeader = "X-API-Key"

const apiKeyContextKey contextKey = "api_key"

// APIKeyAuth authenticates external API requests. The plaintext key from the
// X-API-Key header is fingerprinted and looked up; only its hash ever touches
// the database.
func APIKeyAuth(store storage.Storage, hasher *auth.Hasher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			plaintext := r.Header.Get(APIKeyHeader)
			if plaintext == "" {
				http.Error(w, `{"code":401,"message":"missing API key"}`, http.StatusUnauthorized)
				return
			}

			ctx := r.Context()

			storedKey, err := store.GetAPIKeyByHash(ctx, hasher.Hash(plaintext))
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					http.Error(w, `{"code":401,"message":"invalid API key"}`, http.StatusUnauthorized)
					return
				}
				http.Error(w, `{"code":500,"message":"internal server error"}`, http.StatusInternalServerError)
				return
			}

			// Update last used timestamp (fire and forget)
			go func() {
				_ = store.UpdateAPIKeyLastUsed(context.Background(), storedKey.ID)
			}()

			ctx = context.WithValue(ctx, apiKeyContextKey, storedKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission rejects requests whose API key does not carry the given
// permission. Distinct from authentication: the caller is known but not
// allowed.
func RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := GetAPIKeyFromContext(r.Context())
			if key == nil {
				http.Error(w, `{"code":401,"message":"missing API key"}`, http.StatusUnauthorized)
				return
			}
			if !key.Can(perm) {
				http.Error(w, `{"code":403,"message":"insufficient permissions"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetAPIKeyFromContext retrieves the API key from the request context.
func GetAPIKeyFromContext(ctx context.Context) *domain.APIKey {
	key, _ := ctx.Value(apiKeyContextKey).(*domain.APIKey)
	return key
}
