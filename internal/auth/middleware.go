package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"parkease/internal/db"
	apperrors "parkease/internal/errors"
	"parkease/internal/repository"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the verified caller attached to every request. User is nil for
// a caller whose token verified but who has not registered a local profile
// yet; the registration endpoint accepts that state, everything else rejects.
type Identity struct {
	AuthUID string
	Email   string
	Name    string
	Phone   string
	User    *db.User
}

// Middleware verifies the Bearer token issued by the identity provider and
// resolves the local user row. Token issuance and credential checks stay with
// the provider; this only verifies the shared-secret signature.
func Middleware(users *repository.UserRepository) func(http.Handler) http.Handler {
	secret := []byte(os.Getenv("AUTH_TOKEN_SECRET"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims := jwt.MapClaims{}
			_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return secret, nil
			})
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			uid, _ := claims["sub"].(string)
			if uid == "" {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ident := &Identity{AuthUID: uid}
			if email, ok := claims["email"].(string); ok {
				ident.Email = email
			}
			if name, ok := claims["name"].(string); ok {
				ident.Name = name
			}
			if phone, ok := claims["phone"].(string); ok {
				ident.Phone = phone
			}

			user, err := users.GetByAuthUID(r.Context(), uid)
			switch {
			case err == nil:
				ident.User = user
			case errors.Is(err, apperrors.ErrNotFound):
				// verified identity without a local profile; registration only
			default:
				http.Error(w, "Authentication lookup failed", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom returns the verified identity on the request, if any.
func IdentityFrom(r *http.Request) (*Identity, bool) {
	ident, ok := r.Context().Value(identityKey).(*Identity)
	return ident, ok
}

// UserFrom returns the registered local user, or false when the caller has
// no profile yet.
func UserFrom(r *http.Request) (*db.User, bool) {
	ident, ok := IdentityFrom(r)
	if !ok || ident.User == nil {
		return nil, false
	}
	return ident.User, true
}
