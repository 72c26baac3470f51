package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkease/internal/repository"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newAuthedServer(t *testing.T, users *repository.UserRepository) http.Handler {
	t.Helper()
	t.Setenv("AUTH_TOKEN_SECRET", testSecret)
	return Middleware(users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := IdentityFrom(r)
		require.True(t, ok)
		w.Header().Set("X-Auth-UID", ident.AuthUID)
		if user, ok := UserFrom(r); ok {
			w.Header().Set("X-User-ID", user.ID.String())
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func userRows(userID uuid.UUID, authUID string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "auth_uid", "name", "phone", "email", "created_at", "updated_at"}).
		AddRow(userID, authUID, "Dana", "+15550100", "dana@example.com", now, now)
}

func TestMiddleware_ValidToken(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	userID := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE auth_uid").
		WithArgs("uid-1").
		WillReturnRows(userRows(userID, "uid-1"))

	handler := newAuthedServer(t, repository.NewUserRepository(database))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, jwt.MapClaims{
		"sub": "uid-1", "email": "dana@example.com",
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "uid-1", rec.Header().Get("X-Auth-UID"))
	assert.Equal(t, userID.String(), rec.Header().Get("X-User-ID"))
}

func TestMiddleware_UnregisteredCallerPassesWithoutUser(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE auth_uid").
		WithArgs("uid-new").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	handler := newAuthedServer(t, repository.NewUserRepository(database))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, jwt.MapClaims{"sub": "uid-new"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "uid-new", rec.Header().Get("X-Auth-UID"))
	assert.Empty(t, rec.Header().Get("X-User-ID"))
}

func TestMiddleware_Rejections(t *testing.T) {
	database, _, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	handler := newAuthedServer(t, repository.NewUserRepository(database))

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong signature", func(t *testing.T) {
		bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "uid-1"}).
			SignedString([]byte("some-other-secret"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+bad)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unsigned token", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "uid-1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+unsigned)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing subject", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, jwt.MapClaims{"email": "x@example.com"}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
