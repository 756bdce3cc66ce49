package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifin/unifin/internal/transport/httpapi/middleware"
)

const testSecret = "test-secret-at-least-32-bytes-long"

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := middleware.NewJWTService(testSecret)
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "unifin", claims.Issuer)
}

func TestJWTService_ValidateToken_Errors(t *testing.T) {
	svc := middleware.NewJWTService(testSecret)
	userID := uuid.New()

	t.Run("wrong secret", func(t *testing.T) {
		other := middleware.NewJWTService("a-completely-different-secret-key")
		token, err := other.GenerateToken(userID, "alice@example.com")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.Error(t, err)
	})

	t.Run("unsigned algorithm rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"user_id": userID.String(),
		})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(signed)
		assert.Error(t, err)
	})
}

func TestJWTMiddleware(t *testing.T) {
	svc := middleware.NewJWTService(testSecret)
	userID := uuid.New()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, ok := middleware.GetUserIDFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, userID, gotID)

		email, ok := middleware.GetUserEmailFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, "alice@example.com", email)

		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.JWTMiddleware(svc)(next)

	t.Run("valid token passes through", func(t *testing.T) {
		token, err := svc.GenerateToken(userID, "alice@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshot", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshot", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshot", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("tampered token", func(t *testing.T) {
		token, err := svc.GenerateToken(userID, "alice@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshot", nil)
		req.Header.Set("Authorization", "Bearer "+token+"x")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
