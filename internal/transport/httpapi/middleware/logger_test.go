package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifin/unifin/internal/transport/httpapi/middleware"
	"github.com/unifin/unifin/pkg/logger"
)

func TestLogger_RecordsAuthenticatedUser(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New("production", &buf)
	svc := middleware.NewJWTService(testSecret)
	userID := uuid.New()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	chain := middleware.Logger(log)(middleware.JWTMiddleware(svc)(next))

	t.Run("authenticated request carries user_id", func(t *testing.T) {
		buf.Reset()

		token, err := svc.GenerateToken(userID, "alice@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/links", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		chain.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, buf.String(), `"user_id":"`+userID.String()+`"`)
	})

	t.Run("anonymous request logs without user_id", func(t *testing.T) {
		buf.Reset()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/links", nil)
		rec := httptest.NewRecorder()

		chain.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotContains(t, buf.String(), "user_id")
	})
}
