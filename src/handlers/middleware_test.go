package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hossamsharif/shopledger/backend/src/logger"
	"github.com/hossamsharif/shopledger/backend/src/security"
	"github.com/hossamsharif/shopledger/backend/src/services"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func identityEchoHandler(w http.ResponseWriter, r *http.Request) {
	shopID, userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	sendJSON(w, http.StatusOK, map[string]int64{"shop_id": shopID, "user_id": userID})
}

func TestAuthMiddleware_InjectsIdentity(t *testing.T) {
	authService := security.NewAuthService("test-secret-value-of-sufficient-length", time.Hour)
	token, err := authService.GenerateToken(7, 42)
	require.NoError(t, err)

	handler := NewAuthMiddleware(authService)(http.HandlerFunc(identityEchoHandler))

	req := httptest.NewRequest(http.MethodGet, "/api/shop", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"shop_id":42,"user_id":7}`, rec.Body.String())
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	authService := security.NewAuthService("test-secret-value-of-sufficient-length", time.Hour)
	handler := NewAuthMiddleware(authService)(http.HandlerFunc(identityEchoHandler))

	// No header at all.
	req := httptest.NewRequest(http.MethodGet, "/api/shop", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A token signed with a different secret.
	other := security.NewAuthService("another-secret-another-secret-yes", time.Hour)
	token, err := other.GenerateToken(7, 42)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/shop", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireIdentity_WithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/shop", nil)
	rec := httptest.NewRecorder()
	identityEchoHandler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendDomainError_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("account 9: %w", services.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("duplicate code: %w", services.ErrConflict), http.StatusConflict},
		{fmt.Errorf("closed year: %w", services.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("bad amount: %w", services.ErrInvalid), http.StatusBadRequest},
		{fmt.Errorf("too deep: %w", services.ErrDepthExceeded), http.StatusBadRequest},
		{fmt.Errorf("cycle: %w", services.ErrCircularReference), http.StatusBadRequest},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/anything", nil)
		rec := httptest.NewRecorder()
		sendDomainError(rec, req, tc.err)
		assert.Equal(t, tc.code, rec.Code, "error: %v", tc.err)
	}
}
