package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prequal-service/domain"
)

func principalEcho(t *testing.T, got *Principal) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func validClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    "https://auth.example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "user@example.com",
	}
}

func TestAuthenticator_Middleware(t *testing.T) {
	auth := NewAuthenticator(testSecret, "https://auth.example.com", false, zap.NewNop())

	call := func(header string) (*httptest.ResponseRecorder, Principal) {
		var got Principal
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		auth.Middleware(principalEcho(t, &got)).ServeHTTP(rec, req)
		return rec, got
	}

	t.Run("valid token", func(t *testing.T) {
		rec, p := call("Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims()))
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, p.Authenticated)
		assert.Equal(t, "user-123", p.OwnerID())
		assert.Equal(t, "user@example.com", p.Email)
	})

	t.Run("no token is anonymous", func(t *testing.T) {
		rec, p := call("")
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.False(t, p.Authenticated)
		assert.Equal(t, domain.AnonymousOwner, p.OwnerID())
	})

	t.Run("rejects bad tokens", func(t *testing.T) {
		expired := validClaims()
		expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

		noExpiry := validClaims()
		noExpiry.ExpiresAt = nil

		wrongIssuer := validClaims()
		wrongIssuer.Issuer = "https://evil.example.com"

		noSubject := validClaims()
		noSubject.Subject = ""

		for name, header := range map[string]string{
			"garbage":      "Bearer not-a-jwt",
			"wrong secret": "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), validClaims()),
			"wrong alg":    "Bearer " + sign(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims()),
			"expired":      "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), expired),
			"no expiry":    "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), noExpiry),
			"wrong issuer": "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), wrongIssuer),
			"no subject":   "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), noSubject),
		} {
			rec, _ := call(header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
		}
	})
}

func TestAuthenticator_Required(t *testing.T) {
	auth := NewAuthenticator(testSecret, "", true, zap.NewNop())

	var got Principal
	rec := httptest.NewRecorder()
	auth.Middleware(principalEcho(t, &got)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticator_NoSecret(t *testing.T) {
	auth := NewAuthenticator("", "", false, zap.NewNop())

	var got Principal
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	auth.Middleware(principalEcho(t, &got)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, got.Authenticated)
}

func TestAuthenticator_RequireAuthenticated(t *testing.T) {
	auth := NewAuthenticator(testSecret, "", false, zap.NewNop())
	var got Principal
	h := auth.RequireAuthenticated(principalEcho(t, &got))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithPrincipal(req.Context(), Principal{ID: "u1", Authenticated: true}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u1", got.ID)
}
