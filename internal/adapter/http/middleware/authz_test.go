package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minshop/order-api/configs"
)

const testSecret = "unit-test-secret"

func testAuthz() *Authz {
	cfg := configs.Config{}
	cfg.Security.JWTSecret = testSecret
	cfg.Security.Issuer = "https://id.minshop.dev"
	cfg.Security.Audience = "order-api"
	return NewAuthz(cfg)
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":   "https://id.minshop.dev",
		"aud":   "order-api",
		"sub":   "42",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"perms": []any{"orders.read", "orders.write"},
	}
}

func doAuthz(t *testing.T, header string, perms ...string) (*httptest.ResponseRecorder, int64, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var gotSeq int64
	var called bool
	r := gin.New()
	r.GET("/t", testAuthz().Require(perms...), func(c *gin.Context) {
		gotSeq, called = UserSeq(c)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w, gotSeq, called
}

func TestAuthzRequire(t *testing.T) {
	t.Run("valid token passes and exposes user seq", func(t *testing.T) {
		w, seq, called := doAuthz(t, "Bearer "+signToken(t, validClaims()), "orders.read")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.True(t, called)
		assert.Equal(t, int64(42), seq)
	})

	t.Run("missing header", func(t *testing.T) {
		w, _, called := doAuthz(t, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, called)
		assert.Contains(t, w.Header().Get("WWW-Authenticate"), "invalid_request")
	})

	t.Run("wrong signing key", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
		s, err := tok.SignedString([]byte("some-other-secret"))
		require.NoError(t, err)

		w, _, _ := doAuthz(t, "Bearer "+s)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := validClaims()
		claims["exp"] = time.Now().Add(-time.Hour).Unix()
		w, _, _ := doAuthz(t, "Bearer "+signToken(t, claims))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong audience", func(t *testing.T) {
		claims := validClaims()
		claims["aud"] = "inventory-api"
		w, _, _ := doAuthz(t, "Bearer "+signToken(t, claims))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("non-numeric subject", func(t *testing.T) {
		claims := validClaims()
		claims["sub"] = "abc"
		w, _, _ := doAuthz(t, "Bearer "+signToken(t, claims))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing permission", func(t *testing.T) {
		claims := validClaims()
		claims["perms"] = []any{"orders.read"}
		w, _, called := doAuthz(t, "Bearer "+signToken(t, claims), "orders.write")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, called)
	})
}
