package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movigo/movie-catalog/internal/config"
	"github.com/movigo/movie-catalog/internal/utils"
)

const testSecret = "test-secret"

func runMiddleware(mw echo.MiddlewareFunc, c echo.Context) (called bool, err error) {
	h := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	err = h(c)
	return called, err
}

func authedCtx(t *testing.T, token string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestJWTAuthPopulatesContext(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, true, 15)
	require.NoError(t, err)

	c, _ := authedCtx(t, tok.Token)
	called, err := runMiddleware(JWTAuth(testSecret), c)
	require.NoError(t, err)

	assert.True(t, called)
	assert.Equal(t, uint64(42), c.Get(CtxUserID))
	assert.Equal(t, true, c.Get(CtxIsAdmin))
}

func TestJWTAuthMissingHeader(t *testing.T) {
	c, rec := authedCtx(t, "")
	called, err := runMiddleware(JWTAuth(testSecret), c)
	require.NoError(t, err)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", 42, false, 15)
	require.NoError(t, err)

	c, rec := authedCtx(t, tok.Token)
	called, err := runMiddleware(JWTAuth(testSecret), c)
	require.NoError(t, err)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthGarbageToken(t *testing.T) {
	c, rec := authedCtx(t, "not.a.jwt")
	called, err := runMiddleware(JWTAuth(testSecret), c)
	require.NoError(t, err)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdminForbidsNonAdmins(t *testing.T) {
	c, rec := authedCtx(t, "")
	c.Set(CtxIsAdmin, false)
	called, err := runMiddleware(RequireAdmin(), c)
	require.NoError(t, err)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminForbidsWhenFlagAbsent(t *testing.T) {
	c, rec := authedCtx(t, "")
	called, err := runMiddleware(RequireAdmin(), c)
	require.NoError(t, err)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminPassesAdmins(t *testing.T) {
	c, rec := authedCtx(t, "")
	c.Set(CtxIsAdmin, true)
	called, err := runMiddleware(RequireAdmin(), c)
	require.NoError(t, err)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubjectIDAcceptsNumberAndString(t *testing.T) {
	id, ok := subjectID(map[string]interface{}{"sub": float64(7)})
	assert.True(t, ok)
	assert.Equal(t, uint64(7), id)

	id, ok = subjectID(map[string]interface{}{"sub": "7"})
	assert.True(t, ok)
	assert.Equal(t, uint64(7), id)

	_, ok = subjectID(map[string]interface{}{"sub": "seven"})
	assert.False(t, ok)
	_, ok = subjectID(map[string]interface{}{})
	assert.False(t, ok)
}

func TestDisabledCacheAndLimiterPassThrough(t *testing.T) {
	c, rec := authedCtx(t, "")
	called, err := runMiddleware(NewRedisCache(config.CacheConfig{Enabled: false}, nil), c)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))

	c, rec = authedCtx(t, "")
	called, err = runMiddleware(NewRateLimiter(config.RateLimitConfig{Enabled: true}, nil), c)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}
