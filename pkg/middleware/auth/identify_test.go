package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shop_checkout/pkg/tokens"
)

var secret = []byte("test-jwt-secret")

func newServer(t *testing.T) *echo.Echo {
	t.Helper()

	m := NewIdentityMiddleware(secret)
	e := echo.New()

	whoami := func(c echo.Context) error {
		return c.String(http.StatusOK, UserID(c))
	}
	e.GET("/open", whoami, m.Identify)
	e.GET("/private", whoami, m.Identify, RequireAuth)
	e.GET("/admin", whoami, m.Identify, RequireRole("admin"))
	return e
}

func do(e *echo.Echo, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func accessCookie(t *testing.T, sub, role string, exp time.Time) *http.Cookie {
	t.Helper()
	tok, err := tokens.NewAccessToken(sub, role, exp, secret)
	require.NoError(t, err)
	return &http.Cookie{Name: AccessCookie, Value: tok, Path: "/"}
}

func TestIdentify(t *testing.T) {
	e := newServer(t)

	rec := do(e, "/open", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(e, "/open", accessCookie(t, "user-1", "user", time.Now().Add(time.Minute)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())

	rec = do(e, "/open", accessCookie(t, "user-1", "user", time.Now().Add(-time.Minute)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, "/open", &http.Cookie{Name: AccessCookie, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	e := newServer(t)

	assert.Equal(t, http.StatusUnauthorized, do(e, "/private", nil).Code)
	assert.Equal(t, http.StatusOK, do(e, "/private", accessCookie(t, "u", "user", time.Now().Add(time.Minute))).Code)
}

func TestRequireRole(t *testing.T) {
	e := newServer(t)

	assert.Equal(t, http.StatusUnauthorized, do(e, "/admin", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(e, "/admin", accessCookie(t, "u", "user", time.Now().Add(time.Minute))).Code)
	assert.Equal(t, http.StatusOK, do(e, "/admin", accessCookie(t, "u", "admin", time.Now().Add(time.Minute))).Code)
}
