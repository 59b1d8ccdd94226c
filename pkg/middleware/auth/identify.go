package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_checkout/pkg/tokens"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"

	AccessCookie = "accessToken"
)

type IdentityMiddleware struct {
	JWTSecret []byte
}

func NewIdentityMiddleware(secret []byte) *IdentityMiddleware {
	return &IdentityMiddleware{JWTSecret: secret}
}

// Identify attaches the caller identity from the access cookie when one is sent.
// Requests without the cookie pass through anonymously; a bad cookie is rejected.
func (m *IdentityMiddleware) Identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		accessCookie, err := c.Cookie(AccessCookie)
		if err != nil || accessCookie.Value == "" {
			return next(c)
		}

		claims, err := tokens.AccessClaimsFromToken(accessCookie.Value, m.JWTSecret)
		if err != nil || claims == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}
		if claims.Subject == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
		}

		setUserContext(c, claims)
		return next(c)
	}
}

// RequireAuth rejects requests that Identify left anonymous.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if UserID(c) == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}
		return next(c)
	}
}

func RequireRole(required ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing role")
			}
			if !slices.Contains(required, role) {
				return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights to see this page")
			}
			return next(c)
		}
	}
}

func UserID(c echo.Context) string {
	s, _ := c.Get(CtxUserID).(string)
	return s
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(CtxUserID, claims.Subject)
	c.Set(CtxRole, claims.Role)
}
