package loggingmw

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_checkout/pkg/logging"
	middleware "github.com/Skotchmaster/shop_checkout/pkg/middleware/auth"
)

// RequestLogger puts a request-scoped logger into the request context and
// writes one "request completed" record per request. Routes listed in quiet
// still get the logger but their completion is logged at debug level.
func RequestLogger(base *slog.Logger, quiet ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			l := base.With("method", req.Method, "route", c.Path())
			if rid := requestID(c); rid != "" {
				l = l.With("request_id", rid)
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			res := c.Response()
			attrs := []slog.Attr{
				slog.Int("status", res.Status),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.Int64("bytes", res.Size),
				slog.String("remote_ip", c.RealIP()),
			}
			if uid := middleware.UserID(c); uid != "" {
				attrs = append(attrs, slog.String("user_id", uid))
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}

			level := levelFor(res.Status)
			if level < slog.LevelWarn && slices.Contains(quiet, c.Path()) {
				level = slog.LevelDebug
			}
			l.LogAttrs(context.Background(), level, "request completed", attrs...)
			return nil
		}
	}
}

func requestID(c echo.Context) string {
	if rid := c.Request().Header.Get(echo.HeaderXRequestID); rid != "" {
		return rid
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
