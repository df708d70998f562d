package observability

import (
	"log/slog"

	"github.com/labstack/echo/v4"
)

// RequestLogger attaches a RequestContext to every request and logs its
// outcome. An inbound X-Request-Id is reused; otherwise one is generated and
// echoed back.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = generateRequestID()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			reqCtx := NewRequestContextWithID(logger, id, "")
			c.SetRequest(req.WithContext(WithRequestContext(req.Context(), reqCtx)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			level := slog.LevelDebug
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}
			reqCtx.log(level, "request completed", []slog.Attr{
				slog.String("method", req.Method),
				slog.String("path", c.Path()),
				slog.Int("status", status),
				slog.String("remote_ip", c.RealIP()),
				slog.Int64(LogFieldDuration, reqCtx.DurationMs()),
			})
			return nil
		}
	}
}
