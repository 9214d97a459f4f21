package status

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func RouteSkipper(routes []string) middleware.Skipper {
	routesMap := map[string]struct{}{}
	for _, route := range routes {
		routesMap[route] = struct{}{}
	}

	return func(ec echo.Context) bool {
		_, ok := routesMap[ec.Path()]
		return ok
	}
}

// WithSkipper bypasses m for requests matched by skipper.
func WithSkipper(skipper middleware.Skipper, m echo.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		wrapped := m(next)
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}
			return wrapped(c)
		}
	}
}
