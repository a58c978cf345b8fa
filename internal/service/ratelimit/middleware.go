package ratelimit

import (
	xhttp "CoinCast/pkg/http"

	"github.com/labstack/echo/v4"
)

// Middleware rejects clients, keyed by real IP, whose bucket is empty.
func Middleware(l *Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("Too many requests"))
			}
			return next(c)
		}
	}
}
