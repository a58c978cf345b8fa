package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "CoinCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover turns panics into a generic 500 without leaking details.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					perr, ok := r.(error)
					if !ok {
						perr = fmt.Errorf("%v", r)
					}
					l.Error("panic recovered",
						applogger.String("path", c.Request().URL.Path),
						applogger.Error(perr),
						applogger.String("stack", string(debug.Stack())),
					)
					err = c.JSON(http.StatusInternalServerError, map[string]string{
						"error": "Unexpected error",
					})
				}
			}()
			return next(c)
		}
	}
}
