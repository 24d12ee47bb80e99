package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// JSONErrorHandler renders every error echo surfaces (unknown routes, auth
// and rate-limit rejections, panics caught by Recover) as an ErrorResponse.
func JSONErrorHandler(logger *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := http.StatusInternalServerError, "internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = http.StatusText(code)
			if s, ok := he.Message.(string); ok && s != "" {
				msg = s
			}
		}
		if code >= http.StatusInternalServerError && logger != nil {
			logger.WithError(err).WithField("path", c.Request().URL.Path).Error("unhandled error")
		}

		resp := ErrorResponse{Error: msg, Code: code}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}
