package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/accounts/apperr"
	"github.com/tech-arch1tect/accounts/services/logging"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorHandler renders every error as an ErrorResponse. Anything that is not
// a domain error or an echo HTTP error becomes a generic internal error.
func ErrorHandler(logger *logging.Service) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := translate(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			logger.Warn("failed to write error response", zap.Error(werr))
		}
	}
}

func translate(err error) (int, ErrorResponse) {
	if e, ok := apperr.As(err); ok {
		pub := apperr.Public(e)
		return pub.Status, ErrorResponse{Error: string(pub.Kind), Message: pub.Message}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, ErrorResponse{Error: string(apperr.KindInvalidRequest), Message: msg}
	}

	pub := apperr.Public(err)
	return pub.Status, ErrorResponse{Error: string(pub.Kind), Message: pub.Message}
}
