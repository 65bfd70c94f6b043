package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/okamoto/oracle-hr-api/internal/models"
	"go.uber.org/zap"
)

const msgInternal = "internal server error"

// ErrorHandler maps handler errors onto JSON responses. Errors that are not
// *echo.HTTPError are upstream failures: the client gets a generic 500 and the
// cause goes to the log only.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, msg := classify(err)

		fields := []zap.Field{
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Int("status", status),
			zap.Error(err),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
		} else {
			logger.Debug("request rejected", fields...)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, models.ErrorResponse{Error: msg})
		}
		if err != nil {
			logger.Error("failed to write error response", zap.Error(err))
		}
	}
}

func classify(err error) (int, string) {
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return http.StatusInternalServerError, msgInternal
	}

	switch {
	case he.Code >= http.StatusInternalServerError:
		return he.Code, msgInternal
	case he.Code == http.StatusUnauthorized, he.Code == http.StatusForbidden:
		// no detail about why a token was refused
		return he.Code, http.StatusText(he.Code)
	}

	if msg, ok := he.Message.(string); ok && msg != "" {
		return he.Code, msg
	}
	return he.Code, http.StatusText(he.Code)
}
