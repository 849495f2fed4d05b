package http

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"lms-service/internal/domain"
)

var kindStatus = map[domain.Kind]int{
	domain.KindNotFound:         http.StatusNotFound,
	domain.KindInvalidQuizState: http.StatusUnprocessableEntity,
	domain.KindInvalidInput:     http.StatusBadRequest,
	domain.KindUnauthorized:     http.StatusUnauthorized,
	domain.KindForbidden:        http.StatusForbidden,
	domain.KindNotEnrolled:      http.StatusForbidden,
	domain.KindDuplicateAttempt: http.StatusConflict,
	domain.KindConflict:         http.StatusConflict,
}

// newErrorHandler renders every error returned by a handler as an envelope.
// Domain errors keep their own message; anything unclassified is logged and
// hidden behind a generic 500.
func newErrorHandler(log *zap.Logger, v *requestValidator) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var (
			code    int
			message string
			data    interface{}
			httpErr *echo.HTTPError
			verrs   validator.ValidationErrors
			domErr  *domain.Error
		)
		switch {
		case errors.As(err, &httpErr):
			code = httpErr.Code
			message = fmt.Sprint(httpErr.Message)
		case errors.As(err, &verrs):
			code = http.StatusBadRequest
			message = "validation failed"
			data = v.fieldErrors(verrs)
		case errors.As(err, &domErr):
			code = kindStatus[domErr.Kind()]
			if code == 0 {
				code = http.StatusInternalServerError
			}
			message = domErr.Error()
		default:
			code = http.StatusInternalServerError
			message = http.StatusText(code)
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = fail(c, code, message, data)
		}
		if err != nil {
			log.Warn("writing error response", zap.Error(err))
		}
	}
}
