package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

const internalErrorMessage = "Internal Server Error"

var errorStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidAttempt, http.StatusBadRequest},
	{domain.ErrInvalidRequest, http.StatusBadRequest},
	{domain.ErrUnknownQuestion, http.StatusNotFound},
	{domain.ErrProfileNotFound, http.StatusNotFound},
	{domain.ErrPodNotFound, http.StatusNotFound},
	{domain.ErrUserNotFound, http.StatusNotFound},
	{domain.ErrTournamentNotFound, http.StatusNotFound},
	{domain.ErrBattleNotFound, http.StatusNotFound},
	{domain.ErrUnauthenticated, http.StatusUnauthorized},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrUsernameTaken, http.StatusConflict},
	{domain.ErrPodFull, http.StatusConflict},
	{domain.ErrTournamentFull, http.StatusConflict},
}

// statusFor maps a domain error to its HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// clientMessage is the text shown to clients; internal errors are not exposed.
func clientMessage(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return internalErrorMessage
	}
	return err.Error()
}

func newErrorHandler(v *requestValidator, log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, message := http.StatusInternalServerError, internalErrorMessage
		var (
			httpErr   *echo.HTTPError
			validErrs validator.ValidationErrors
		)
		switch {
		case errors.As(err, &validErrs):
			status, message = http.StatusBadRequest, v.message(validErrs)
		case errors.As(err, &httpErr):
			status, message = httpErr.Code, fmt.Sprint(httpErr.Message)
		default:
			status = statusFor(err)
			message = clientMessage(err)
		}

		if status >= http.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Request().Method,
				"path":   c.Path(),
			}).Error("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, errorResponse{Success: false, Error: message})
		}
		if err != nil {
			log.WithError(err).Warn("write error response")
		}
	}
}
