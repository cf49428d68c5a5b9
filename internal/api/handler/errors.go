package handler

import (
	"context"
	"errors"
	"net/http"

	"attendance.service/internal/core/model"
)

// statusFor maps service errors to an HTTP status and a user-facing message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrAlreadyCheckedIn),
		errors.Is(err, model.ErrAlreadyCheckedOut),
		errors.Is(err, model.ErrMarkedAbsent),
		errors.Is(err, model.ErrNoCheckInFound):
		return http.StatusConflict, err.Error()
	case errors.Is(err, model.ErrInvalidInterval),
		errors.Is(err, model.ErrInvalidRange):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, model.ErrUserNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, model.ErrUnavailable),
		errors.Is(err, model.ErrIndexNotReady),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Attendance is temporarily unavailable, please try again shortly."
	default:
		return http.StatusInternalServerError, "Something went wrong while processing attendance."
	}
}
