package model

import "errors"

// Domain errors. These are caused by the caller's state and are never retried.
var (
	ErrAlreadyCheckedIn  = errors.New("you have already checked in today")
	ErrAlreadyCheckedOut = errors.New("you have already checked out today")
	ErrNoCheckInFound    = errors.New("no check-in record found for today")
	ErrMarkedAbsent      = errors.New("today has already been recorded as absent")
	ErrInvalidInterval   = errors.New("check-out must be after check-in")
	ErrInvalidRange      = errors.New("end date is before start date")
	ErrForbidden         = errors.New("only managers can view attendance reports")
	ErrUserNotFound      = errors.New("user not found")
)

// Infrastructure errors returned by stores and directories.
var (
	ErrNotFound        = errors.New("attendance record not found")
	ErrDuplicateRecord = errors.New("attendance record already exists for this user and day")
	ErrRecordClosed    = errors.New("attendance record is already checked out")
	ErrUnavailable     = errors.New("attendance store is temporarily unavailable")
	ErrIndexNotReady   = errors.New("attendance store index is not ready")
)
