package repository

import (
	"context"

	"attendance.service/internal/core/model"
)

// AttendanceStore is the persistence port for attendance records.
//
// Implementations report ErrUnavailable when the backing store cannot be
// reached and ErrIndexNotReady when a required view is still being built.
// Create rejects a second record for the same user and day with
// ErrDuplicateRecord.
type AttendanceStore interface {
	FindByUserAndDay(ctx context.Context, userID string, day model.Day) (*model.AttendanceRecord, error)
	FindAllByDay(ctx context.Context, day model.Day) ([]model.AttendanceRecord, error)
	// FindRange returns records between start and end inclusive, newest first.
	// An empty userID matches every user.
	FindRange(ctx context.Context, userID string, start, end model.Day) ([]model.AttendanceRecord, error)
	Create(ctx context.Context, record model.AttendanceRecord) (string, error)
	Update(ctx context.Context, id string, patch model.Patch) error
}
