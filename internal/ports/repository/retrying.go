package repository

import (
	"context"
	"errors"
	"time"

	"attendance.service/internal/core/model"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// Retrying wraps an AttendanceStore and retries calls that fail with
// ErrIndexNotReady. Every other error is returned on the first attempt.
type Retrying struct {
	next            AttendanceStore
	maxTries        uint
	initialInterval time.Duration
}

// NewRetrying decorates next with a bounded exponential backoff.
func NewRetrying(next AttendanceStore, maxTries uint, initialInterval time.Duration) *Retrying {
	if maxTries == 0 {
		maxTries = 1
	}
	return &Retrying{next: next, maxTries: maxTries, initialInterval: initialInterval}
}

func (r *Retrying) FindByUserAndDay(ctx context.Context, userID string, day model.Day) (*model.AttendanceRecord, error) {
	return retry(ctx, r, "find_by_user_and_day", func() (*model.AttendanceRecord, error) {
		return r.next.FindByUserAndDay(ctx, userID, day)
	})
}

func (r *Retrying) FindAllByDay(ctx context.Context, day model.Day) ([]model.AttendanceRecord, error) {
	return retry(ctx, r, "find_all_by_day", func() ([]model.AttendanceRecord, error) {
		return r.next.FindAllByDay(ctx, day)
	})
}

func (r *Retrying) FindRange(ctx context.Context, userID string, start, end model.Day) ([]model.AttendanceRecord, error) {
	return retry(ctx, r, "find_range", func() ([]model.AttendanceRecord, error) {
		return r.next.FindRange(ctx, userID, start, end)
	})
}

func (r *Retrying) Create(ctx context.Context, record model.AttendanceRecord) (string, error) {
	return retry(ctx, r, "create", func() (string, error) {
		return r.next.Create(ctx, record)
	})
}

func (r *Retrying) Update(ctx context.Context, id string, patch model.Patch) error {
	_, err := retry(ctx, r, "update", func() (struct{}, error) {
		return struct{}{}, r.next.Update(ctx, id, patch)
	})
	return err
}

func retry[T any](ctx context.Context, r *Retrying, op string, fn func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval

	return backoff.Retry(ctx, func() (T, error) {
		v, err := fn()
		if err != nil && !errors.Is(err, model.ErrIndexNotReady) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Ctx(ctx).Warn().Err(err).Str("op", op).Dur("retry_in", next).Msg("Attendance index not ready, retrying")
		}),
	)
}
