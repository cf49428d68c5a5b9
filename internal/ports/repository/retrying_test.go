package repository

import (
	"context"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails the first failures calls to FindAllByDay with err.
type flakyStore struct {
	*Memory
	err      error
	failures int
	calls    int
}

func (f *flakyStore) FindAllByDay(ctx context.Context, day model.Day) ([]model.AttendanceRecord, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return f.Memory.FindAllByDay(ctx, day)
}

func TestRetrying_RetriesIndexNotReady(t *testing.T) {
	inner := &flakyStore{Memory: NewMemory(), err: model.ErrIndexNotReady, failures: 2}
	store := NewRetrying(inner, 4, time.Millisecond)

	_, err := store.FindAllByDay(context.Background(), model.Day{Year: 2025, Month: time.March, Day: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestRetrying_GivesUpAfterMaxTries(t *testing.T) {
	inner := &flakyStore{Memory: NewMemory(), err: model.ErrIndexNotReady, failures: 10}
	store := NewRetrying(inner, 3, time.Millisecond)

	_, err := store.FindAllByDay(context.Background(), model.Day{Year: 2025, Month: time.March, Day: 10})
	assert.ErrorIs(t, err, model.ErrIndexNotReady)
	assert.Equal(t, 3, inner.calls)
}

func TestRetrying_DoesNotRetryUnavailable(t *testing.T) {
	inner := &flakyStore{Memory: NewMemory(), err: model.ErrUnavailable, failures: 10}
	store := NewRetrying(inner, 5, time.Millisecond)

	_, err := store.FindAllByDay(context.Background(), model.Day{Year: 2025, Month: time.March, Day: 10})
	assert.ErrorIs(t, err, model.ErrUnavailable)
	assert.Equal(t, 1, inner.calls)
}

func TestRetrying_PassesDomainErrorsThrough(t *testing.T) {
	store := NewRetrying(NewMemory(), 3, time.Millisecond)
	day := model.Day{Year: 2025, Month: time.March, Day: 10}

	_, err := store.Create(context.Background(), model.AttendanceRecord{UserID: "u1", Date: day, Status: model.StatusAbsent})
	require.NoError(t, err)

	_, err = store.Create(context.Background(), model.AttendanceRecord{UserID: "u1", Date: day, Status: model.StatusAbsent})
	assert.ErrorIs(t, err, model.ErrDuplicateRecord)

	assert.ErrorIs(t, store.Update(context.Background(), "missing", model.Patch{OutTime: time.Now()}), model.ErrNotFound)
}
