package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(users ...model.Employee) (*AttendanceService, *repository.Memory, *recordingPublisher) {
	store := repository.NewMemory()
	pub := &recordingPublisher{}
	svc := NewAttendanceService(store, &staticDirectory{users: users}, testPolicy(), pub)
	return svc, store, pub
}

func TestAttendanceService_CheckInThenCheckOut(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newTestService()

	rec, err := svc.CheckIn(ctx, "u1", on(10, 5))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, testDay, rec.Date)
	assert.Equal(t, model.StatusPresent, rec.Status)
	require.NotNil(t, rec.InTime)
	assert.Nil(t, rec.OutTime)
	assert.Equal(t, 0.0, rec.Overtime)

	out, err := svc.CheckOut(ctx, "u1", on(18, 35))
	require.NoError(t, err)
	assert.Equal(t, rec.ID, out.ID)
	require.NotNil(t, out.OutTime)
	assert.Equal(t, 0.5, out.Overtime)

	stored, err := store.FindByUserAndDay(ctx, "u1", testDay)
	require.NoError(t, err)
	assert.Equal(t, 0.5, stored.Overtime)
	assert.Equal(t, model.StateCheckedOut, stored.State())
	assert.Equal(t, 1, store.Len())

	assert.Equal(t, []messaging.EventType{messaging.EventCheckedIn, messaging.EventCheckedOut}, pub.types())
}

func TestAttendanceService_CheckInClassifiesStatus(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want model.Status
	}{
		{"on time", on(9, 45), model.StatusPresent},
		{"late", on(10, 30), model.StatusLate},
		{"after absent threshold", on(11, 30), model.StatusAbsent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			rec, err := svc.CheckIn(context.Background(), "u1", tt.at)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Status)
			require.NotNil(t, rec.InTime)
			assert.True(t, tt.at.Equal(*rec.InTime))
		})
	}
}

func TestAttendanceService_SecondCheckInFails(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService()

	_, err := svc.CheckIn(ctx, "u1", on(9, 0))
	require.NoError(t, err)

	_, err = svc.CheckIn(ctx, "u1", on(9, 30))
	assert.ErrorIs(t, err, model.ErrAlreadyCheckedIn)

	_, err = svc.CheckOut(ctx, "u1", on(17, 0))
	require.NoError(t, err)

	_, err = svc.CheckIn(ctx, "u1", on(17, 30))
	assert.ErrorIs(t, err, model.ErrAlreadyCheckedIn, "a user checks in at most once per day")
	assert.Equal(t, 1, store.Len())
}

func TestAttendanceService_CheckInNextDayIsAllowed(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService()

	_, err := svc.CheckIn(ctx, "u1", on(9, 0))
	require.NoError(t, err)

	_, err = svc.CheckIn(ctx, "u1", on(9, 0).AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
}

func TestAttendanceService_CheckInAfterSweepFails(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	_, err := store.Create(ctx, model.AttendanceRecord{UserID: "u1", Date: testDay, Status: model.StatusAbsent})
	require.NoError(t, err)

	svc := NewAttendanceService(store, &staticDirectory{}, testPolicy(), nil)
	_, err = svc.CheckIn(ctx, "u1", on(12, 0))
	assert.ErrorIs(t, err, model.ErrMarkedAbsent)

	_, err = svc.CheckOut(ctx, "u1", on(18, 0))
	assert.ErrorIs(t, err, model.ErrNoCheckInFound)
}

// racingStore reports no existing record, then loses the insert race.
type racingStore struct {
	*repository.Memory
}

func (racingStore) FindByUserAndDay(context.Context, string, model.Day) (*model.AttendanceRecord, error) {
	return nil, nil
}

func (racingStore) Create(context.Context, model.AttendanceRecord) (string, error) {
	return "", model.ErrDuplicateRecord
}

func TestAttendanceService_CheckInLostRaceReportsAlreadyCheckedIn(t *testing.T) {
	svc := NewAttendanceService(racingStore{repository.NewMemory()}, &staticDirectory{}, testPolicy(), nil)

	_, err := svc.CheckIn(context.Background(), "u1", on(9, 0))
	assert.ErrorIs(t, err, model.ErrAlreadyCheckedIn)
}

func TestAttendanceService_CheckOutErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	_, err := svc.CheckOut(ctx, "u1", on(18, 0))
	assert.ErrorIs(t, err, model.ErrNoCheckInFound)

	_, err = svc.CheckIn(ctx, "u1", on(10, 0))
	require.NoError(t, err)

	_, err = svc.CheckOut(ctx, "u1", on(10, 0))
	assert.ErrorIs(t, err, model.ErrInvalidInterval)

	_, err = svc.CheckOut(ctx, "u1", on(19, 0))
	require.NoError(t, err)

	_, err = svc.CheckOut(ctx, "u1", on(19, 30))
	assert.ErrorIs(t, err, model.ErrAlreadyCheckedOut)
}

// lockstepStore makes concurrent callers read the same state before any of
// them writes.
type lockstepStore struct {
	*repository.Memory
	readers sync.WaitGroup
}

func (s *lockstepStore) FindByUserAndDay(ctx context.Context, userID string, day model.Day) (*model.AttendanceRecord, error) {
	rec, err := s.Memory.FindByUserAndDay(ctx, userID, day)
	s.readers.Done()
	s.readers.Wait()
	return rec, err
}

func TestAttendanceService_ConcurrentCheckOutClosesRecordOnce(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemory()
	in := on(10, 0)
	_, err := mem.Create(ctx, model.AttendanceRecord{UserID: "u1", Date: testDay, InTime: &in, Status: model.StatusPresent})
	require.NoError(t, err)

	store := &lockstepStore{Memory: mem}
	store.readers.Add(2)
	pub := &recordingPublisher{}
	svc := NewAttendanceService(store, &staticDirectory{}, testPolicy(), pub)

	outs := []time.Time{on(17, 0), on(19, 0)}
	errs := make([]error, len(outs))
	var wg sync.WaitGroup
	for i, out := range outs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.CheckOut(ctx, "u1", out)
		}()
	}
	wg.Wait()

	var winner int
	var succeeded int
	for i, err := range errs {
		if err == nil {
			succeeded++
			winner = i
			continue
		}
		assert.ErrorIs(t, err, model.ErrAlreadyCheckedOut)
	}
	require.Equal(t, 1, succeeded)

	rec, err := mem.FindByUserAndDay(ctx, "u1", testDay)
	require.NoError(t, err)
	require.NotNil(t, rec.OutTime)
	assert.True(t, outs[winner].Equal(*rec.OutTime))
	assert.Equal(t, []messaging.EventType{messaging.EventCheckedOut}, pub.types())
}

type unavailableStore struct {
	*repository.Memory
}

func (unavailableStore) FindByUserAndDay(context.Context, string, model.Day) (*model.AttendanceRecord, error) {
	return nil, model.ErrUnavailable
}

func TestAttendanceService_PropagatesUnavailable(t *testing.T) {
	svc := NewAttendanceService(unavailableStore{repository.NewMemory()}, &staticDirectory{}, testPolicy(), nil)

	_, err := svc.CheckIn(context.Background(), "u1", on(9, 0))
	assert.ErrorIs(t, err, model.ErrUnavailable)

	_, err = svc.CheckOut(context.Background(), "u1", on(18, 0))
	assert.ErrorIs(t, err, model.ErrUnavailable)

	_, err = svc.GetTodayStatus(context.Background(), "u1", on(18, 0))
	assert.ErrorIs(t, err, model.ErrUnavailable)
}

func TestAttendanceService_PublishFailureDoesNotFailCheckIn(t *testing.T) {
	store := repository.NewMemory()
	pub := &recordingPublisher{err: errors.New("queue down")}
	svc := NewAttendanceService(store, &staticDirectory{}, testPolicy(), pub)

	rec, err := svc.CheckIn(context.Background(), "u1", on(9, 0))
	require.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Equal(t, 1, store.Len())
}

func TestAttendanceService_GetTodayStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	st, err := svc.GetTodayStatus(ctx, "u1", on(8, 0))
	require.NoError(t, err)
	assert.Equal(t, model.StateNoRecord, st.State)
	assert.Nil(t, st.Record)
	assert.Equal(t, testDay, st.Day)

	_, err = svc.CheckIn(ctx, "u1", on(9, 0))
	require.NoError(t, err)
	st, err = svc.GetTodayStatus(ctx, "u1", on(12, 0))
	require.NoError(t, err)
	assert.Equal(t, model.StateCheckedIn, st.State)
	require.NotNil(t, st.Record)

	_, err = svc.CheckOut(ctx, "u1", on(17, 0))
	require.NoError(t, err)
	st, err = svc.GetTodayStatus(ctx, "u1", on(20, 0))
	require.NoError(t, err)
	assert.Equal(t, model.StateCheckedOut, st.State)
}

func TestAttendanceService_ListRecords(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	for d := 0; d < 3; d++ {
		_, err := svc.CheckIn(ctx, "u1", on(9, 0).AddDate(0, 0, d))
		require.NoError(t, err)
		_, err = svc.CheckIn(ctx, "u2", on(10, 20).AddDate(0, 0, d))
		require.NoError(t, err)
	}

	all, err := svc.ListRecords(ctx, "", testDay, testDay.AddDays(2))
	require.NoError(t, err)
	assert.Len(t, all, 6)
	assert.Equal(t, testDay.AddDays(2), all[0].Date)
	assert.Equal(t, testDay, all[len(all)-1].Date)

	mine, err := svc.ListRecords(ctx, "u2", testDay.AddDays(1), testDay.AddDays(1))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, model.StatusLate, mine[0].Status)

	_, err = svc.ListRecords(ctx, "", testDay, testDay.AddDays(-1))
	assert.ErrorIs(t, err, model.ErrInvalidRange)
}

func TestAttendanceService_Summarize(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService()

	_, err := svc.CheckIn(ctx, "u1", on(9, 0))
	require.NoError(t, err)
	_, err = svc.CheckOut(ctx, "u1", on(18, 0))
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, "u1", on(10, 30).AddDate(0, 0, 1))
	require.NoError(t, err)
	_, err = store.Create(ctx, model.AttendanceRecord{UserID: "u1", Date: testDay.AddDays(2), Status: model.StatusAbsent})
	require.NoError(t, err)
	// Previous month is not counted.
	_, err = store.Create(ctx, model.AttendanceRecord{UserID: "u1", Date: model.Day{Year: 2025, Month: time.February, Day: 28}, Status: model.StatusAbsent})
	require.NoError(t, err)

	sum, err := svc.Summarize(ctx, "u1", testDay)
	require.NoError(t, err)
	assert.Equal(t, "2025-03", sum.Month)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.Present)
	assert.Equal(t, 1, sum.Late)
	assert.Equal(t, 1, sum.Absent)
	assert.Equal(t, 1.0, sum.OvertimeHours)
}

func TestAttendanceService_Report(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(
		model.Employee{ID: "m1", Email: "boss@example.com", Name: "Boss", IsManager: true},
		model.Employee{ID: "u1", Email: "ana@example.com", Name: "Ana"},
		model.Employee{ID: "u2", Email: "bo@example.com"},
	)

	_, err := svc.CheckIn(ctx, "u1", on(9, 0))
	require.NoError(t, err)
	_, err = svc.CheckOut(ctx, "u1", on(17, 45))
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, "u2", on(9, 10))
	require.NoError(t, err)

	rows, err := svc.Report(ctx, "m1", "", testDay, testDay)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ana", rows[0].EmployeeName)
	assert.Equal(t, 8*60+45, rows[0].WorkedMinutes)
	assert.Equal(t, "bo@example.com", rows[1].EmployeeName)
	assert.Equal(t, 0, rows[1].WorkedMinutes)

	_, err = svc.Report(ctx, "u1", "", testDay, testDay)
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = svc.Report(ctx, "ghost", "", testDay, testDay)
	assert.ErrorIs(t, err, model.ErrForbidden)
}
