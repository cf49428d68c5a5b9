package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/core/policy"
	"attendance.service/internal/ports/directory"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// AttendanceService runs the per user, per day check-in/check-out lifecycle:
// NO_RECORD -> CHECKED_IN -> CHECKED_OUT. Each call reads the current record
// before writing, so a caller may safely retry a failed call.
type AttendanceService struct {
	store     repository.AttendanceStore
	directory directory.UserDirectory
	policy    policy.Policy
	publisher messaging.EventPublisher
	tracer    trace.Tracer
}

// NewAttendanceService creates a new instance of our main application service,
// wiring up the attendance store, the user directory and the event publisher.
func NewAttendanceService(store repository.AttendanceStore, dir directory.UserDirectory, p policy.Policy, publisher messaging.EventPublisher) *AttendanceService {
	if publisher == nil {
		publisher = messaging.Discard{}
	}
	return &AttendanceService{
		store:     store,
		directory: dir,
		policy:    p,
		publisher: publisher,
		tracer:    otel.Tracer("attendance-service"),
	}
}

// CheckIn creates today's record for the user, classified by the time policy.
func (s *AttendanceService) CheckIn(ctx context.Context, userID string, now time.Time) (rec *model.AttendanceRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "attendance.check_in", trace.WithAttributes(attribute.String("app.userId", userID)))
	defer func() { endSpan(span, err) }()

	day := s.policy.StartOfDay(now)
	existing, err := s.store.FindByUserAndDay(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to look up today's attendance: %w", err)
	}
	if existing != nil {
		if existing.InTime == nil {
			return nil, model.ErrMarkedAbsent
		}
		return nil, model.ErrAlreadyCheckedIn
	}

	in := now
	record := model.AttendanceRecord{
		UserID: userID,
		Date:   day,
		InTime: &in,
		Status: s.policy.ClassifyCheckIn(now, day),
	}

	id, err := s.store.Create(ctx, record)
	if errors.Is(err, model.ErrDuplicateRecord) {
		// Another request for the same user and day won the insert.
		return nil, model.ErrAlreadyCheckedIn
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create check-in record: %w", err)
	}
	record.ID = id

	span.SetAttributes(attribute.String("app.status", string(record.Status)))
	log.Ctx(ctx).Info().Str("user_id", userID).Str("day", day.String()).Str("status", string(record.Status)).Msg("Checked in")

	s.publish(ctx, messaging.EventCheckedIn, record, now)
	return &record, nil
}

// CheckOut closes today's record and stores the overtime worked.
func (s *AttendanceService) CheckOut(ctx context.Context, userID string, now time.Time) (rec *model.AttendanceRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "attendance.check_out", trace.WithAttributes(attribute.String("app.userId", userID)))
	defer func() { endSpan(span, err) }()

	day := s.policy.StartOfDay(now)
	existing, err := s.store.FindByUserAndDay(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to look up today's attendance: %w", err)
	}
	if existing == nil || existing.InTime == nil {
		return nil, model.ErrNoCheckInFound
	}
	if existing.OutTime != nil {
		return nil, model.ErrAlreadyCheckedOut
	}

	overtime, err := s.policy.ComputeOvertime(*existing.InTime, now)
	if err != nil {
		return nil, err
	}

	err = s.store.Update(ctx, existing.ID, model.Patch{OutTime: now, Overtime: overtime})
	if errors.Is(err, model.ErrRecordClosed) {
		// A concurrent check-out closed the record first.
		return nil, model.ErrAlreadyCheckedOut
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update check-out record: %w", err)
	}

	out := now
	existing.OutTime = &out
	existing.Overtime = overtime

	log.Ctx(ctx).Info().Str("user_id", userID).Str("day", day.String()).Float64("overtime", overtime).Msg("Checked out")

	s.publish(ctx, messaging.EventCheckedOut, *existing, now)
	return existing, nil
}

// Today returns the policy day containing now.
func (s *AttendanceService) Today(now time.Time) model.Day {
	return s.policy.StartOfDay(now)
}

// GetTodayStatus is an on-demand read of the user's record for the day containing now.
func (s *AttendanceService) GetTodayStatus(ctx context.Context, userID string, now time.Time) (model.TodayStatus, error) {
	day := s.policy.StartOfDay(now)
	rec, err := s.store.FindByUserAndDay(ctx, userID, day)
	if err != nil {
		return model.TodayStatus{}, fmt.Errorf("failed to look up today's attendance: %w", err)
	}
	return model.TodayStatus{State: rec.State(), Day: day, Record: rec}, nil
}

// ListRecords returns records between start and end inclusive, newest first.
// An empty userID lists every user.
func (s *AttendanceService) ListRecords(ctx context.Context, userID string, start, end model.Day) ([]model.AttendanceRecord, error) {
	if end.Before(start) {
		return nil, model.ErrInvalidRange
	}
	records, err := s.store.FindRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	return records, nil
}

// Summarize counts a user's statuses for the month containing month.
func (s *AttendanceService) Summarize(ctx context.Context, userID string, month model.Day) (model.Summary, error) {
	first, last := model.MonthRange(month)
	records, err := s.ListRecords(ctx, userID, first, last)
	if err != nil {
		return model.Summary{}, err
	}

	sum := model.Summary{
		UserID: userID,
		Month:  fmt.Sprintf("%04d-%02d", first.Year, int(first.Month)),
		Total:  len(records),
	}
	var overtime float64
	for _, r := range records {
		switch r.Status {
		case model.StatusPresent:
			sum.Present++
		case model.StatusLate:
			sum.Late++
		case model.StatusAbsent:
			sum.Absent++
		}
		overtime += r.Overtime
	}
	sum.OvertimeHours = policy.Round2(overtime)
	return sum, nil
}

// Report lists records with employee names for a manager. An empty userID
// covers every employee.
func (s *AttendanceService) Report(ctx context.Context, requesterID, userID string, start, end model.Day) ([]model.ReportRow, error) {
	requester, err := s.directory.Get(ctx, requesterID)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrForbidden
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up requester: %w", err)
	}
	if !requester.IsManager {
		return nil, model.ErrForbidden
	}

	var (
		records   []model.AttendanceRecord
		employees []model.Employee
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.ListRecords(gCtx, userID, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		employees, err = s.directory.ListAll(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list employees: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.DisplayName()
	}

	rows := make([]model.ReportRow, 0, len(records))
	for _, r := range records {
		name, ok := names[r.UserID]
		if !ok {
			name = r.UserID
		}
		rows = append(rows, model.ReportRow{
			AttendanceRecord: r,
			EmployeeName:     name,
			WorkedMinutes:    r.WorkedMinutes(),
		})
	}
	return rows, nil
}

// publish never fails the caller: the record is already committed.
func (s *AttendanceService) publish(ctx context.Context, t messaging.EventType, rec model.AttendanceRecord, at time.Time) {
	if err := s.publisher.Publish(ctx, messaging.NewAttendanceEvent(t, rec, at)); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("event", string(t)).Str("record_id", rec.ID).Msg("Failed to publish attendance event")
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
