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
	"go.opentelemetry.io/otel/trace"
)

// AbsenceSweeper makes sure every employee has a record for a day, inserting
// ABSENT records for the ones who never checked in. Running it again for the
// same day only touches users that are still missing a record.
type AbsenceSweeper struct {
	store     repository.AttendanceStore
	directory directory.UserDirectory
	policy    policy.Policy
	publisher messaging.EventPublisher
	tracer    trace.Tracer
}

func NewAbsenceSweeper(store repository.AttendanceStore, dir directory.UserDirectory, p policy.Policy, publisher messaging.EventPublisher) *AbsenceSweeper {
	if publisher == nil {
		publisher = messaging.Discard{}
	}
	return &AbsenceSweeper{
		store:     store,
		directory: dir,
		policy:    p,
		publisher: publisher,
		tracer:    otel.Tracer("absence-sweeper"),
	}
}

// Run sweeps the day containing trigger. A failure to create one user's record
// is logged and reported in FailedUserIDs; it does not stop the sweep.
func (s *AbsenceSweeper) Run(ctx context.Context, trigger time.Time) (result model.SweepResult, err error) {
	day := s.policy.StartOfDay(trigger)
	ctx, span := s.tracer.Start(ctx, "attendance.sweep", trace.WithAttributes(attribute.String("app.day", day.String())))
	defer func() {
		span.SetAttributes(
			attribute.Int("app.markedCount", result.MarkedCount),
			attribute.Int("app.failedCount", len(result.FailedUserIDs)),
		)
		endSpan(span, err)
	}()

	result = model.SweepResult{Day: day, FailedUserIDs: []string{}}
	logger := log.Ctx(ctx).With().Str("day", day.String()).Logger()

	users, err := s.directory.ListAll(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list employees: %w", err)
	}

	existing, err := s.store.FindAllByDay(ctx, day)
	if err != nil {
		return result, fmt.Errorf("failed to list attendance for %s: %w", day, err)
	}
	marked := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		marked[rec.UserID] = struct{}{}
	}

	for _, user := range users {
		if _, ok := marked[user.ID]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("sweep for %s abandoned: %w", day, err)
		}

		record := model.AttendanceRecord{
			UserID: user.ID,
			Date:   day,
			Status: model.StatusAbsent,
		}
		id, err := s.store.Create(ctx, record)
		if errors.Is(err, model.ErrDuplicateRecord) {
			// The user checked in, or another sweep ran, since FindAllByDay.
			continue
		}
		if err != nil {
			logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to mark employee absent")
			result.FailedUserIDs = append(result.FailedUserIDs, user.ID)
			continue
		}
		record.ID = id
		marked[user.ID] = struct{}{}
		result.MarkedCount++

		if err := s.publisher.Publish(ctx, messaging.NewAttendanceEvent(messaging.EventMarkedAbsent, record, time.Now())); err != nil {
			logger.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to publish absence event")
		}
	}

	logger.Info().
		Int("employees", len(users)).
		Int("marked", result.MarkedCount).
		Int("failed", len(result.FailedUserIDs)).
		Msg("Absence sweep finished")
	return result, nil
}
