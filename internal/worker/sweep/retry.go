package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// ErrIncomplete reports a sweep that left some absent users unmarked.
var ErrIncomplete = errors.New("absence sweep incomplete")

func incomplete(result model.SweepResult) error {
	if len(result.FailedUserIDs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s failed for %d users", ErrIncomplete, result.Day, len(result.FailedUserIDs))
}

// RunUntil sweeps the day of trigger until every absent user is marked,
// backing off exponentially from initial between attempts. No attempt starts
// after deadline, so a failing sweep never runs into the next scheduled one.
// Users marked by an earlier attempt are skipped by later ones.
func RunUntil(ctx context.Context, sweeper Sweeper, trigger, deadline time.Time, initial time.Duration) (model.SweepResult, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial

	// Zero would mean no limit.
	budget := max(time.Until(deadline), time.Nanosecond)

	return backoff.Retry(ctx, func() (model.SweepResult, error) {
		result, err := sweeper.Run(ctx, trigger)
		if err != nil {
			return result, err
		}
		return result, incomplete(result)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(budget),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Ctx(ctx).Warn().Err(err).Dur("retry_in", next).Msg("Absence sweep failed, retrying")
		}),
	)
}
