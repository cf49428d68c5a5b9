package schedule

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Daily runs a job once a day at a fixed time of day in a location.
type Daily struct {
	Name string
	// At is the offset from local midnight.
	At       time.Duration
	Location *time.Location
	Fn       func(ctx context.Context, firedAt time.Time) error

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

func NewDaily(name string, at time.Duration, loc *time.Location, fn func(ctx context.Context, firedAt time.Time) error) *Daily {
	return &Daily{
		Name:     name,
		At:       at,
		Location: loc,
		Fn:       fn,
		now:      time.Now,
		after:    time.After,
	}
}

// NextRun returns the first instant at or after now that falls on At in loc.
func NextRun(now time.Time, at time.Duration, loc *time.Location) time.Time {
	local := now.In(loc)
	h, m, s := int(at/time.Hour), int(at%time.Hour/time.Minute), int(at%time.Minute/time.Second)

	next := time.Date(local.Year(), local.Month(), local.Day(), h, m, s, 0, loc)
	if next.Before(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, h, m, s, 0, loc)
	}
	return next
}

// Run blocks until ctx is canceled. A failed run is logged and the job
// waits for the next day.
func (d *Daily) Run(ctx context.Context) {
	logger := log.With().Str("job", d.Name).Logger()

	for ctx.Err() == nil {
		next := NextRun(d.now(), d.At, d.Location)
		logger.Info().Time("next_run", next).Msg("Daily job scheduled")

		select {
		case <-ctx.Done():
			continue
		case <-d.after(next.Sub(d.now())):
		}

		start := time.Now()
		if err := d.Fn(ctx, next); err != nil {
			logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("Daily job failed")
		} else {
			logger.Info().Dur("duration", time.Since(start)).Msg("Daily job completed")
		}

		// Never fire twice for the same slot when the job finishes within
		// the second it was scheduled for.
		if !d.now().After(next) {
			select {
			case <-ctx.Done():
			case <-d.after(time.Second):
			}
		}
	}
	logger.Info().Msg("Daily job stopping")
}
