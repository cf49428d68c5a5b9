// Package policy holds the workday rules: status thresholds, overtime math and
// the calendar-day key used to bucket attendance records.
package policy

import (
	"errors"
	"fmt"
	"math"
	"time"

	"attendance.service/internal/core/model"
)

// Policy is stateless apart from its configuration and safe for concurrent use.
type Policy struct {
	// LateThreshold and AbsentThreshold are offsets from the start of the day.
	LateThreshold       time.Duration
	AbsentThreshold     time.Duration
	StandardWorkMinutes int
	Location            *time.Location
}

// Default mirrors the office rules: late after 10:15, absent after 11:00,
// eight hour workday, Dhaka time.
func Default() Policy {
	loc, err := time.LoadLocation("Asia/Dhaka")
	if err != nil {
		loc = time.FixedZone("Asia/Dhaka", 6*60*60)
	}
	return Policy{
		LateThreshold:       10*time.Hour + 15*time.Minute,
		AbsentThreshold:     11 * time.Hour,
		StandardWorkMinutes: 480,
		Location:            loc,
	}
}

func (p Policy) Validate() error {
	if p.Location == nil {
		return errors.New("policy: location is required")
	}
	if p.LateThreshold < 0 || p.AbsentThreshold >= 24*time.Hour {
		return fmt.Errorf("policy: thresholds must fall within one day (late=%s absent=%s)", p.LateThreshold, p.AbsentThreshold)
	}
	if p.AbsentThreshold <= p.LateThreshold {
		return fmt.Errorf("policy: absent threshold %s must be after late threshold %s", p.AbsentThreshold, p.LateThreshold)
	}
	if p.StandardWorkMinutes < 0 {
		return fmt.Errorf("policy: standard work minutes must not be negative, got %d", p.StandardWorkMinutes)
	}
	return nil
}

// StartOfDay maps an instant to its calendar day in the reference timezone.
func (p Policy) StartOfDay(instant time.Time) model.Day {
	return model.DayOf(instant.In(p.Location))
}

// DayStart is the instant the given day begins in the reference timezone.
func (p Policy) DayStart(day model.Day) time.Time {
	return day.In(p.Location)
}

// ClassifyCheckIn uses strict "after" comparisons, so a check-in exactly on a
// threshold keeps the earlier classification.
func (p Policy) ClassifyCheckIn(now time.Time, day model.Day) model.Status {
	start := p.DayStart(day)
	switch {
	case now.After(start.Add(p.AbsentThreshold)):
		return model.StatusAbsent
	case now.After(start.Add(p.LateThreshold)):
		return model.StatusLate
	default:
		return model.StatusPresent
	}
}

// ComputeOvertime returns the hours worked beyond the standard day, rounded to
// two decimals. Elapsed time is counted in whole minutes.
func (p Policy) ComputeOvertime(inTime, outTime time.Time) (float64, error) {
	if !outTime.After(inTime) {
		return 0, model.ErrInvalidInterval
	}
	minutes := int(outTime.Sub(inTime) / time.Minute)
	extra := minutes - p.StandardWorkMinutes
	if extra <= 0 {
		return 0, nil
	}
	return Round2(float64(extra) / 60), nil
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
