package policy

import (
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() Policy {
	p := Default()
	p.Location = time.FixedZone("BDT", 6*60*60)
	return p
}

func at(p Policy, hour, min, sec int) time.Time {
	return time.Date(2025, time.March, 10, hour, min, sec, 0, p.Location)
}

func TestClassifyCheckIn(t *testing.T) {
	p := testPolicy()
	day := model.Day{Year: 2025, Month: time.March, Day: 10}

	tests := []struct {
		name string
		now  time.Time
		want model.Status
	}{
		{"early morning", at(p, 8, 0, 0), model.StatusPresent},
		{"before late threshold", at(p, 10, 5, 0), model.StatusPresent},
		{"exactly late threshold", at(p, 10, 15, 0), model.StatusPresent},
		{"just after late threshold", at(p, 10, 15, 1), model.StatusLate},
		{"exactly absent threshold", at(p, 11, 0, 0), model.StatusLate},
		{"just after absent threshold", at(p, 11, 0, 1), model.StatusAbsent},
		{"afternoon", at(p, 15, 30, 0), model.StatusAbsent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ClassifyCheckIn(tt.now, day))
		})
	}
}

func TestClassifyCheckIn_UsesReferenceTimezone(t *testing.T) {
	p := testPolicy()
	day := model.Day{Year: 2025, Month: time.March, Day: 10}

	// 04:10 UTC is 10:10 in Dhaka.
	now := time.Date(2025, time.March, 10, 4, 10, 0, 0, time.UTC)
	assert.Equal(t, model.StatusPresent, p.ClassifyCheckIn(now, day))

	// 05:30 UTC is 11:30 in Dhaka.
	now = time.Date(2025, time.March, 10, 5, 30, 0, 0, time.UTC)
	assert.Equal(t, model.StatusAbsent, p.ClassifyCheckIn(now, day))
}

func TestComputeOvertime(t *testing.T) {
	p := testPolicy()
	in := at(p, 10, 5, 0)

	got, err := p.ComputeOvertime(in, in.Add(480*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = p.ComputeOvertime(in, in.Add(510*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0.5, got)

	got, err = p.ComputeOvertime(in, in.Add(535*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0.92, got)

	got, err = p.ComputeOvertime(in, in.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestComputeOvertime_TruncatesPartialMinutes(t *testing.T) {
	p := testPolicy()
	in := at(p, 9, 0, 0)

	got, err := p.ComputeOvertime(in, in.Add(510*time.Minute+59*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 0.5, got)
}

func TestComputeOvertime_InvalidInterval(t *testing.T) {
	p := testPolicy()
	in := at(p, 10, 0, 0)

	_, err := p.ComputeOvertime(in, in)
	assert.ErrorIs(t, err, model.ErrInvalidInterval)

	_, err = p.ComputeOvertime(in, in.Add(-time.Minute))
	assert.ErrorIs(t, err, model.ErrInvalidInterval)
}

func TestStartOfDay(t *testing.T) {
	p := testPolicy()

	// 20:00 UTC on the 9th is already the 10th in Dhaka.
	instant := time.Date(2025, time.March, 9, 20, 0, 0, 0, time.UTC)
	day := p.StartOfDay(instant)
	assert.Equal(t, model.Day{Year: 2025, Month: time.March, Day: 10}, day)

	again := p.StartOfDay(p.DayStart(day))
	assert.Equal(t, day, again, "StartOfDay must be idempotent")

	late := p.StartOfDay(at(p, 23, 59, 59))
	early := p.StartOfDay(at(p, 0, 0, 0))
	assert.Equal(t, early, late)
}

func TestValidate(t *testing.T) {
	p := testPolicy()
	require.NoError(t, p.Validate())

	bad := p
	bad.AbsentThreshold = p.LateThreshold
	assert.Error(t, bad.Validate())

	bad = p
	bad.Location = nil
	assert.Error(t, bad.Validate())

	bad = p
	bad.StandardWorkMinutes = -1
	assert.Error(t, bad.Validate())

	bad = p
	bad.AbsentThreshold = 25 * time.Hour
	assert.Error(t, bad.Validate())
}
