package model

import (
	"fmt"
	"time"
)

// Status is the attendance classification stored on a record.
type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusLate    Status = "LATE"
	StatusAbsent  Status = "ABSENT"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent:
		return true
	}
	return false
}

// DayState is the per user, per day position in the check-in/check-out lifecycle.
type DayState string

const (
	StateNoRecord     DayState = "NO_RECORD"
	StateCheckedIn    DayState = "CHECKED_IN"
	StateCheckedOut   DayState = "CHECKED_OUT"
	StateMarkedAbsent DayState = "MARKED_ABSENT"
)

// Employee is a read-only identity owned by the user directory.
type Employee struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	IsManager bool   `json:"isManager"`
}

// DisplayName falls back to the e-mail address when no name is set.
func (e Employee) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Email
}

type AttendanceRecord struct {
	ID       string     `json:"id"`
	UserID   string     `json:"userId"`
	Date     Day        `json:"date"`
	InTime   *time.Time `json:"inTime"`
	OutTime  *time.Time `json:"outTime"`
	Status   Status     `json:"status"`
	Overtime float64    `json:"overtime"`
}

// State derives the lifecycle state of an existing record.
func (r *AttendanceRecord) State() DayState {
	switch {
	case r == nil:
		return StateNoRecord
	case r.InTime == nil:
		return StateMarkedAbsent
	case r.OutTime != nil:
		return StateCheckedOut
	default:
		return StateCheckedIn
	}
}

// WorkedMinutes returns the whole minutes between check-in and check-out,
// or zero while the record is incomplete.
func (r AttendanceRecord) WorkedMinutes() int {
	if r.InTime == nil || r.OutTime == nil {
		return 0
	}
	return int(r.OutTime.Sub(*r.InTime) / time.Minute)
}

// FormatMinutes renders a duration in whole minutes as "Xh Ym".
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// Patch is the partial update applied at check-out.
type Patch struct {
	OutTime  time.Time
	Overtime float64
}

// TodayStatus is what a caller needs to render the current day for a user.
type TodayStatus struct {
	State  DayState          `json:"state"`
	Day    Day               `json:"day"`
	Record *AttendanceRecord `json:"record,omitempty"`
}

// SweepResult reports the outcome of one absence sweep.
type SweepResult struct {
	Day           Day      `json:"day"`
	MarkedCount   int      `json:"markedCount"`
	FailedUserIDs []string `json:"failedUserIds"`
}

// Summary aggregates a user's records over a month.
type Summary struct {
	UserID        string  `json:"userId"`
	Month         string  `json:"month"`
	Total         int     `json:"total"`
	Present       int     `json:"present"`
	Late          int     `json:"late"`
	Absent        int     `json:"absent"`
	OvertimeHours float64 `json:"overtimeHours"`
}

// ReportRow is one line of the manager attendance report.
type ReportRow struct {
	AttendanceRecord
	EmployeeName  string `json:"employeeName"`
	WorkedMinutes int    `json:"workedMinutes"`
}
