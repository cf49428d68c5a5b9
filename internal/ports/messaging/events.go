package messaging

import (
	"time"

	"attendance.service/internal/core/model"
)

// EventType names the attendance change carried by an event.
type EventType string

const (
	EventCheckedIn    EventType = "attendance.checked_in"
	EventCheckedOut   EventType = "attendance.checked_out"
	EventMarkedAbsent EventType = "attendance.marked_absent"
)

// AttendanceEvent is the JSON payload sent via SQS to the events queue.
type AttendanceEvent struct {
	Type       EventType    `json:"type"`
	RecordID   string       `json:"recordId"`
	UserID     string       `json:"userId"`
	Date       model.Day    `json:"date"`
	Status     model.Status `json:"status"`
	InTime     *time.Time   `json:"inTime,omitempty"`
	OutTime    *time.Time   `json:"outTime,omitempty"`
	Overtime   float64      `json:"overtime"`
	OccurredAt time.Time    `json:"occurredAt"`
}

func NewAttendanceEvent(t EventType, rec model.AttendanceRecord, occurredAt time.Time) AttendanceEvent {
	return AttendanceEvent{
		Type:       t,
		RecordID:   rec.ID,
		UserID:     rec.UserID,
		Date:       rec.Date,
		Status:     rec.Status,
		InTime:     rec.InTime,
		OutTime:    rec.OutTime,
		Overtime:   rec.Overtime,
		OccurredAt: occurredAt,
	}
}

// SweepTrigger is the payload delivered by the external scheduler to the
// sweep queue. Delivery is at-least-once.
type SweepTrigger struct {
	TriggeredAt time.Time `json:"triggeredAt"`
}
