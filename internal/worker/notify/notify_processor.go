package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/directory"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/worker"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

// NotifyProcessor turns attendance events into e-mails: a shift summary on
// check-out and a notice when the sweep marks someone absent.
type NotifyProcessor struct {
	emailService core.EmailService
	directory    directory.UserDirectory
}

// NewProcessor sets up a new processor for the events queue. It needs the
// directory to resolve the employee's address.
func NewProcessor(emailService core.EmailService, dir directory.UserDirectory) *NotifyProcessor {
	return &NotifyProcessor{
		emailService: emailService,
		directory:    dir,
	}
}

func (p *NotifyProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	if msg.Body == nil {
		return false, 0, errors.New("empty attendance event")
	}
	var event messaging.AttendanceEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal attendance event")
		return false, 0, err
	}

	logger := log.Ctx(ctx).With().Str("event", string(event.Type)).Str("record_id", event.RecordID).Logger()

	switch event.Type {
	case messaging.EventCheckedOut, messaging.EventMarkedAbsent:
	case messaging.EventCheckedIn:
		return false, 0, nil
	default:
		logger.Warn().Msg("Unknown attendance event type, dropping")
		return false, 0, nil
	}

	employee, err := p.directory.Get(ctx, event.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return false, 0, fmt.Errorf("no employee %q for attendance event: %w", event.UserID, err)
	}
	if err != nil {
		return true, worker.RetryDelay(worker.ReceiveCount(msg)), fmt.Errorf("failed to look up employee: %w", err)
	}
	if employee.Email == "" {
		logger.Warn().Str("user_id", event.UserID).Msg("Employee has no e-mail address, skipping")
		return false, 0, nil
	}

	if event.Type == messaging.EventCheckedOut {
		err = p.emailService.SendCheckOutSummary(ctx, *employee, recordFromEvent(event))
	} else {
		err = p.emailService.SendAbsenceNotice(ctx, *employee, event.Date)
	}
	if err != nil {
		return true, worker.RetryDelay(worker.ReceiveCount(msg)), err
	}

	logger.Info().Str("user_id", event.UserID).Msg("Notification sent")
	return false, 0, nil
}

func recordFromEvent(e messaging.AttendanceEvent) model.AttendanceRecord {
	return model.AttendanceRecord{
		ID:       e.RecordID,
		UserID:   e.UserID,
		Date:     e.Date,
		InTime:   e.InTime,
		OutTime:  e.OutTime,
		Status:   e.Status,
		Overtime: e.Overtime,
	}
}
