package core

import (
	"context"
	"fmt"

	"attendance.service/internal/core/model"
	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// EmailService sends attendance notifications to employees.
type EmailService interface {
	SendCheckOutSummary(ctx context.Context, to model.Employee, record model.AttendanceRecord) error
	SendAbsenceNotice(ctx context.Context, to model.Employee, day model.Day) error
}

// SESClient is the subset of the SES client used here.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESEmailService struct {
	client SESClient
	sender string
}

func NewSESEmailService(client SESClient, sender string) *SESEmailService {
	return &SESEmailService{client: client, sender: sender}
}

func (s *SESEmailService) SendCheckOutSummary(ctx context.Context, to model.Employee, record model.AttendanceRecord) error {
	body := fmt.Sprintf("Hello %s,\n\nYou have successfully checked out for %s. Time worked: %s. Overtime: %.2f hours.",
		to.DisplayName(), record.Date, model.FormatMinutes(record.WorkedMinutes()), record.Overtime)
	return s.send(ctx, to, "Work Shift Summary", body)
}

func (s *SESEmailService) SendAbsenceNotice(ctx context.Context, to model.Employee, day model.Day) error {
	body := fmt.Sprintf("Hello %s,\n\nNo check-in was recorded for %s, so the day has been marked as absent. Please contact your manager if this is incorrect.",
		to.DisplayName(), day)
	return s.send(ctx, to, "Marked Absent", body)
}

func (s *SESEmailService) send(ctx context.Context, to model.Employee, subject, body string) error {
	tracer := otel.Tracer("ses-email-service")
	ctx, span := tracer.Start(ctx, "send_email", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	// Enrich span with userId if available in context
	if userID := telemetry.GetUserIDFromContext(ctx); userID != "" {
		span.SetAttributes(attribute.String("app.userId", userID))
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(body),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}
