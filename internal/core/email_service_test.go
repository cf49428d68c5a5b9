package core

import (
	"context"
	"errors"
	"testing"

	"attendance.service/internal/core/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	return &ses.SendEmailOutput{}, f.err
}

func TestSESEmailService_SendCheckOutSummary(t *testing.T) {
	client := &fakeSES{}
	svc := NewSESEmailService(client, "attendance@example.com")

	in, out := on(10, 5), on(19, 0)
	rec := model.AttendanceRecord{UserID: "u1", Date: testDay, InTime: &in, OutTime: &out, Overtime: 0.92}
	err := svc.SendCheckOutSummary(context.Background(), model.Employee{ID: "u1", Email: "ana@example.com", Name: "Ana"}, rec)
	require.NoError(t, err)

	require.Len(t, client.inputs, 1)
	input := client.inputs[0]
	assert.Equal(t, "attendance@example.com", aws.ToString(input.Source))
	assert.Equal(t, []string{"ana@example.com"}, input.Destination.ToAddresses)
	body := aws.ToString(input.Message.Body.Text.Data)
	assert.Contains(t, body, "Hello Ana")
	assert.Contains(t, body, "2025-03-10")
	assert.Contains(t, body, "8h 55m")
	assert.Contains(t, body, "0.92 hours")
}

func TestSESEmailService_SendAbsenceNotice(t *testing.T) {
	client := &fakeSES{err: errors.New("throttled")}
	svc := NewSESEmailService(client, "attendance@example.com")

	err := svc.SendAbsenceNotice(context.Background(), model.Employee{Email: "bo@example.com"}, testDay)
	assert.Error(t, err)

	require.Len(t, client.inputs, 1)
	assert.Equal(t, "Marked Absent", aws.ToString(client.inputs[0].Message.Subject.Data))
	assert.Contains(t, aws.ToString(client.inputs[0].Message.Body.Text.Data), "Hello bo@example.com")
}
