package messaging

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// EventPublisher defines the output port for publishing attendance events.
type EventPublisher interface {
	Publish(ctx context.Context, event AttendanceEvent) error
}

// MessageSender defines the interface for sending raw messages to a messaging system.
type MessageSender interface {
	SendMessage(ctx context.Context, destination string, body []byte, attrs map[string]string) error
}

// SQSClient defines the interface for the AWS SQS client.
type SQSClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Discard drops every event. Used when no events queue is configured.
type Discard struct{}

func (Discard) Publish(context.Context, AttendanceEvent) error { return nil }
