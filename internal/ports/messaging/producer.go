package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Producer publishes attendance events to a single queue.
type Producer struct {
	sender   MessageSender
	queueURL string
}

func NewProducer(sender MessageSender, queueURL string) *Producer {
	return &Producer{
		sender:   sender,
		queueURL: queueURL,
	}
}

func NewSQSProducer(client SQSClient, queueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, queueURL)
}

func (p *Producer) Publish(ctx context.Context, event AttendanceEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("app.userId", event.UserID),
			attribute.String("app.eventType", string(event.Type)),
		)
	}

	if err := p.sender.SendMessage(ctx, p.queueURL, b, map[string]string{"EventType": string(event.Type)}); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
