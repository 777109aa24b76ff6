package notify

import (
	"context"
	"fmt"
	"time"

	"bikerent/pkg/kafka"
)

const (
	EventTypeOverdue = "rental.overdue"
	SchemaVersion    = "1"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// OverdueNotification is the payload a mail relay consumes from the topic.
type OverdueNotification struct {
	Subject    string    `json:"subject"`
	Message    string    `json:"message"`
	Recipients []string  `json:"recipients"`
	SentAt     time.Time `json:"sent_at"`
}

type KafkaDispatcher struct {
	publisher Publisher
	subject   string
	source    string
	now       func() time.Time
}

func NewKafkaDispatcher(publisher Publisher, subject, source string) *KafkaDispatcher {
	return &KafkaDispatcher{
		publisher: publisher,
		subject:   subject,
		source:    source,
		now:       time.Now,
	}
}

// Send publishes the whole batch as a single event.
func (d *KafkaDispatcher) Send(ctx context.Context, message string, recipients []string) error {
	sentAt := d.now().UTC()

	msg, err := kafka.NewMessage().
		WithEventType(EventTypeOverdue).
		WithSchemaVersion(SchemaVersion).
		WithSource(d.source).
		WithTimestamp(sentAt).
		WithValue(OverdueNotification{
			Subject:    d.subject,
			Message:    message,
			Recipients: recipients,
			SentAt:     sentAt,
		}).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build overdue notification: %w", err)
	}

	if err := d.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish overdue notification: %w", err)
	}
	return nil
}
