package notify

import (
	"context"

	"bikerent/pkg/logger"
)

// LogDispatcher only records the batch. It backs local runs without a broker.
type LogDispatcher struct {
	log     *logger.Logger
	subject string
}

func NewLogDispatcher(log *logger.Logger, subject string) *LogDispatcher {
	return &LogDispatcher{log: log.Component("notify"), subject: subject}
}

func (d *LogDispatcher) Send(_ context.Context, message string, recipients []string) error {
	d.log.Info("Overdue notification",
		"subject", d.subject,
		"message", message,
		"recipients", recipients,
	)
	return nil
}
