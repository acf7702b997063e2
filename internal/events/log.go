package events

import (
	"context"
	"log/slog"
)

// LogPublisher stands in for Kafka when no brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, msgs ...Message) error {
	for _, m := range msgs {
		p.logger.Info("ledger event",
			"event_type", m.Type,
			"key", string(m.Key),
			"payload", string(m.Payload),
		)
	}
	return nil
}

func (p *LogPublisher) Close() error { return nil }
