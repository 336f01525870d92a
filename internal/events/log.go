package events

import (
	"context"

	"go.uber.org/zap"
)

// LogSink mirrors the stream into the service log.
type LogSink struct {
	Logger *zap.Logger
}

func (s *LogSink) Emit(_ context.Context, ev Event) {
	if s == nil || s.Logger == nil {
		return
	}
	s.Logger.Info("event",
		zap.String("type", ev.Type),
		zap.Any("payload", ev.Payload),
	)
}
