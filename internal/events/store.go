package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"settlecore/internal/models"
)

// EventStore is the persistence subset the sink needs.
type EventStore interface {
	AppendEvent(ctx context.Context, item *models.LedgerEvent) error
}

// Record converts an event into its ledger row, assigning the event id.
func Record(ev Event) (*models.LedgerEvent, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return nil, err
	}
	return &models.LedgerEvent{
		EventID: uuid.NewString(),
		Type:    ev.Type,
		Payload: datatypes.JSON(payload),
	}, nil
}

// StoreSink appends events to the ledger_events table. The table's sequence
// column is the canonical ordering indexers consume.
type StoreSink struct {
	Store  EventStore
	Logger *zap.Logger
}

func (s *StoreSink) Emit(ctx context.Context, ev Event) {
	if s == nil || s.Store == nil {
		return
	}
	item, err := Record(ev)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("event payload marshal failed",
				zap.String("type", ev.Type),
				zap.Error(err),
			)
		}
		return
	}
	if err := s.Store.AppendEvent(ctx, item); err != nil && s.Logger != nil {
		s.Logger.Warn("event append failed",
			zap.String("type", ev.Type),
			zap.Error(err),
		)
	}
}
