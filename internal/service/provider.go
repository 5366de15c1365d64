package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hirelight/room-events-service/internal/adapter/hotstore"
	"github.com/hirelight/room-events-service/internal/domain/room"
)

// ProviderSelector classifies a room as having a durable event sink (a
// queued-room-event marker exists for it) or not, and returns the matching
// query provider. The flag is read once per query; it is a capability flag,
// not room state.
type ProviderSelector struct {
	logger  *slog.Logger
	hot     *hotstore.Store
	durable room.DurableEvents
	markers room.QueueMarkers
}

func NewProviderSelector(logger *slog.Logger, hot *hotstore.Store, durable room.DurableEvents, markers room.QueueMarkers) *ProviderSelector {
	return &ProviderSelector{
		logger:  logger,
		hot:     hot,
		durable: durable,
		markers: markers,
	}
}

// For returns the event provider serving the room's queries. A failed marker
// lookup falls back to the hot store with a warning rather than failing the
// query.
func (s *ProviderSelector) For(ctx context.Context, roomID uuid.UUID) room.EventQuerier {
	if s.durable == nil {
		return s.hot
	}

	queued, err := s.markers.HasDurableQueue(ctx, roomID)
	if err != nil {
		s.logger.Warn("provider selector: marker lookup failed, using hot store", "room_id", roomID, "error", err)
		return s.hot
	}
	if queued {
		return s.durable
	}
	return s.hot
}
