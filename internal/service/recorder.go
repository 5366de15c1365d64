package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hirelight/room-events-service/internal/adapter/hotstore"
	"github.com/hirelight/room-events-service/internal/domain/room"
)

// Recorder appends a copy of every inbound or server-emitted event to the
// room's event log: the durable sink when the room has one, the hot store
// otherwise. Appends are fire-and-forget with logged failure; a broken log
// never blocks the session that produced the event.
type Recorder struct {
	logger  *slog.Logger
	hot     *hotstore.Store
	durable room.DurableEvents
	markers room.QueueMarkers
}

func NewRecorder(logger *slog.Logger, hot *hotstore.Store, durable room.DurableEvents, markers room.QueueMarkers) *Recorder {
	return &Recorder{
		logger:  logger,
		hot:     hot,
		durable: durable,
		markers: markers,
	}
}

// Record appends one event copy tagged with the producing user and room.
func (r *Recorder) Record(ctx context.Context, roomID uuid.UUID, eventType, payload string, createdBy *uuid.UUID) {
	rec := room.Record{
		ID:        uuid.New(),
		RoomID:    roomID,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
		CreatedBy: createdBy,
	}

	if r.durable != nil {
		queued, err := r.markers.HasDurableQueue(ctx, roomID)
		if err != nil {
			r.logger.Warn("recorder: marker lookup failed, using hot store", "room_id", roomID, "error", err)
		} else if queued {
			if err := r.durable.Append(ctx, rec); err != nil {
				r.logger.Error("recorder: durable append failed", "room_id", roomID, "type", eventType, "error", err)
			}
			return
		}
	}

	if err := r.hot.Append(ctx, rec); err != nil {
		r.logger.Error("recorder: hot store append failed", "room_id", roomID, "type", eventType, "error", err)
	}
}
