// Package bussync consumes stateful-sync envelopes from the bus and turns
// them into room-state persistence. Exactly one worker cluster-wide handles
// each logical publish: the AMQP topology binds every node to one shared
// queue, while the in-process topology has only one process to begin with.
package bussync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hirelight/room-events-service/internal/domain/event"
	"github.com/hirelight/room-events-service/internal/service"
)

// SyncProcessor persists the event carried by a stateful-sync envelope and
// records a copy into the room's event log.
type SyncProcessor struct {
	logger    *slog.Logger
	persister *service.Persister
	recorder  *service.Recorder
}

func NewSyncProcessor(logger *slog.Logger, persister *service.Persister, recorder *service.Recorder) *SyncProcessor {
	return &SyncProcessor{
		logger:    logger,
		persister: persister,
		recorder:  recorder,
	}
}

// Process handles one envelope. Non-sync kinds are skipped silently: the
// topic may carry future message shapes.
func (p *SyncProcessor) Process(ctx context.Context, env *event.Envelope) error {
	if env.Kind != event.KindStatefulSync {
		return nil
	}

	ev := event.FromOutbound(env.Event)

	p.recorder.Record(ctx, env.Event.RoomID, env.Event.Type, env.Event.Value, env.Event.CreatedBy)

	if err := p.persister.Persist(ctx, ev); err != nil {
		return fmt.Errorf("stateful sync: %w", err)
	}

	p.logger.Debug("stateful sync persisted", "type", env.Event.Type, "room_id", env.Event.RoomID)
	return nil
}
