package inmem

import (
	"go.uber.org/fx"

	"github.com/hirelight/room-events-service/internal/domain/room"
)

var Module = fx.Module("inmem-adapters",
	fx.Provide(
		fx.Annotate(
			NewDirectory,
			fx.As(new(room.ParticipantLookup)),
		),
		fx.Annotate(
			NewStateTable,
			fx.As(new(room.StateUpserter)),
			fx.As(new(room.ConfigUpdater)),
		),
		fx.Annotate(
			NewDurableLog,
			fx.As(new(room.DurableEvents)),
			fx.As(new(room.QueueMarkers)),
		),
		fx.Annotate(
			NewTypeRegistry,
			fx.As(new(room.EventTypes)),
		),
	),
)
