package hotstore

import (
	"go.uber.org/fx"

	"github.com/hirelight/room-events-service/config"
)

var Module = fx.Module("hotstore",
	fx.Provide(
		func(cfg *config.Config) (*Store, error) {
			return New(cfg.HotStore.RoomCapacity)
		},
	),
)
