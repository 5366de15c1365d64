package registry

import (
	"go.uber.org/fx"
)

var Module = fx.Module("registry",
	fx.Provide(
		NewRoster,
		fx.Annotate(
			func(r *Roster) Rosterer { return r },
			fx.As(new(Rosterer)),
		),
		NewVideoDirectory,
	),
)
