package billingcycle

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("billingcycle",
	fx.Provide(
		NewLocker,
		NewScheduler,
	),
)

// StartScheduler runs the periodic cycle loop under the fx lifecycle.
func StartScheduler(lc fx.Lifecycle, scheduler *Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go scheduler.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
