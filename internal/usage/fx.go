package usage

import (
	"github.com/frontdesk/platform/internal/usage/repository"
	"github.com/frontdesk/platform/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage",
	fx.Provide(
		repository.New,
		service.New,
	),
)
