package tenant

import (
	"github.com/frontdesk/platform/internal/tenant/repository"
	"github.com/frontdesk/platform/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant",
	fx.Provide(
		repository.New,
		service.New,
	),
)
