package successfee

import (
	"github.com/frontdesk/platform/internal/successfee/repository"
	"github.com/frontdesk/platform/internal/successfee/service"
	"go.uber.org/fx"
)

var Module = fx.Module("successfee",
	fx.Provide(
		repository.New,
		service.New,
	),
)
