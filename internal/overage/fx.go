package overage

import (
	"github.com/frontdesk/platform/internal/overage/processor"
	"github.com/frontdesk/platform/internal/overage/repository"
	"github.com/frontdesk/platform/internal/overage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("overage",
	fx.Provide(
		repository.New,
		processor.New,
		service.New,
	),
)
