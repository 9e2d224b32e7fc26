package processor

import (
	processorservice "github.com/arenaworks/prizepay/internal/processor/service"
	"go.uber.org/fx"
)

var Module = fx.Module("processor.service",
	fx.Provide(processorservice.NewService),
)
