package sequence

import (
	"github.com/arenaworks/prizepay/internal/sequence/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("sequence",
	fx.Provide(repository.Provide),
)
