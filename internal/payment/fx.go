package payment

import (
	"github.com/arenaworks/prizepay/internal/payment/repository"
	paymentservice "github.com/arenaworks/prizepay/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(paymentservice.NewService),
)
