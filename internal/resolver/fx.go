package resolver

import (
	"github.com/arenaworks/prizepay/internal/config"
	"github.com/arenaworks/prizepay/internal/resolver/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("resolver",
	fx.Provide(func(cfg config.Config, log *zap.Logger) *Client {
		return NewClient(Config{
			BaseURL:       cfg.ResolverBaseURL,
			Token:         cfg.ResolverToken,
			CopilotRoleID: cfg.CopilotRoleID,
			Timeout:       cfg.ResolverTimeout,
		}, log)
	}),
	fx.Provide(func(c *Client) domain.IdentityResolver { return c }),
	fx.Provide(func(c *Client) domain.CopilotResolver { return c }),
)
