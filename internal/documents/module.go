package documents

import (
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"documents",
		logger.WithNamedLogger("documents"),
		fx.Provide(NewRepository, fx.Private),
		fx.Provide(NewPassthroughValidator),
		fx.Provide(NewService),
	)
}
