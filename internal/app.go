package internal

import (
	"context"

	"github.com/capcom6/go-infra-fx/validator"
	"github.com/crudster/crudster/internal/config"
	"github.com/crudster/crudster/internal/documents"
	"github.com/crudster/crudster/internal/server"
	"github.com/crudster/crudster/pkg/badgerfx"
	"github.com/go-core-fx/fiberfx"
	"github.com/go-core-fx/healthfx"
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Run() {
	fx.New(
		// CORE MODULES
		logger.Module(),
		logger.WithFxDefaultLogger(),
		badgerfx.Module(),
		healthfx.Module(),
		fiberfx.Module(),
		validator.Module,
		//
		// APP MODULES
		config.Module(),
		server.Module(),
		//
		// BUSINESS MODULES
		fx.Provide(func() healthfx.Version { return healthfx.Version{Version: "0.1.0", ReleaseID: 1} }),
		documents.Module(),
		//
		// LIFECYCLE MANAGEMENT
		fx.Invoke(func(lc fx.Lifecycle, logger *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					logger.Info("crudster starting up")
					return nil
				},
				OnStop: func(_ context.Context) error {
					logger.Info("crudster shutting down gracefully")
					return nil
				},
			})
		}),
	).Run()
}
