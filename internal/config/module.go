package config

import (
	"fmt"

	"github.com/crudster/crudster/internal/documents"
	"github.com/crudster/crudster/internal/server"
	"github.com/crudster/crudster/pkg/badgerfx"
	"github.com/go-core-fx/fiberfx"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"config",
		fx.Provide(New),
		fx.Invoke(func(cfg Config, validate *validator.Validate) error {
			if err := validate.Struct(cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return nil
		}),
		fx.Provide(func(cfg Config) fiberfx.Config {
			return fiberfx.Config{
				Address:     cfg.HTTP.Address,
				ProxyHeader: cfg.HTTP.ProxyHeader,
				Proxies:     cfg.HTTP.Proxies,
			}
		}),
		fx.Provide(func(cfg Config) badgerfx.Config {
			return badgerfx.Config{
				Dir:      cfg.Storage.DataDir,
				InMemory: cfg.Storage.InMemory,
				Wipe:     cfg.Storage.Wipe,
			}
		}),
		fx.Provide(func(cfg Config) documents.Config {
			return documents.Config{
				Collection: cfg.API.Collection,
				Indexes: lo.Map(cfg.API.Indexes, func(idx indexConfig, _ int) documents.Index {
					return documents.Index{Field: idx.Field, Unique: idx.Unique}
				}),
			}
		}),
		fx.Provide(func(cfg Config) server.Config {
			return server.Config{
				Prefix: cfg.API.Prefix,
				Debug:  cfg.HTTP.Debug,
			}
		}),
	)
}
