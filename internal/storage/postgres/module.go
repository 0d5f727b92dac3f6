package postgres

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/drobyshev/leadmart/internal/config"
	"github.com/drobyshev/leadmart/internal/domain/repository"
)

// Module wires PostgreSQL storage, repository adapters and the LISTEN loop.
var Module = fx.Options(
	fx.Provide(newStorage),
	fx.Provide(newListener),
	fx.Provide(
		func(s *Storage) repository.UserRepository { return s.Users() },
		func(s *Storage) repository.LeadRepository { return s.Leads() },
		func(s *Storage) repository.DeliveryRepository { return s.Deliveries() },
	),
	fx.Invoke(registerLifecycle),
)

type storageParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

func newStorage(p storageParams) (*Storage, error) {
	return New(p.Ctx, p.Config.DatabaseURI, p.Logger)
}

func newListener(cfg *config.Config, logger *slog.Logger) *LeadListener {
	return NewLeadListener(cfg.DatabaseURI, logger)
}

func registerLifecycle(lc fx.Lifecycle, storage *Storage, listener *LeadListener) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return listener.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			listener.Stop()
			storage.Close()
			return nil
		},
	})
}
