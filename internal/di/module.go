package di

import (
	"context"

	"go.uber.org/fx"

	"github.com/drobyshev/leadmart/internal/adapter/delivery"
	"github.com/drobyshev/leadmart/internal/app"
	"github.com/drobyshev/leadmart/internal/config"
	"github.com/drobyshev/leadmart/internal/domain/model"
	"github.com/drobyshev/leadmart/internal/domain/repository"
	"github.com/drobyshev/leadmart/internal/feed"
	"github.com/drobyshev/leadmart/internal/logger"
	"github.com/drobyshev/leadmart/internal/pkg/auth"
	"github.com/drobyshev/leadmart/internal/server/http/handlers"
	"github.com/drobyshev/leadmart/internal/server/http/router"
	"github.com/drobyshev/leadmart/internal/storage/postgres"
	"github.com/drobyshev/leadmart/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		delivery.Module,
		usecase.Module,
		feed.Module,
		fx.Provide(
			func(r repository.LeadRepository) feed.Lister { return r },
			func(l *postgres.LeadListener) feed.ChangeSource { return l },
			func(f *app.MarketFacade) handlers.MarketFacade { return httpFacade{f} },
		),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}

// httpFacade narrows the application facade to the handlers' feed contract.
type httpFacade struct {
	*app.MarketFacade
}

func (f httpFacade) SubscribeFeed(ctx context.Context, viewer *model.Viewer) handlers.FeedStream {
	return f.MarketFacade.SubscribeFeed(ctx, viewer)
}
