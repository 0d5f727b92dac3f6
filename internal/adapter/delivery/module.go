package delivery

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/drobyshev/leadmart/internal/config"
)

// Module exposes delivery client implementation to fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	return NewHTTPClient(p.Config.DeliveryWebhookURL, p.Logger)
}
