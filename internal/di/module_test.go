package di

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.uber.org/fx"

	"github.com/drobyshev/leadmart/internal/adapter/delivery"
	"github.com/drobyshev/leadmart/internal/app"
	"github.com/drobyshev/leadmart/internal/config"
	"github.com/drobyshev/leadmart/internal/domain/model"
	"github.com/drobyshev/leadmart/internal/domain/repository"
	"github.com/drobyshev/leadmart/internal/storage/postgres"
	"github.com/drobyshev/leadmart/internal/test"
)

type courierStub struct{}

func (courierStub) Send(ctx context.Context, lead *model.Lead, buyerID int64) error { return nil }

func TestModuleComposesGraphWithReplacements(t *testing.T) {
	cfg := &config.Config{
		RunAddress:           ":0",
		DatabaseURI:          "postgres://stub",
		DeliveryWebhookURL:   "http://localhost",
		JWTSecret:            "secret",
		DeliveryPollInterval: time.Millisecond,
		WorkerPoolSize:       1,
		ShutdownTimeout:      time.Millisecond,
		MaxDeliveryBatch:     1,
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	userRepo := test.NewUserRepositoryStub()
	leadRepo := test.NewLeadRepositoryStub()
	deliveryRepo := &test.DeliveryRepositoryStub{}

	var facade *app.MarketFacade
	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(context.Background()),
		Module(
			fx.Replace(cfg),
			fx.Replace(logger),
			fx.Replace(&postgres.Storage{}),
			fx.Replace(repository.UserRepository(userRepo)),
			fx.Replace(repository.LeadRepository(leadRepo)),
			fx.Replace(repository.DeliveryRepository(deliveryRepo)),
			fx.Replace(delivery.Client(courierStub{})),
		),
		fx.Populate(&facade),
	)

	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	t.Cleanup(func() { _ = fxApp.Stop(context.Background()) })
	if facade == nil {
		t.Fatal("expected market facade instance")
	}
}
