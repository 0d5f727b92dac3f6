package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/drobyshev/leadmart/internal/adapter/delivery"
	domainErrors "github.com/drobyshev/leadmart/internal/domain/errors"
	"github.com/drobyshev/leadmart/internal/domain/model"
	"github.com/drobyshev/leadmart/internal/test"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// batchOnce returns the given deliveries on the first poll and nothing after.
func batchOnce(deliveries []model.Delivery) func(ctx context.Context, limit int) ([]model.Delivery, error) {
	var mu sync.Mutex
	served := false
	return func(ctx context.Context, limit int) ([]model.Delivery, error) {
		mu.Lock()
		defer mu.Unlock()
		if served {
			return nil, nil
		}
		served = true
		return deliveries, nil
	}
}

func waitForUpdate(t *testing.T, facade *test.WorkerFacadeStub, deliveryID int64, want model.DeliveryState) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		for _, u := range facade.RecordedUpdates() {
			if u.DeliveryID == deliveryID && u.State == want {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("delivery %d never reached state %q; updates: %+v", deliveryID, want, facade.RecordedUpdates())
}

func startProcessor(t *testing.T, facade *test.WorkerFacadeStub) *DeliveryProcessor {
	t.Helper()
	processor := NewDeliveryProcessor(facade, 10*time.Millisecond, 4, 2, testLogger())
	processor.Start(context.Background())
	t.Cleanup(processor.Stop)
	return processor
}

func TestProcessorDeliversLead(t *testing.T) {
	facade := &test.WorkerFacadeStub{
		DeliveriesFn: batchOnce([]model.Delivery{{ID: 1, LeadID: "lead-1", BuyerID: 7, State: model.DeliveryStateSending}}),
	}
	startProcessor(t, facade)

	waitForUpdate(t, facade, 1, model.DeliveryStateDelivered)
}

func TestProcessorMarksFailedWhenLeadMissing(t *testing.T) {
	facade := &test.WorkerFacadeStub{
		DeliveriesFn: batchOnce([]model.Delivery{{ID: 2, LeadID: "ghost", BuyerID: 7}}),
		LeadByIDFn: func(ctx context.Context, id string) (*model.Lead, error) {
			return nil, domainErrors.ErrNotFound
		},
	}
	startProcessor(t, facade)

	waitForUpdate(t, facade, 2, model.DeliveryStateFailed)
}

func TestProcessorRequeuesOnLoadError(t *testing.T) {
	facade := &test.WorkerFacadeStub{
		DeliveriesFn: batchOnce([]model.Delivery{{ID: 3, LeadID: "lead-1", BuyerID: 7}}),
		LeadByIDFn: func(ctx context.Context, id string) (*model.Lead, error) {
			return nil, errors.New("db gone")
		},
	}
	startProcessor(t, facade)

	waitForUpdate(t, facade, 3, model.DeliveryStatePending)
}

func TestProcessorMarksRejectedFailed(t *testing.T) {
	facade := &test.WorkerFacadeStub{
		DeliveriesFn: batchOnce([]model.Delivery{{ID: 4, LeadID: "lead-1", BuyerID: 7}}),
		DeliverFn: func(ctx context.Context, lead *model.Lead, buyerID int64) error {
			return fmt.Errorf("%w: 422", delivery.ErrRejected)
		},
	}
	startProcessor(t, facade)

	waitForUpdate(t, facade, 4, model.DeliveryStateFailed)
}

func TestProcessorRequeuesOnSendError(t *testing.T) {
	facade := &test.WorkerFacadeStub{
		DeliveriesFn: batchOnce([]model.Delivery{{ID: 5, LeadID: "lead-1", BuyerID: 7}}),
		DeliverFn: func(ctx context.Context, lead *model.Lead, buyerID int64) error {
			return errors.New("connection refused")
		},
	}
	startProcessor(t, facade)

	waitForUpdate(t, facade, 5, model.DeliveryStatePending)
}

func TestProcessorRequeuesOnRateLimit(t *testing.T) {
	facade := &test.WorkerFacadeStub{
		DeliveriesFn: batchOnce([]model.Delivery{{ID: 6, LeadID: "lead-1", BuyerID: 7}}),
		DeliverFn: func(ctx context.Context, lead *model.Lead, buyerID int64) error {
			return delivery.TooManyRequestsError{RetryAfter: 5 * time.Millisecond}
		},
	}
	startProcessor(t, facade)

	waitForUpdate(t, facade, 6, model.DeliveryStatePending)
}

func TestProcessorProcessesBatchConcurrently(t *testing.T) {
	batch := []model.Delivery{
		{ID: 10, LeadID: "lead-1", BuyerID: 1},
		{ID: 11, LeadID: "lead-2", BuyerID: 2},
		{ID: 12, LeadID: "lead-3", BuyerID: 3},
	}
	facade := &test.WorkerFacadeStub{DeliveriesFn: batchOnce(batch)}
	startProcessor(t, facade)

	for _, d := range batch {
		waitForUpdate(t, facade, d.ID, model.DeliveryStateDelivered)
	}
}

func TestProcessorStopIsIdempotent(t *testing.T) {
	facade := &test.WorkerFacadeStub{}
	processor := NewDeliveryProcessor(facade, 10*time.Millisecond, 1, 1, testLogger())
	processor.Start(context.Background())
	processor.Stop()
	processor.Stop()
}
