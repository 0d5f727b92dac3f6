package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/drobyshev/leadmart/internal/adapter/delivery"
	domainErrors "github.com/drobyshev/leadmart/internal/domain/errors"
	"github.com/drobyshev/leadmart/internal/domain/model"
)

// MarketFacade exposes the subset of application functionality required by the worker.
type MarketFacade interface {
	DeliveriesForSending(ctx context.Context, limit int) ([]model.Delivery, error)
	LeadByID(ctx context.Context, id string) (*model.Lead, error)
	DeliverLead(ctx context.Context, lead *model.Lead, buyerID int64) error
	UpdateDeliveryState(ctx context.Context, deliveryID int64, state model.DeliveryState) error
}

// DeliveryProcessor drains the purchased-lead delivery queue concurrently.
type DeliveryProcessor struct {
	facade       MarketFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.Delivery
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewDeliveryProcessor constructs delivery processor worker pool.
func NewDeliveryProcessor(facade MarketFacade, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *DeliveryProcessor {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &DeliveryProcessor{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.Delivery, batchSize*workers),
	}
}

// Start launches background processing.
func (p *DeliveryProcessor) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx)
	}

	p.wg.Add(1)
	go p.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (p *DeliveryProcessor) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *DeliveryProcessor) dispatch(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.jobs)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchAndDispatch(ctx)
		}
	}
}

func (p *DeliveryProcessor) fetchAndDispatch(ctx context.Context) {
	deliveries, err := p.facade.DeliveriesForSending(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("fetch deliveries for sending failed", slog.String("error", err.Error()))
		return
	}
	for _, d := range deliveries {
		select {
		case <-ctx.Done():
			return
		case p.jobs <- d:
		}
	}
}

func (p *DeliveryProcessor) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-p.jobs:
			if !ok {
				return
			}
			p.handleDelivery(ctx, d)
		}
	}
}

func (p *DeliveryProcessor) handleDelivery(ctx context.Context, d model.Delivery) {
	lead, err := p.facade.LeadByID(ctx, d.LeadID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			p.updateState(ctx, d.ID, model.DeliveryStateFailed)
			return
		}
		p.logger.Error("load lead for delivery failed", slog.String("lead", d.LeadID), slog.String("error", err.Error()))
		p.updateState(ctx, d.ID, model.DeliveryStatePending)
		return
	}

	if err := p.facade.DeliverLead(ctx, lead, d.BuyerID); err != nil {
		switch e := err.(type) {
		case delivery.TooManyRequestsError:
			p.logger.Warn("delivery rate limited", slog.Duration("retry_after", e.RetryAfter))
			time.Sleep(e.RetryAfter)
			p.updateState(ctx, d.ID, model.DeliveryStatePending)
		default:
			if errors.Is(err, delivery.ErrRejected) {
				p.updateState(ctx, d.ID, model.DeliveryStateFailed)
				return
			}
			p.logger.Error("lead delivery failed", slog.String("lead", d.LeadID), slog.String("error", err.Error()))
			p.updateState(ctx, d.ID, model.DeliveryStatePending)
		}
		return
	}

	p.updateState(ctx, d.ID, model.DeliveryStateDelivered)
}

func (p *DeliveryProcessor) updateState(ctx context.Context, deliveryID int64, state model.DeliveryState) {
	if err := p.facade.UpdateDeliveryState(ctx, deliveryID, state); err != nil {
		p.logger.Error("update delivery state failed", slog.Int64("delivery", deliveryID), slog.String("error", err.Error()))
	}
}
