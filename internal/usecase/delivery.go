package usecase

import (
	"context"

	"github.com/drobyshev/leadmart/internal/domain/model"
	"github.com/drobyshev/leadmart/internal/domain/repository"
)

// DeliveryUseCase manages the purchased-lead delivery queue.
type DeliveryUseCase struct {
	deliveries repository.DeliveryRepository
}

// NewDeliveryUseCase constructs DeliveryUseCase.
func NewDeliveryUseCase(deliveries repository.DeliveryRepository) *DeliveryUseCase {
	return &DeliveryUseCase{deliveries: deliveries}
}

// SelectBatchForSending claims pending deliveries for the worker pool.
func (u *DeliveryUseCase) SelectBatchForSending(ctx context.Context, limit int) ([]model.Delivery, error) {
	return u.deliveries.SelectBatchForSending(ctx, limit)
}

// UpdateState persists delivery progress.
func (u *DeliveryUseCase) UpdateState(ctx context.Context, deliveryID int64, state model.DeliveryState) error {
	return u.deliveries.UpdateState(ctx, deliveryID, state)
}
