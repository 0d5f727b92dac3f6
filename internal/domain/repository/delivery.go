package repository

import (
	"context"

	"github.com/drobyshev/leadmart/internal/domain/model"
)

// DeliveryRepository describes the queue of purchased-lead hand-offs.
type DeliveryRepository interface {
	// SelectBatchForSending claims up to limit pending deliveries, moving them
	// to the sending state so concurrent workers never pick the same row.
	SelectBatchForSending(ctx context.Context, limit int) ([]model.Delivery, error)
	UpdateState(ctx context.Context, deliveryID int64, state model.DeliveryState) error
}
