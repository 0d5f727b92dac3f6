package app

import (
	"context"

	"github.com/drobyshev/leadmart/internal/adapter/delivery"
	domainErrors "github.com/drobyshev/leadmart/internal/domain/errors"
	"github.com/drobyshev/leadmart/internal/domain/model"
	"github.com/drobyshev/leadmart/internal/feed"
	"github.com/drobyshev/leadmart/internal/usecase"
)

// MarketFacade coordinates use cases, the feed manager and outbound delivery.
// It is the single mutation surface of the marketplace.
type MarketFacade struct {
	auth       *usecase.AuthUseCase
	leads      *usecase.LeadUseCase
	deliveries *usecase.DeliveryUseCase
	feed       *feed.Manager
	courier    delivery.Client
}

// NewMarketFacade constructs MarketFacade.
func NewMarketFacade(auth *usecase.AuthUseCase, leads *usecase.LeadUseCase, deliveries *usecase.DeliveryUseCase, feedManager *feed.Manager, courier delivery.Client) *MarketFacade {
	return &MarketFacade{auth: auth, leads: leads, deliveries: deliveries, feed: feedManager, courier: courier}
}

func (f *MarketFacade) Register(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Register(ctx, login, password)
	return token, err
}

func (f *MarketFacade) Authenticate(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, login, password)
	return token, err
}

func (f *MarketFacade) ParseToken(token string) (*model.Viewer, error) {
	return f.auth.ParseToken(token)
}

// VisibleLeads returns the current materialized list for the viewer.
func (f *MarketFacade) VisibleLeads(ctx context.Context, viewer *model.Viewer) ([]model.Lead, error) {
	return f.leads.ListVisible(ctx, viewer)
}

// SubscribeFeed opens a live snapshot stream under the viewer's predicate.
func (f *MarketFacade) SubscribeFeed(ctx context.Context, viewer *model.Viewer) *feed.Subscription {
	return f.feed.Subscribe(ctx, usecase.VisibilityFor(viewer))
}

// CreateLead registers a new lead from the intake path.
func (f *MarketFacade) CreateLead(ctx context.Context, draft model.LeadDraft) (*model.Lead, error) {
	return f.leads.Create(ctx, draft)
}

// PurchaseLead runs the purchase transaction and, on success, patches live
// feeds optimistically ahead of the next authoritative snapshot.
func (f *MarketFacade) PurchaseLead(ctx context.Context, viewer *model.Viewer, leadID string) (*model.Lead, error) {
	lead, err := f.leads.Purchase(ctx, viewer, leadID)
	if err != nil {
		return nil, err
	}
	f.feed.ApplyLocal(lead)
	return lead, nil
}

// SetLeadLabel attaches the auxiliary label; admin only.
func (f *MarketFacade) SetLeadLabel(ctx context.Context, viewer *model.Viewer, leadID, label string) error {
	if viewer == nil {
		return domainErrors.ErrUnauthenticated
	}
	if !viewer.IsAdmin() {
		return domainErrors.ErrForbidden
	}
	return f.leads.SetLabel(ctx, leadID, label)
}

// LeadByID fetches a single authoritative record.
func (f *MarketFacade) LeadByID(ctx context.Context, id string) (*model.Lead, error) {
	return f.leads.GetByID(ctx, id)
}

// DeliveriesForSending claims pending deliveries for the worker pool.
func (f *MarketFacade) DeliveriesForSending(ctx context.Context, limit int) ([]model.Delivery, error) {
	return f.deliveries.SelectBatchForSending(ctx, limit)
}

// DeliverLead pushes the purchased lead to the buyer webhook.
func (f *MarketFacade) DeliverLead(ctx context.Context, lead *model.Lead, buyerID int64) error {
	return f.courier.Send(ctx, lead, buyerID)
}

// UpdateDeliveryState persists delivery progress.
func (f *MarketFacade) UpdateDeliveryState(ctx context.Context, deliveryID int64, state model.DeliveryState) error {
	return f.deliveries.UpdateState(ctx, deliveryID, state)
}
