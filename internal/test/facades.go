package test

import (
	"context"
	"sync"

	"github.com/drobyshev/leadmart/internal/domain/model"
	"github.com/drobyshev/leadmart/internal/feed"
)

// AuthFacadeStub implements handler-facing auth operations with overridable functions.
type AuthFacadeStub struct {
	RegisterFn     func(ctx context.Context, login, password string) (string, error)
	AuthenticateFn func(ctx context.Context, login, password string) (string, error)
	ParseTokenFn   func(token string) (*model.Viewer, error)
}

func (s *AuthFacadeStub) Register(ctx context.Context, login, password string) (string, error) {
	if s.RegisterFn != nil {
		return s.RegisterFn(ctx, login, password)
	}
	return "token", nil
}

func (s *AuthFacadeStub) Authenticate(ctx context.Context, login, password string) (string, error) {
	if s.AuthenticateFn != nil {
		return s.AuthenticateFn(ctx, login, password)
	}
	return "token", nil
}

func (s *AuthFacadeStub) ParseToken(token string) (*model.Viewer, error) {
	if s.ParseTokenFn != nil {
		return s.ParseTokenFn(token)
	}
	return &model.Viewer{UserID: 1, Role: model.RoleUser}, nil
}

// LeadFacadeStub implements handler-facing lead operations with overridable functions.
type LeadFacadeStub struct {
	VisibleLeadsFn func(ctx context.Context, viewer *model.Viewer) ([]model.Lead, error)
	CreateLeadFn   func(ctx context.Context, draft model.LeadDraft) (*model.Lead, error)
	PurchaseLeadFn func(ctx context.Context, viewer *model.Viewer, leadID string) (*model.Lead, error)
	SetLeadLabelFn func(ctx context.Context, viewer *model.Viewer, leadID, label string) error
}

func (s *LeadFacadeStub) VisibleLeads(ctx context.Context, viewer *model.Viewer) ([]model.Lead, error) {
	if s.VisibleLeadsFn != nil {
		return s.VisibleLeadsFn(ctx, viewer)
	}
	return nil, nil
}

func (s *LeadFacadeStub) CreateLead(ctx context.Context, draft model.LeadDraft) (*model.Lead, error) {
	if s.CreateLeadFn != nil {
		return s.CreateLeadFn(ctx, draft)
	}
	return &model.Lead{ID: "lead-1", Status: model.LeadStatusNew}, nil
}

func (s *LeadFacadeStub) PurchaseLead(ctx context.Context, viewer *model.Viewer, leadID string) (*model.Lead, error) {
	if s.PurchaseLeadFn != nil {
		return s.PurchaseLeadFn(ctx, viewer, leadID)
	}
	return &model.Lead{ID: leadID, Status: model.LeadStatusPurchased}, nil
}

func (s *LeadFacadeStub) SetLeadLabel(ctx context.Context, viewer *model.Viewer, leadID, label string) error {
	if s.SetLeadLabelFn != nil {
		return s.SetLeadLabelFn(ctx, viewer, leadID, label)
	}
	return nil
}

// FeedStreamStub is a canned snapshot stream for handler tests.
type FeedStreamStub struct {
	Ch        chan feed.Snapshot
	Cancelled bool
	mu        sync.Mutex
}

// NewFeedStreamStub constructs a stream with a buffered snapshot channel.
func NewFeedStreamStub(buffer int) *FeedStreamStub {
	return &FeedStreamStub{Ch: make(chan feed.Snapshot, buffer)}
}

func (s *FeedStreamStub) Snapshots() <-chan feed.Snapshot { return s.Ch }

func (s *FeedStreamStub) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cancelled = true
}

// WasCancelled reports whether Cancel ran.
func (s *FeedStreamStub) WasCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Cancelled
}

// WorkerFacadeStub implements the delivery worker's facade with overridable functions.
type WorkerFacadeStub struct {
	mu sync.Mutex

	DeliveriesFn  func(ctx context.Context, limit int) ([]model.Delivery, error)
	LeadByIDFn    func(ctx context.Context, id string) (*model.Lead, error)
	DeliverFn     func(ctx context.Context, lead *model.Lead, buyerID int64) error
	UpdateStateFn func(ctx context.Context, deliveryID int64, state model.DeliveryState) error

	Updates []DeliveryUpdate
}

func (s *WorkerFacadeStub) DeliveriesForSending(ctx context.Context, limit int) ([]model.Delivery, error) {
	if s.DeliveriesFn != nil {
		return s.DeliveriesFn(ctx, limit)
	}
	return nil, nil
}

func (s *WorkerFacadeStub) LeadByID(ctx context.Context, id string) (*model.Lead, error) {
	if s.LeadByIDFn != nil {
		return s.LeadByIDFn(ctx, id)
	}
	return &model.Lead{ID: id, Status: model.LeadStatusPurchased}, nil
}

func (s *WorkerFacadeStub) DeliverLead(ctx context.Context, lead *model.Lead, buyerID int64) error {
	if s.DeliverFn != nil {
		return s.DeliverFn(ctx, lead, buyerID)
	}
	return nil
}

func (s *WorkerFacadeStub) UpdateDeliveryState(ctx context.Context, deliveryID int64, state model.DeliveryState) error {
	if s.UpdateStateFn != nil {
		return s.UpdateStateFn(ctx, deliveryID, state)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Updates = append(s.Updates, DeliveryUpdate{DeliveryID: deliveryID, State: state})
	return nil
}

// RecordedUpdates returns a copy of the captured state transitions.
func (s *WorkerFacadeStub) RecordedUpdates() []DeliveryUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DeliveryUpdate, len(s.Updates))
	copy(out, s.Updates)
	return out
}
