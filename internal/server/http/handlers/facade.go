package handlers

import (
	"context"

	"github.com/drobyshev/leadmart/internal/domain/model"
	"github.com/drobyshev/leadmart/internal/feed"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, login, password string) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
	ParseToken(token string) (*model.Viewer, error)
}

// LeadFacade encapsulates lead operations exposed via HTTP.
type LeadFacade interface {
	VisibleLeads(ctx context.Context, viewer *model.Viewer) ([]model.Lead, error)
	CreateLead(ctx context.Context, draft model.LeadDraft) (*model.Lead, error)
	PurchaseLead(ctx context.Context, viewer *model.Viewer, leadID string) (*model.Lead, error)
	SetLeadLabel(ctx context.Context, viewer *model.Viewer, leadID, label string) error
}

// FeedStream is a live snapshot stream handed to one HTTP consumer.
type FeedStream interface {
	Snapshots() <-chan feed.Snapshot
	Cancel()
}

// FeedFacade opens live feeds scoped to a viewer's visibility.
type FeedFacade interface {
	SubscribeFeed(ctx context.Context, viewer *model.Viewer) FeedStream
}

// MarketFacade aggregates the full set of operations used across handlers.
type MarketFacade interface {
	AuthFacade
	LeadFacade
	FeedFacade
}
