package repository

import (
	"context"

	"github.com/drobyshev/leadmart/internal/domain/model"
)

// LeadRepository describes persistence operations with leads.
//
// Purchase is the authoritative arbiter: it must lock the lead, re-validate
// the duplicate-buyer and buyer-cap preconditions against the locked state,
// add the buyer idempotently, and recompute status from the resulting buyer
// count in a single atomic transaction.
type LeadRepository interface {
	Create(ctx context.Context, draft model.LeadDraft) (*model.Lead, error)
	GetByID(ctx context.Context, id string) (*model.Lead, error)
	ListVisible(ctx context.Context, vis model.Visibility) ([]model.Lead, error)
	Purchase(ctx context.Context, leadID string, buyerID int64) (*model.Lead, error)
	SetLabel(ctx context.Context, leadID, label string) error
}
