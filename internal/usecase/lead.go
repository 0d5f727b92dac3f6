package usecase

import (
	"context"
	"strings"

	domainErrors "github.com/drobyshev/leadmart/internal/domain/errors"
	"github.com/drobyshev/leadmart/internal/domain/model"
	"github.com/drobyshev/leadmart/internal/domain/repository"
)

// LeadUseCase encapsulates lead lifecycle logic: intake, visibility-scoped
// listing, the purchase transaction, and the auxiliary label path.
type LeadUseCase struct {
	leads repository.LeadRepository
}

// NewLeadUseCase constructs LeadUseCase.
func NewLeadUseCase(leads repository.LeadRepository) *LeadUseCase {
	return &LeadUseCase{leads: leads}
}

// Create registers a new lead from the intake path. The store assigns the
// identifier and creation time; the lead starts new with no buyers.
func (u *LeadUseCase) Create(ctx context.Context, draft model.LeadDraft) (*model.Lead, error) {
	draft.Category = strings.TrimSpace(draft.Category)
	draft.ContactName = strings.TrimSpace(draft.ContactName)
	if draft.Category == "" || draft.ContactName == "" {
		return nil, domainErrors.ErrInvalidLead
	}
	if draft.ContactPhone == "" && draft.ContactEmail == "" {
		return nil, domainErrors.ErrInvalidLead
	}
	return u.leads.Create(ctx, draft)
}

// ListVisible returns the leads the viewer's feed predicate admits.
func (u *LeadUseCase) ListVisible(ctx context.Context, viewer *model.Viewer) ([]model.Lead, error) {
	return u.leads.ListVisible(ctx, VisibilityFor(viewer))
}

// GetByID fetches a single authoritative record.
func (u *LeadUseCase) GetByID(ctx context.Context, id string) (*model.Lead, error) {
	return u.leads.GetByID(ctx, id)
}

// Purchase awards a lead to the viewer under the buyer-cap invariant.
//
// Preconditions are checked against a fresh point read, never against feed
// state, because the feed may lag a purchase by another buyer. That pass is a
// fast path only: the repository transaction re-validates everything against
// the locked row, so two concurrent calls that both pass here cannot both
// commit past the cap.
func (u *LeadUseCase) Purchase(ctx context.Context, viewer *model.Viewer, leadID string) (*model.Lead, error) {
	if viewer == nil {
		return nil, domainErrors.ErrUnauthenticated
	}

	lead, err := u.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead.HasBuyer(viewer.UserID) {
		return nil, domainErrors.ErrAlreadyPurchased
	}
	if len(lead.PurchasedBy) >= model.BuyerCap {
		return nil, domainErrors.ErrCapReached
	}

	return u.leads.Purchase(ctx, leadID, viewer.UserID)
}

// SetLabel attaches the auxiliary status label without touching sale state.
func (u *LeadUseCase) SetLabel(ctx context.Context, leadID, label string) error {
	return u.leads.SetLabel(ctx, leadID, strings.TrimSpace(label))
}
