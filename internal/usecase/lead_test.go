package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domainErrors "github.com/drobyshev/leadmart/internal/domain/errors"
	"github.com/drobyshev/leadmart/internal/domain/model"
	"github.com/drobyshev/leadmart/internal/test"
)

func validDraft() model.LeadDraft {
	return model.LeadDraft{
		Category:     "excavators",
		ContactName:  "Dana",
		ContactPhone: "+1-555-0100",
	}
}

func TestLeadCreateValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.LeadDraft)
	}{
		{"empty category", func(d *model.LeadDraft) { d.Category = "  " }},
		{"empty contact name", func(d *model.LeadDraft) { d.ContactName = "" }},
		{"no contact channel", func(d *model.LeadDraft) { d.ContactPhone = ""; d.ContactEmail = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := test.NewLeadRepositoryStub()
			uc := NewLeadUseCase(repo)

			draft := validDraft()
			tc.mutate(&draft)

			if _, err := uc.Create(context.Background(), draft); !errors.Is(err, domainErrors.ErrInvalidLead) {
				t.Fatalf("Create error = %v, want ErrInvalidLead", err)
			}
			if len(repo.Leads) != 0 {
				t.Fatal("invalid draft must not reach the store")
			}
		})
	}
}

func TestLeadCreateSuccess(t *testing.T) {
	repo := test.NewLeadRepositoryStub()
	uc := NewLeadUseCase(repo)

	draft := validDraft()
	draft.ContactPhone = ""
	draft.ContactEmail = "dana@example.com"

	lead, err := uc.Create(context.Background(), draft)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if lead.ID == "" {
		t.Fatal("created lead has no identifier")
	}
	if lead.Status != model.LeadStatusNew {
		t.Fatalf("created lead status = %q, want %q", lead.Status, model.LeadStatusNew)
	}
	if len(lead.PurchasedBy) != 0 {
		t.Fatal("created lead must have no buyers")
	}
}

func TestPurchaseRequiresAuthentication(t *testing.T) {
	repo := test.NewLeadRepositoryStub()
	uc := NewLeadUseCase(repo)

	_, err := uc.Purchase(context.Background(), nil, "lead-1")
	if !errors.Is(err, domainErrors.ErrUnauthenticated) {
		t.Fatalf("Purchase error = %v, want ErrUnauthenticated", err)
	}
	if repo.GetCalls != 0 {
		t.Fatal("anonymous purchase must be rejected before any store access")
	}
}

func TestPurchaseNotFound(t *testing.T) {
	repo := test.NewLeadRepositoryStub()
	uc := NewLeadUseCase(repo)

	_, err := uc.Purchase(context.Background(), &model.Viewer{UserID: 1, Role: model.RoleUser}, "missing")
	if !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("Purchase error = %v, want ErrNotFound", err)
	}
}

func TestPurchaseAlreadyPurchased(t *testing.T) {
	repo := test.NewLeadRepositoryStub()
	lead := &model.Lead{ID: "lead-1", Status: model.LeadStatusNew}
	lead.AddBuyer(7, time.Now())
	repo.Add(lead)
	uc := NewLeadUseCase(repo)

	_, err := uc.Purchase(context.Background(), &model.Viewer{UserID: 7, Role: model.RoleUser}, "lead-1")
	if !errors.Is(err, domainErrors.ErrAlreadyPurchased) {
		t.Fatalf("Purchase error = %v, want ErrAlreadyPurchased", err)
	}
}

func TestPurchaseCapReached(t *testing.T) {
	repo := test.NewLeadRepositoryStub()
	lead := &model.Lead{ID: "lead-1", Status: model.LeadStatusNew}
	now := time.Now()
	for i := int64(1); i <= model.BuyerCap; i++ {
		lead.AddBuyer(i, now)
	}
	repo.Add(lead)
	uc := NewLeadUseCase(repo)

	_, err := uc.Purchase(context.Background(), &model.Viewer{UserID: 99, Role: model.RoleUser}, "lead-1")
	if !errors.Is(err, domainErrors.ErrCapReached) {
		t.Fatalf("Purchase error = %v, want ErrCapReached", err)
	}
}

// Walks a lead from fresh through the full buyer lifecycle: three distinct
// buyers succeed, a repeat buyer is rejected, and a fourth buyer hits the cap.
func TestPurchaseLifecycle(t *testing.T) {
	repo := test.NewLeadRepositoryStub()
	repo.Add(&model.Lead{ID: "lead-1", Status: model.LeadStatusNew})
	uc := NewLeadUseCase(repo)
	ctx := context.Background()

	first, err := uc.Purchase(ctx, &model.Viewer{UserID: 1, Role: model.RoleUser}, "lead-1")
	if err != nil {
		t.Fatalf("first purchase failed: %v", err)
	}
	if first.Status != model.LeadStatusPurchased {
		t.Fatalf("status after first purchase = %q, want %q", first.Status, model.LeadStatusPurchased)
	}

	if _, err := uc.Purchase(ctx, &model.Viewer{UserID: 1, Role: model.RoleUser}, "lead-1"); !errors.Is(err, domainErrors.ErrAlreadyPurchased) {
		t.Fatalf("repeat purchase error = %v, want ErrAlreadyPurchased", err)
	}

	if _, err := uc.Purchase(ctx, &model.Viewer{UserID: 2, Role: model.RoleUser}, "lead-1"); err != nil {
		t.Fatalf("second buyer failed: %v", err)
	}
	third, err := uc.Purchase(ctx, &model.Viewer{UserID: 3, Role: model.RoleUser}, "lead-1")
	if err != nil {
		t.Fatalf("third buyer failed: %v", err)
	}
	if third.Status != model.LeadStatusArchived {
		t.Fatalf("status at cap = %q, want %q", third.Status, model.LeadStatusArchived)
	}

	if _, err := uc.Purchase(ctx, &model.Viewer{UserID: 4, Role: model.RoleUser}, "lead-1"); !errors.Is(err, domainErrors.ErrCapReached) {
		t.Fatalf("fourth buyer error = %v, want ErrCapReached", err)
	}
}

// Many buyers race for one lead; exactly BuyerCap may win because the
// repository arbitrates under its lock regardless of what the fast-path
// precondition check observed.
func TestPurchaseConcurrentCap(t *testing.T) {
	repo := test.NewLeadRepositoryStub()
	repo.Add(&model.Lead{ID: "lead-1", Status: model.LeadStatusNew})
	uc := NewLeadUseCase(repo)

	const contenders = 16
	var wg sync.WaitGroup
	errs := make([]error, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = uc.Purchase(context.Background(), &model.Viewer{UserID: int64(n + 1), Role: model.RoleUser}, "lead-1")
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, domainErrors.ErrCapReached):
		case errors.Is(err, domainErrors.ErrAlreadyPurchased):
			t.Fatalf("distinct buyers must never see ErrAlreadyPurchased, got %v", err)
		default:
			t.Fatalf("unexpected purchase error: %v", err)
		}
	}
	if won != model.BuyerCap {
		t.Fatalf("winners = %d, want exactly %d", won, model.BuyerCap)
	}

	final, err := uc.GetByID(context.Background(), "lead-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(final.PurchasedBy) != model.BuyerCap {
		t.Fatalf("buyer list = %v, want %d entries", final.PurchasedBy, model.BuyerCap)
	}
	if final.Status != model.LeadStatusArchived {
		t.Fatalf("final status = %q, want %q", final.Status, model.LeadStatusArchived)
	}
}

func TestSetLabelLeavesSaleStateAlone(t *testing.T) {
	repo := test.NewLeadRepositoryStub()
	lead := &model.Lead{ID: "lead-1", Status: model.LeadStatusNew}
	lead.AddBuyer(5, time.Now())
	repo.Add(lead)
	uc := NewLeadUseCase(repo)

	if err := uc.SetLabel(context.Background(), "lead-1", "  hot  "); err != nil {
		t.Fatalf("SetLabel failed: %v", err)
	}

	got, err := uc.GetByID(context.Background(), "lead-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Label != "hot" {
		t.Fatalf("label = %q, want trimmed %q", got.Label, "hot")
	}
	if got.LabelUpdatedAt == nil {
		t.Fatal("label timestamp not recorded")
	}
	if got.Status != model.LeadStatusPurchased || len(got.PurchasedBy) != 1 {
		t.Fatal("label update must not touch sale state")
	}
}

func TestSetLabelNotFound(t *testing.T) {
	uc := NewLeadUseCase(test.NewLeadRepositoryStub())
	if err := uc.SetLabel(context.Background(), "missing", "x"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("SetLabel error = %v, want ErrNotFound", err)
	}
}

func TestListVisibleUsesViewerPredicate(t *testing.T) {
	repo := test.NewLeadRepositoryStub()
	fresh := &model.Lead{ID: "fresh", Status: model.LeadStatusNew, CreatedAt: time.Now()}
	sold := &model.Lead{ID: "sold", Status: model.LeadStatusNew, CreatedAt: time.Now().Add(-time.Hour)}
	sold.AddBuyer(7, time.Now())
	repo.Add(fresh)
	repo.Add(sold)
	uc := NewLeadUseCase(repo)
	ctx := context.Background()

	anon, err := uc.ListVisible(ctx, nil)
	if err != nil {
		t.Fatalf("anonymous ListVisible failed: %v", err)
	}
	if len(anon) != 1 || anon[0].ID != "fresh" {
		t.Fatalf("anonymous feed = %+v, want only the unsold lead", anon)
	}

	owner, err := uc.ListVisible(ctx, &model.Viewer{UserID: 7, Role: model.RoleUser})
	if err != nil {
		t.Fatalf("owner ListVisible failed: %v", err)
	}
	if len(owner) != 2 {
		t.Fatalf("owner feed has %d leads, want 2", len(owner))
	}

	admin, err := uc.ListVisible(ctx, &model.Viewer{UserID: 1, Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("admin ListVisible failed: %v", err)
	}
	if len(admin) != 2 {
		t.Fatalf("admin feed has %d leads, want 2", len(admin))
	}
}
