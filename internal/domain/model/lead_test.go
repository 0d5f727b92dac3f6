package model

import (
	"testing"
	"time"
)

func TestStatusForBuyerCount(t *testing.T) {
	cases := []struct {
		name string
		n    int
		want LeadStatus
	}{
		{"negative", -1, LeadStatusNew},
		{"zero", 0, LeadStatusNew},
		{"one", 1, LeadStatusPurchased},
		{"below cap", BuyerCap - 1, LeadStatusPurchased},
		{"at cap", BuyerCap, LeadStatusArchived},
		{"above cap", BuyerCap + 1, LeadStatusArchived},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusForBuyerCount(tc.n); got != tc.want {
				t.Fatalf("StatusForBuyerCount(%d) = %q, want %q", tc.n, got, tc.want)
			}
		})
	}
}

func TestLeadHasBuyer(t *testing.T) {
	lead := &Lead{PurchasedBy: []int64{7, 42}}

	if !lead.HasBuyer(42) {
		t.Fatal("expected buyer 42 to be present")
	}
	if lead.HasBuyer(8) {
		t.Fatal("expected buyer 8 to be absent")
	}
}

func TestLeadAddBuyerTransitions(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lead := &Lead{ID: "lead-1", Status: LeadStatusNew}

	lead.AddBuyer(3, now)
	if lead.Status != LeadStatusPurchased {
		t.Fatalf("after first buyer status = %q, want %q", lead.Status, LeadStatusPurchased)
	}
	if got := lead.PurchaseDates[3]; !got.Equal(now) {
		t.Fatalf("purchase date = %v, want %v", got, now)
	}

	lead.AddBuyer(1, now.Add(time.Minute))
	lead.AddBuyer(2, now.Add(2*time.Minute))
	if lead.Status != LeadStatusArchived {
		t.Fatalf("after %d buyers status = %q, want %q", BuyerCap, lead.Status, LeadStatusArchived)
	}

	for i, id := range lead.PurchasedBy {
		if int64(i+1) != id {
			t.Fatalf("buyers not sorted: %v", lead.PurchasedBy)
		}
	}
}

func TestLeadAddBuyerIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lead := &Lead{ID: "lead-1", Status: LeadStatusNew}

	lead.AddBuyer(5, now)
	lead.AddBuyer(5, now.Add(time.Hour))

	if len(lead.PurchasedBy) != 1 {
		t.Fatalf("buyers = %v, want single entry", lead.PurchasedBy)
	}
	if got := lead.PurchaseDates[5]; !got.Equal(now) {
		t.Fatalf("repeated AddBuyer overwrote purchase date: %v", got)
	}
	if lead.Status != LeadStatusPurchased {
		t.Fatalf("status = %q, want %q", lead.Status, LeadStatusPurchased)
	}
}

func TestLeadCloneIsDeep(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	original := &Lead{
		ID:             "lead-1",
		Equipment:      []string{"excavator"},
		Status:         LeadStatusPurchased,
		PurchasedBy:    []int64{1},
		PurchaseDates:  map[int64]time.Time{1: ts},
		LabelUpdatedAt: &ts,
	}

	clone := original.Clone()
	clone.Equipment[0] = "crane"
	clone.PurchasedBy[0] = 99
	clone.PurchaseDates[2] = ts
	*clone.LabelUpdatedAt = ts.Add(time.Hour)

	if original.Equipment[0] != "excavator" {
		t.Fatal("clone shares equipment slice with original")
	}
	if original.PurchasedBy[0] != 1 {
		t.Fatal("clone shares buyer slice with original")
	}
	if _, ok := original.PurchaseDates[2]; ok {
		t.Fatal("clone shares purchase dates map with original")
	}
	if !original.LabelUpdatedAt.Equal(ts) {
		t.Fatal("clone shares label timestamp with original")
	}
}

func TestVisibilityMatches(t *testing.T) {
	fresh := &Lead{Status: LeadStatusNew}
	sold := &Lead{Status: LeadStatusPurchased, PurchasedBy: []int64{7}}
	archived := &Lead{Status: LeadStatusArchived, PurchasedBy: []int64{1, 2, 7}}

	cases := []struct {
		name string
		vis  Visibility
		lead *Lead
		want bool
	}{
		{"new only admits fresh", Visibility{Scope: VisibilityNewOnly}, fresh, true},
		{"new only hides sold", Visibility{Scope: VisibilityNewOnly}, sold, false},
		{"all admits archived", Visibility{Scope: VisibilityAll}, archived, true},
		{"owned admits fresh", Visibility{Scope: VisibilityNewOrOwned, OwnerID: 5}, fresh, true},
		{"owned admits own purchase", Visibility{Scope: VisibilityNewOrOwned, OwnerID: 7}, sold, true},
		{"owned hides foreign purchase", Visibility{Scope: VisibilityNewOrOwned, OwnerID: 5}, sold, false},
		{"owned admits own archived", Visibility{Scope: VisibilityNewOrOwned, OwnerID: 7}, archived, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.vis.Matches(tc.lead); got != tc.want {
				t.Fatalf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestViewerIsAdmin(t *testing.T) {
	var absent *Viewer
	if absent.IsAdmin() {
		t.Fatal("nil viewer must not be admin")
	}
	if (&Viewer{UserID: 1, Role: RoleUser}).IsAdmin() {
		t.Fatal("regular viewer must not be admin")
	}
	if !(&Viewer{UserID: 1, Role: RoleAdmin}).IsAdmin() {
		t.Fatal("admin viewer must be admin")
	}
}
