package model

import (
	"sort"
	"time"
)

// LeadStatus describes sale lifecycle of a lead.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusPurchased LeadStatus = "purchased"
	LeadStatusArchived  LeadStatus = "archived"
)

// BuyerCap is the maximum number of distinct buyers a single lead may accumulate.
const BuyerCap = 3

// StatusForBuyerCount derives sale status from the number of distinct buyers.
func StatusForBuyerCount(n int) LeadStatus {
	switch {
	case n <= 0:
		return LeadStatusNew
	case n >= BuyerCap:
		return LeadStatusArchived
	default:
		return LeadStatusPurchased
	}
}

// Lead represents a rental request sellable to a bounded number of buyers.
type Lead struct {
	ID             string
	Category       string
	Equipment      []string
	RentalDuration string
	StartDate      string
	Budget         string
	Address        string
	City           string
	Region         string
	PostalCode     string
	ContactName    string
	ContactPhone   string
	ContactEmail   string
	Details        string
	Status         LeadStatus
	Label          string
	CreatedAt      time.Time
	LabelUpdatedAt *time.Time
	PurchasedBy    []int64
	PurchaseDates  map[int64]time.Time
}

// HasBuyer reports whether the buyer already purchased this lead.
func (l *Lead) HasBuyer(buyerID int64) bool {
	for _, id := range l.PurchasedBy {
		if id == buyerID {
			return true
		}
	}
	return false
}

// AddBuyer records a purchase idempotently and recomputes status from the
// resulting buyer count.
func (l *Lead) AddBuyer(buyerID int64, at time.Time) {
	if l.HasBuyer(buyerID) {
		return
	}
	l.PurchasedBy = append(l.PurchasedBy, buyerID)
	sort.Slice(l.PurchasedBy, func(i, j int) bool { return l.PurchasedBy[i] < l.PurchasedBy[j] })
	if l.PurchaseDates == nil {
		l.PurchaseDates = make(map[int64]time.Time, 1)
	}
	l.PurchaseDates[buyerID] = at
	l.Status = StatusForBuyerCount(len(l.PurchasedBy))
}

// Clone returns a deep copy safe to hand to feed consumers.
func (l *Lead) Clone() *Lead {
	out := *l
	if l.Equipment != nil {
		out.Equipment = append([]string(nil), l.Equipment...)
	}
	if l.PurchasedBy != nil {
		out.PurchasedBy = append([]int64(nil), l.PurchasedBy...)
	}
	if l.PurchaseDates != nil {
		out.PurchaseDates = make(map[int64]time.Time, len(l.PurchaseDates))
		for k, v := range l.PurchaseDates {
			out.PurchaseDates[k] = v
		}
	}
	if l.LabelUpdatedAt != nil {
		ts := *l.LabelUpdatedAt
		out.LabelUpdatedAt = &ts
	}
	return &out
}

// LeadDraft carries the descriptive fields accepted by the intake path.
// Sale state is never part of a draft.
type LeadDraft struct {
	Category       string
	Equipment      []string
	RentalDuration string
	StartDate      string
	Budget         string
	Address        string
	City           string
	Region         string
	PostalCode     string
	ContactName    string
	ContactPhone   string
	ContactEmail   string
	Details        string
}
