package test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/drobyshev/leadmart/internal/domain/errors"
	"github.com/drobyshev/leadmart/internal/domain/model"
)

// LeadRepositoryStub stores leads in-memory for tests. Purchase is serialized
// by the internal mutex, mirroring the storage layer's row lock, so the stub
// upholds the buyer-cap invariant under concurrent callers.
type LeadRepositoryStub struct {
	mu    sync.Mutex
	Leads map[string]*model.Lead
	Err   error

	CreateFn   func(context.Context, model.LeadDraft) (*model.Lead, error)
	GetFn      func(context.Context, string) (*model.Lead, error)
	ListFn     func(context.Context, model.Visibility) ([]model.Lead, error)
	PurchaseFn func(context.Context, string, int64) (*model.Lead, error)
	SetLabelFn func(context.Context, string, string) error

	GetCalls int
	Now      func() time.Time
}

// NewLeadRepositoryStub constructs stub repository with initialized maps.
func NewLeadRepositoryStub() *LeadRepositoryStub {
	return &LeadRepositoryStub{
		Leads: make(map[string]*model.Lead),
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// Add seeds a lead into the stub store.
func (s *LeadRepositoryStub) Add(lead *model.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Leads == nil {
		s.Leads = make(map[string]*model.Lead)
	}
	s.Leads[lead.ID] = lead.Clone()
}

// Create registers a lead assigning a generated identifier.
func (s *LeadRepositoryStub) Create(ctx context.Context, draft model.LeadDraft) (*model.Lead, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, draft)
	}
	if s.Err != nil {
		return nil, s.Err
	}

	lead := &model.Lead{
		ID:             uuid.NewString(),
		Category:       draft.Category,
		Equipment:      draft.Equipment,
		RentalDuration: draft.RentalDuration,
		StartDate:      draft.StartDate,
		Budget:         draft.Budget,
		Address:        draft.Address,
		City:           draft.City,
		Region:         draft.Region,
		PostalCode:     draft.PostalCode,
		ContactName:    draft.ContactName,
		ContactPhone:   draft.ContactPhone,
		ContactEmail:   draft.ContactEmail,
		Details:        draft.Details,
		Status:         model.LeadStatusNew,
		CreatedAt:      s.Now(),
	}
	s.Add(lead)
	return lead.Clone(), nil
}

// GetByID returns a copy of the stored lead or not found.
func (s *LeadRepositoryStub) GetByID(ctx context.Context, id string) (*model.Lead, error) {
	s.mu.Lock()
	s.GetCalls++
	s.mu.Unlock()

	if s.GetFn != nil {
		return s.GetFn(ctx, id)
	}
	if s.Err != nil {
		return nil, s.Err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.Leads[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return lead.Clone(), nil
}

// ListVisible filters stored leads by predicate, newest first.
func (s *LeadRepositoryStub) ListVisible(ctx context.Context, vis model.Visibility) ([]model.Lead, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, vis)
	}
	if s.Err != nil {
		return nil, s.Err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Lead
	for _, lead := range s.Leads {
		if vis.Matches(lead) {
			out = append(out, *lead.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Purchase awards the lead under the buyer-cap invariant, serialized by the
// stub mutex like the storage transaction's row lock.
func (s *LeadRepositoryStub) Purchase(ctx context.Context, leadID string, buyerID int64) (*model.Lead, error) {
	if s.PurchaseFn != nil {
		return s.PurchaseFn(ctx, leadID, buyerID)
	}
	if s.Err != nil {
		return nil, s.Err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.Leads[leadID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if lead.HasBuyer(buyerID) {
		return nil, domainErrors.ErrAlreadyPurchased
	}
	if len(lead.PurchasedBy) >= model.BuyerCap {
		return nil, domainErrors.ErrCapReached
	}

	lead.AddBuyer(buyerID, s.Now())
	return lead.Clone(), nil
}

// SetLabel writes the auxiliary label only.
func (s *LeadRepositoryStub) SetLabel(ctx context.Context, leadID, label string) error {
	if s.SetLabelFn != nil {
		return s.SetLabelFn(ctx, leadID, label)
	}
	if s.Err != nil {
		return s.Err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.Leads[leadID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	lead.Label = label
	now := s.Now()
	lead.LabelUpdatedAt = &now
	return nil
}

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	ByID  map[int64]*model.User
	Next  int64
	Err   error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		ByID:  make(map[int64]*model.User),
		Next:  1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, login, passwordHash string, role model.Role) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if s.ByID == nil {
		s.ByID = make(map[int64]*model.User)
	}
	if _, exists := s.Users[login]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	user := &model.User{ID: s.Next, Login: login, PasswordHash: passwordHash, Role: role}
	s.Next++
	s.Users[login] = user
	s.ByID[user.ID] = user
	return user, nil
}

// GetByLogin fetches user by login or returns not found.
func (s *UserRepositoryStub) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[login]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// DeliveryRepositoryStub queues deliveries in-memory for tests.
type DeliveryRepositoryStub struct {
	mu      sync.Mutex
	Pending []model.Delivery
	Updates []DeliveryUpdate
	Err     error
}

// DeliveryUpdate records an UpdateState invocation.
type DeliveryUpdate struct {
	DeliveryID int64
	State      model.DeliveryState
}

// SelectBatchForSending claims queued deliveries up to limit.
func (s *DeliveryRepositoryStub) SelectBatchForSending(ctx context.Context, limit int) ([]model.Delivery, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.Pending) {
		limit = len(s.Pending)
	}
	batch := make([]model.Delivery, limit)
	copy(batch, s.Pending[:limit])
	s.Pending = s.Pending[limit:]
	for i := range batch {
		batch[i].State = model.DeliveryStateSending
	}
	return batch, nil
}

// UpdateState records the requested transition.
func (s *DeliveryRepositoryStub) UpdateState(ctx context.Context, deliveryID int64, state model.DeliveryState) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Updates = append(s.Updates, DeliveryUpdate{DeliveryID: deliveryID, State: state})
	return nil
}
