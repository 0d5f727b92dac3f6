package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/drobyshev/leadmart/internal/domain/model"
)

// ErrFeedClosed marks a subscription terminated by a change source failure.
var ErrFeedClosed = errors.New("lead feed terminated")

// Snapshot is a full replacement of a viewer's visible lead list. Consumers
// must treat it as replace-whole, never as a patch. Version grows with every
// emission; an authoritative snapshot always supersedes any locally patched
// one with a lower version.
type Snapshot struct {
	Version uint64
	Leads   []model.Lead
	Err     error
}

// Lister runs the authoritative visibility query against the store.
type Lister interface {
	ListVisible(ctx context.Context, vis model.Visibility) ([]model.Lead, error)
}

// ChangeSource delivers coalesced change signals, one per committed lead
// mutation. The channel closes when the source terminates; Err reports the
// terminal cause, nil meaning clean shutdown.
type ChangeSource interface {
	Subscribe() (<-chan struct{}, func())
	Err() error
}

// Manager owns live feed subscriptions. Each subscription re-derives a full
// snapshot from the store on every change signal and never auto-retries after
// a terminal error.
type Manager struct {
	lister Lister
	source ChangeSource
	logger *slog.Logger

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewManager constructs the feed manager.
func NewManager(lister Lister, source ChangeSource, logger *slog.Logger) *Manager {
	return &Manager{
		lister: lister,
		source: source,
		logger: logger,
		subs:   make(map[*Subscription]struct{}),
	}
}

// Subscription is a single viewer's live feed for one identity epoch.
type Subscription struct {
	vis model.Visibility

	snapshots chan Snapshot
	cancel    context.CancelFunc
	done      chan struct{}

	mu      sync.Mutex
	version uint64
	current []model.Lead
	closed  bool
}

// Snapshots returns the replacement snapshot stream. The channel closes after
// a terminal error snapshot or after Cancel.
func (s *Subscription) Snapshots() <-chan Snapshot {
	return s.snapshots
}

// Cancel tears the subscription down and waits until its goroutine exits.
// After Cancel returns no further emission can be observed.
func (s *Subscription) Cancel() {
	s.cancel()
	<-s.done
}

// Subscribe starts a feed for the given visibility predicate. The first
// snapshot is the current store state; subsequent snapshots follow store
// commit signals.
func (m *Manager) Subscribe(ctx context.Context, vis model.Visibility) *Subscription {
	runCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		vis:       vis,
		snapshots: make(chan Snapshot, 1),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	changes, unsubscribe := m.source.Subscribe()

	m.mu.Lock()
	m.subs[sub] = struct{}{}
	m.mu.Unlock()

	go m.run(runCtx, sub, changes, unsubscribe)
	return sub
}

// Swap replaces a subscription on a viewer-identity change. The previous
// subscription is cancelled synchronously before the new one is issued, so no
// emission from the old epoch can be observed after the handoff.
func (m *Manager) Swap(ctx context.Context, prev *Subscription, vis model.Visibility) *Subscription {
	if prev != nil {
		prev.Cancel()
	}
	return m.Subscribe(ctx, vis)
}

// ApplyLocal pushes an optimistic patch into every live subscription whose
// predicate still or newly admits the lead. The patch is superseded by the
// next authoritative snapshot regardless of whether that snapshot reflects it.
func (m *Manager) ApplyLocal(lead *model.Lead) {
	m.mu.Lock()
	subs := make([]*Subscription, 0, len(m.subs))
	for sub := range m.subs {
		subs = append(subs, sub)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		sub.patch(lead)
	}
}

func (m *Manager) run(ctx context.Context, sub *Subscription, changes <-chan struct{}, unsubscribe func()) {
	defer close(sub.done)
	defer unsubscribe()
	defer func() {
		m.mu.Lock()
		delete(m.subs, sub)
		m.mu.Unlock()
	}()

	if !m.refresh(ctx, sub) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			sub.close()
			return
		case _, ok := <-changes:
			if !ok {
				if err := m.source.Err(); err != nil {
					sub.fail(fmt.Errorf("%w: %v", ErrFeedClosed, err))
				} else {
					sub.close()
				}
				return
			}
			if !m.refresh(ctx, sub) {
				return
			}
		}
	}
}

// refresh re-derives the full snapshot from the store. A query failure is
// terminal for the subscription; the caller must re-subscribe explicitly.
func (m *Manager) refresh(ctx context.Context, sub *Subscription) bool {
	leads, err := m.lister.ListVisible(ctx, sub.vis)
	if err != nil {
		if ctx.Err() != nil {
			sub.close()
			return false
		}
		m.logger.Error("feed refresh failed", slog.String("error", err.Error()))
		sub.fail(err)
		return false
	}
	sub.replace(leads)
	return true
}

func (s *Subscription) replace(leads []model.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.current = leads
	s.version++
	s.emit(Snapshot{Version: s.version, Leads: cloneLeads(leads)})
}

func (s *Subscription) patch(lead *model.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	admitted := s.vis.Matches(lead)
	idx := -1
	for i := range s.current {
		if s.current[i].ID == lead.ID {
			idx = i
			break
		}
	}

	switch {
	case idx >= 0 && admitted:
		s.current[idx] = *lead.Clone()
	case idx >= 0:
		s.current = append(s.current[:idx], s.current[idx+1:]...)
	case admitted:
		s.current = append([]model.Lead{*lead.Clone()}, s.current...)
	default:
		return
	}

	s.version++
	s.emit(Snapshot{Version: s.version, Leads: cloneLeads(s.current)})
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.version++
	s.emit(Snapshot{Version: s.version, Err: err})
	s.closed = true
	close(s.snapshots)
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.snapshots)
}

// emit delivers the snapshot, dropping a stale undelivered one first. Under
// replace-whole semantics a lagging consumer only ever needs the latest list.
func (s *Subscription) emit(snap Snapshot) {
	for {
		select {
		case s.snapshots <- snap:
			return
		default:
			select {
			case <-s.snapshots:
			default:
			}
		}
	}
}

func cloneLeads(leads []model.Lead) []model.Lead {
	out := make([]model.Lead, len(leads))
	for i := range leads {
		out[i] = *leads[i].Clone()
	}
	return out
}
