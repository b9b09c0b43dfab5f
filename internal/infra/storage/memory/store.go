package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"staydesk/internal/app/snapshot"
	"staydesk/internal/domain/housekeeping"
	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/maintenance"
	"staydesk/internal/domain/reservation"
)

// ErrReadOnlyUnit is returned when a read-only unit of work is asked to write.
var ErrReadOnlyUnit = errors.New("memory: unit of work is read-only")

// Store owns the committed calendar state. Units of work read through it and apply their
// staged writes on commit; the RWMutex is held by a unit from Begin until it ends.
type Store struct {
	mu       sync.RWMutex
	revision atomic.Uint64

	catalogue inventory.Registry

	reservations map[reservation.ID]*reservation.Reservation
	resOrder     []reservation.ID

	blocks     map[maintenance.BlockID]maintenance.Block
	blockOrder []maintenance.BlockID

	cleaning      map[housekeeping.BlockID]housekeeping.Block
	cleaningOrder []housekeeping.BlockID
}

func NewStore(catalogue inventory.Registry) *Store {
	return &Store{
		catalogue:    catalogue,
		reservations: make(map[reservation.ID]*reservation.Reservation),
		blocks:       make(map[maintenance.BlockID]maintenance.Block),
		cleaning:     make(map[housekeeping.BlockID]housekeeping.Block),
	}
}

// Revision increases on every commit that changed state.
func (s *Store) Revision() uint64 {
	return s.revision.Load()
}

// Export copies the committed state.
func (s *Store) Export(ctx context.Context) (snapshot.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := snapshot.State{
		Reservations: make([]*reservation.Reservation, 0, len(s.resOrder)),
		Maintenance:  make([]maintenance.Block, 0, len(s.blockOrder)),
		Cleaning:     make([]housekeeping.Block, 0, len(s.cleaningOrder)),
	}
	for _, id := range s.resOrder {
		state.Reservations = append(state.Reservations, s.reservations[id].Clone())
	}
	for _, id := range s.blockOrder {
		state.Maintenance = append(state.Maintenance, s.blocks[id])
	}
	for _, id := range s.cleaningOrder {
		state.Cleaning = append(state.Cleaning, s.cleaning[id])
	}
	return state, nil
}

// Import replaces the committed state wholesale.
func (s *Store) Import(ctx context.Context, state snapshot.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reservations = make(map[reservation.ID]*reservation.Reservation, len(state.Reservations))
	s.resOrder = s.resOrder[:0]
	for _, r := range state.Reservations {
		if r == nil {
			continue
		}
		if _, dup := s.reservations[r.ID]; !dup {
			s.resOrder = append(s.resOrder, r.ID)
		}
		c := r.Clone()
		if c.Version == 0 {
			c.Version = 1
		}
		s.reservations[r.ID] = c
	}
	s.blocks = make(map[maintenance.BlockID]maintenance.Block, len(state.Maintenance))
	s.blockOrder = s.blockOrder[:0]
	for _, b := range state.Maintenance {
		if _, dup := s.blocks[b.ID]; !dup {
			s.blockOrder = append(s.blockOrder, b.ID)
		}
		s.blocks[b.ID] = b
	}
	s.cleaning = make(map[housekeeping.BlockID]housekeeping.Block, len(state.Cleaning))
	s.cleaningOrder = s.cleaningOrder[:0]
	for _, b := range state.Cleaning {
		if _, dup := s.cleaning[b.ID]; !dup {
			s.cleaningOrder = append(s.cleaningOrder, b.ID)
		}
		s.cleaning[b.ID] = b
	}
	s.revision.Add(1)
	return nil
}

// apply is called by a committing unit while it holds the write lock.
func (s *Store) apply(u *Unit) bool {
	changed := false
	for _, id := range u.resCreated {
		if _, ok := s.reservations[id]; !ok {
			s.resOrder = append(s.resOrder, id)
		}
	}
	for id, r := range u.resStaged {
		s.reservations[id] = r
		changed = true
	}
	if len(u.resDeleted) > 0 {
		kept := s.resOrder[:0]
		for _, id := range s.resOrder {
			if u.resDeleted[id] {
				delete(s.reservations, id)
				changed = true
				continue
			}
			kept = append(kept, id)
		}
		s.resOrder = kept
	}
	for _, id := range u.blockOrder {
		if _, ok := s.blocks[id]; !ok {
			s.blockOrder = append(s.blockOrder, id)
		}
		s.blocks[id] = u.blocks[id]
		changed = true
	}
	for _, id := range u.cleaningOrder {
		if _, ok := s.cleaning[id]; !ok {
			s.cleaningOrder = append(s.cleaningOrder, id)
		}
		s.cleaning[id] = u.cleaning[id]
		changed = true
	}
	if changed {
		s.revision.Add(1)
	}
	return changed
}

var _ snapshot.Source = (*Store)(nil)
