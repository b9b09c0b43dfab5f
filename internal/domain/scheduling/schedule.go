// Package scheduling assigns guest stays to units and keeps the no-overlap invariant
// under booking, relocation, split and merge.
package scheduling

import (
	"sort"
	"strings"
	"time"

	"staydesk/internal/domain/housekeeping"
	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/maintenance"
	"staydesk/internal/domain/reservation"
	"staydesk/internal/domain/shared/money"
)

// Snapshot is the state a Schedule is built from.
type Snapshot struct {
	Units        []inventory.Unit
	Reservations []*reservation.Reservation
	Maintenance  []maintenance.Block
	Cleaning     []housekeeping.Block
}

// Schedule is a synchronous in-memory view of every occupant, indexed by unit. It
// mutates the reservation pointers it was given; persisting them is the caller's job.
type Schedule struct {
	units        map[inventory.UnitID]inventory.Unit
	unitOrder    []inventory.UnitID
	reservations []*reservation.Reservation
	byID         map[reservation.ID]*reservation.Reservation
	maintenance  []maintenance.Block
	cleaning     []housekeeping.Block
	index        map[inventory.UnitID][]Occupant
	now          func() time.Time
}

type Option func(*Schedule)

// WithClock overrides the time source used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Schedule) {
		if now != nil {
			s.now = now
		}
	}
}

func New(snap Snapshot, opts ...Option) *Schedule {
	s := &Schedule{
		units:       make(map[inventory.UnitID]inventory.Unit, len(snap.Units)),
		byID:        make(map[reservation.ID]*reservation.Reservation, len(snap.Reservations)),
		maintenance: append([]maintenance.Block(nil), snap.Maintenance...),
		cleaning:    append([]housekeeping.Block(nil), snap.Cleaning...),
		now:         time.Now,
	}
	for _, u := range snap.Units {
		if _, ok := s.units[u.ID]; ok {
			continue
		}
		s.units[u.ID] = u
		s.unitOrder = append(s.unitOrder, u.ID)
	}
	for _, r := range snap.Reservations {
		if r == nil {
			continue
		}
		s.reservations = append(s.reservations, r)
		s.byID[r.ID] = r
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reindex()
	return s
}

// Reservation looks up a reservation by id, including inactive ones.
func (s *Schedule) Reservation(id reservation.ID) (*reservation.Reservation, bool) {
	r, ok := s.byID[id]
	return r, ok
}

func (s *Schedule) Reservations() []*reservation.Reservation {
	out := make([]*reservation.Reservation, len(s.reservations))
	copy(out, s.reservations)
	return out
}

func (s *Schedule) Units() []inventory.Unit {
	out := make([]inventory.Unit, 0, len(s.unitOrder))
	for _, id := range s.unitOrder {
		out = append(out, s.units[id])
	}
	return out
}

func (s *Schedule) HasUnit(id inventory.UnitID) bool {
	_, ok := s.units[id]
	return ok
}

// Occupants lists what holds unit, ordered stays first, then maintenance, then cleaning,
// each by start date.
func (s *Schedule) Occupants(unit inventory.UnitID) []Occupant {
	out := make([]Occupant, len(s.index[unit]))
	copy(out, s.index[unit])
	return out
}

// BookingRequest creates a single-segment reservation.
type BookingRequest struct {
	ID           reservation.ID
	GuestName    string
	Contact      reservation.Contact
	Unit         inventory.UnitID
	CheckIn      time.Time
	CheckOut     time.Time
	Status       reservation.Status
	Total        money.Money
	Observations string
}

// Book validates the request, clears it with the conflict detector and adds the new
// reservation to the schedule.
func (s *Schedule) Book(req BookingRequest) (*reservation.Reservation, error) {
	if req.ID == "" {
		return nil, invalid("id", "reservation id required")
	}
	if _, exists := s.byID[req.ID]; exists {
		return nil, invalid("id", "reservation already exists")
	}
	if req.Unit == "" {
		return nil, invalid("unit", "unit required")
	}
	if req.CheckIn.IsZero() || req.CheckOut.IsZero() {
		return nil, invalid("dates", "check-in and check-out required")
	}
	if !s.HasUnit(req.Unit) {
		return nil, notFound("unit", string(req.Unit))
	}
	r, err := reservation.New(reservation.CreateParams{
		ID:           req.ID,
		GuestName:    req.GuestName,
		Contact:      req.Contact,
		Unit:         req.Unit,
		CheckIn:      req.CheckIn,
		CheckOut:     req.CheckOut,
		Status:       req.Status,
		Total:        req.Total,
		Observations: req.Observations,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, translateDomainError(err)
	}
	if r.Occupies() {
		if res := s.DetectConflict(r.Segments, r.ID); !res.Clear {
			return nil, &ConflictError{ReservationID: string(r.ID), Result: res}
		}
	}
	s.reservations = append(s.reservations, r)
	s.byID[r.ID] = r
	s.reindex()
	return r, nil
}

// ChangeStatus moves a reservation through its lifecycle. Bringing an inactive
// reservation back into the occupying set goes through the conflict detector.
func (s *Schedule) ChangeStatus(id reservation.ID, status reservation.Status, reason string) (*reservation.Reservation, error) {
	r, ok := s.byID[id]
	if !ok {
		return nil, notFound("reservation", string(id))
	}
	if _, err := reservation.ParseStatus(string(status)); err != nil {
		return nil, invalid("status", err.Error())
	}
	if r.Status == status {
		return r, nil
	}
	if !r.Occupies() && status.Occupies() {
		if res := s.DetectConflict(r.Segments, r.ID); !res.Clear {
			return nil, &ConflictError{ReservationID: string(r.ID), Result: res}
		}
	}
	r.SetStatus(status, reason, s.now())
	s.reindex()
	return r, nil
}

func (s *Schedule) lookup(id reservation.ID) (*reservation.Reservation, error) {
	r, ok := s.byID[id]
	if !ok {
		return nil, notFound("reservation", string(id))
	}
	return r, nil
}

func (s *Schedule) requireUnit(id inventory.UnitID) error {
	if id == "" {
		return invalid("unit", "unit required")
	}
	if !s.HasUnit(id) {
		return notFound("unit", string(id))
	}
	return nil
}

func (s *Schedule) reindex() {
	index := make(map[inventory.UnitID][]Occupant, len(s.units))
	for _, r := range s.reservations {
		if !r.Occupies() {
			continue
		}
		for i, seg := range r.Segments {
			index[seg.Unit] = append(index[seg.Unit], Stay{ReservationID: r.ID, GuestName: r.GuestName, Index: i, Segment: seg})
		}
	}
	for _, b := range s.maintenance {
		if !b.Blocking() {
			continue
		}
		index[b.Unit] = append(index[b.Unit], MaintenanceHold{Block: b})
	}
	for _, b := range s.cleaning {
		index[b.Unit] = append(index[b.Unit], CleaningHold{Block: b})
	}
	for unit, occ := range index {
		sort.SliceStable(occ, func(i, j int) bool {
			ki, kj := kindRank(occ[i].Kind()), kindRank(occ[j].Kind())
			if ki != kj {
				return ki < kj
			}
			return occ[i].Interval().CheckIn.Before(occ[j].Interval().CheckIn)
		})
		index[unit] = occ
	}
	s.index = index
}

func kindRank(k OccupantKind) int {
	switch k {
	case KindStay:
		return 0
	case KindMaintenance:
		return 1
	default:
		return 2
	}
}

func translateDomainError(err error) error {
	switch err {
	case reservation.ErrInvalidSegment:
		return invalid("dates", "check-out must be after check-in")
	case reservation.ErrGuestRequired:
		return invalid("guest_name", "guest name required")
	case reservation.ErrInvalidStatus:
		return invalid("status", "unknown status")
	}
	return invalid("reservation", strings.TrimPrefix(err.Error(), "reservation: "))
}
