package reservations

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"staydesk/internal/app/dto"
	"staydesk/internal/app/handlers/support"
	"staydesk/internal/app/queries"
	"staydesk/internal/app/uow"
	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/reservation"
	"staydesk/internal/domain/scheduling"
	"staydesk/internal/domain/shared/daterange"
)

const (
	listReservationsKey = "reservation.list"
	getReservationKey   = "reservation.get"
)

// ListReservationsQuery filters by unit, status and by overlap with [From, To). Zero
// values disable a filter. Inactive reservations are included unless ActiveOnly is set.
type ListReservationsQuery struct {
	UnitID     string
	Status     string
	From       time.Time
	To         time.Time
	ActiveOnly bool
}

func (q ListReservationsQuery) Key() string { return listReservationsKey }

type ListReservationsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListReservationsHandler) Handle(ctx context.Context, q ListReservationsQuery) (dto.ReservationCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	defer cleanup()

	all, err := unit.Reservations().List(ctx)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	var window *daterange.DateRange
	if !q.From.IsZero() || !q.To.IsZero() {
		if q.From.IsZero() || q.To.IsZero() {
			return dto.ReservationCollection{}, &scheduling.ValidationError{Field: "from", Reason: "from and to must be given together"}
		}
		dr, err := daterange.New(q.From, q.To)
		if err != nil {
			return dto.ReservationCollection{}, &scheduling.ValidationError{Field: "to", Reason: "to must be after from"}
		}
		window = &dr
	}
	status := reservation.Status(strings.TrimSpace(q.Status))

	out := make([]*reservation.Reservation, 0, len(all))
	for _, r := range all {
		if q.ActiveOnly && !r.Occupies() {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		if q.UnitID != "" && !occupiesUnit(r, inventory.UnitID(q.UnitID)) {
			continue
		}
		if window != nil && !r.Range().Overlaps(*window) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CheckIn.Equal(out[j].CheckIn) {
			return out[i].CheckIn.Before(out[j].CheckIn)
		}
		return out[i].ID < out[j].ID
	})
	return dto.MapReservations(out), nil
}

func occupiesUnit(r *reservation.Reservation, unit inventory.UnitID) bool {
	for _, u := range r.Units() {
		if u == unit {
			return true
		}
	}
	return false
}

type GetReservationQuery struct {
	ReservationID string `validate:"required"`
}

func (q GetReservationQuery) Key() string { return getReservationKey }

type GetReservationHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetReservationHandler) Handle(ctx context.Context, q GetReservationQuery) (dto.Reservation, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Reservation{}, err
	}
	defer cleanup()

	r, err := unit.Reservations().ByID(ctx, reservation.ID(q.ReservationID))
	if err != nil {
		if errors.Is(err, reservation.ErrNotFound) {
			return dto.Reservation{}, &scheduling.NotFoundError{Kind: "reservation", ID: q.ReservationID}
		}
		return dto.Reservation{}, err
	}
	return dto.MapReservation(r), nil
}

var _ queries.Handler[ListReservationsQuery, dto.ReservationCollection] = (*ListReservationsHandler)(nil)
var _ queries.Handler[GetReservationQuery, dto.Reservation] = (*GetReservationHandler)(nil)
