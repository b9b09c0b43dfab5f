package calendar

import (
	"context"
	"time"

	"staydesk/internal/app/dto"
	"staydesk/internal/app/handlers/support"
	"staydesk/internal/app/queries"
	"staydesk/internal/app/uow"
	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/scheduling"
)

const availabilityKey = "availability.stats"

// AvailabilityQuery counts occupied units for Date, or for every day in [From, To]
// inclusive. Units and Complex narrow the unit set; both empty means every unit.
type AvailabilityQuery struct {
	Units   []string
	Complex string
	Date    time.Time
	From    time.Time
	To      time.Time
}

func (q AvailabilityQuery) Key() string { return availabilityKey }

type AvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *AvailabilityHandler) Handle(ctx context.Context, q AvailabilityQuery) (dto.Availability, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Availability{}, err
	}
	defer cleanup()

	sched, err := support.LoadSchedule(ctx, unit, nil)
	if err != nil {
		return dto.Availability{}, err
	}
	ids := make([]inventory.UnitID, 0, len(q.Units))
	for _, u := range q.Units {
		ids = append(ids, inventory.UnitID(u))
	}
	if q.Complex != "" {
		inComplex := inventory.ByComplex(sched.Units(), inventory.ComplexID(q.Complex))
		if len(inComplex) == 0 {
			return dto.Availability{}, &scheduling.NotFoundError{Kind: "complex", ID: q.Complex}
		}
		ids = append(ids, inventory.IDs(inComplex)...)
	}

	switch {
	case !q.Date.IsZero():
		stats, err := sched.Availability(ids, q.Date)
		if err != nil {
			return dto.Availability{}, err
		}
		return dto.MapStats([]scheduling.Stats{stats}), nil
	case !q.From.IsZero() && !q.To.IsZero():
		days, err := sched.AvailabilityRange(ids, q.From, q.To)
		if err != nil {
			return dto.Availability{}, err
		}
		return dto.MapStats(days), nil
	default:
		return dto.Availability{}, &scheduling.ValidationError{Field: "date", Reason: "date or from and to required"}
	}
}

var _ queries.Handler[AvailabilityQuery, dto.Availability] = (*AvailabilityHandler)(nil)
