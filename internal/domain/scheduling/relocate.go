package scheduling

import (
	"fmt"
	"strconv"
	"time"

	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/reservation"
	"staydesk/internal/domain/shared/daterange"
)

// RelocateRequest describes a drag-and-drop gesture. Segment selects one segment of a
// multi-segment reservation by its position in chronological order; it may be nil for
// single-segment reservations. AnchorDate is the cell the gesture started on and
// defaults to the moved segment's start.
type RelocateRequest struct {
	ReservationID reservation.ID
	Segment       *int
	TargetUnit    inventory.UnitID
	TargetDate    time.Time
	AnchorDate    time.Time
}

// Ghost is the non-committing outcome of a relocation: where the dragged block would
// land and whether the drop would be accepted.
type Ghost struct {
	ReservationID reservation.ID
	Segment       int
	Whole         bool
	DeltaDays     int
	Moved         reservation.Segment
	Segments      []reservation.Segment
	Bounds        daterange.DateRange
	Valid         bool
	Conflict      ConflictResult
}

type relocationPlan struct {
	res      *reservation.Reservation
	index    int
	whole    bool
	delta    int
	proposed []reservation.Segment
	verdict  ConflictResult
}

// planRelocation is shared by the preview and the commit path.
func (s *Schedule) planRelocation(req RelocateRequest) (relocationPlan, error) {
	r, err := s.lookup(req.ReservationID)
	if err != nil {
		return relocationPlan{}, err
	}
	if !r.Occupies() {
		return relocationPlan{}, invalid("status", fmt.Sprintf("cannot relocate a %s reservation", r.Status))
	}
	if err := s.requireUnit(req.TargetUnit); err != nil {
		return relocationPlan{}, err
	}
	if req.TargetDate.IsZero() {
		return relocationPlan{}, invalid("target_date", "target date required")
	}
	if len(r.Segments) == 0 {
		return relocationPlan{}, &InvariantViolation{Op: "relocate", Detail: "reservation has no segments"}
	}

	whole := len(r.Segments) == 1
	index := 0
	if req.Segment != nil {
		index = *req.Segment
		if index < 0 || index >= len(r.Segments) {
			return relocationPlan{}, notFound("segment", strconv.Itoa(index))
		}
	} else if !whole {
		return relocationPlan{}, invalid("segment", "segment required for a multi-segment reservation")
	}

	moved := r.Segments[index]
	anchor := req.AnchorDate
	if anchor.IsZero() {
		anchor = moved.Start
	}
	delta := daterange.DaysBetween(daterange.Noon(anchor), daterange.Noon(req.TargetDate))

	var proposed []reservation.Segment
	if whole {
		start := daterange.AddDays(daterange.Noon(moved.Start), delta)
		nights := daterange.DaysBetween(moved.Start, moved.End)
		proposed = []reservation.Segment{{Unit: req.TargetUnit, Start: start, End: daterange.AddDays(start, nights)}}
	} else {
		proposed = reservation.CloneSegments(r.Segments)
		proposed[index] = moved.Shift(req.TargetUnit, delta)
	}
	for _, seg := range proposed {
		if err := seg.Validate(); err != nil {
			return relocationPlan{}, invalid("segment", err.Error())
		}
	}

	return relocationPlan{
		res:      r,
		index:    index,
		whole:    whole,
		delta:    delta,
		proposed: proposed,
		verdict:  s.DetectConflict(proposed, r.ID),
	}, nil
}

// PreviewRelocation computes the relocation without applying it.
func (s *Schedule) PreviewRelocation(req RelocateRequest) (Ghost, error) {
	plan, err := s.planRelocation(req)
	if err != nil {
		return Ghost{}, err
	}
	sorted := reservation.CloneSegments(plan.proposed)
	reservation.SortSegments(sorted)
	in, out := reservation.Bounds(sorted)
	return Ghost{
		ReservationID: plan.res.ID,
		Segment:       plan.index,
		Whole:         plan.whole,
		DeltaDays:     plan.delta,
		Moved:         plan.proposed[plan.index],
		Segments:      sorted,
		Bounds:        daterange.DateRange{CheckIn: in, CheckOut: out},
		Valid:         plan.verdict.Clear,
		Conflict:      plan.verdict,
	}, nil
}

// Relocate moves a whole reservation or one of its segments. A rejected move leaves the
// reservation untouched.
func (s *Schedule) Relocate(req RelocateRequest) (*reservation.Reservation, error) {
	plan, err := s.planRelocation(req)
	if err != nil {
		return nil, err
	}
	if !plan.verdict.Clear {
		return nil, &ConflictError{ReservationID: string(plan.res.ID), Result: plan.verdict}
	}
	r := plan.res
	moved := plan.proposed[plan.index]
	if plan.delta == 0 && r.Segments[plan.index].Equal(moved) {
		return r, nil
	}
	now := s.now()
	detail := fmt.Sprintf("segment %d to %s, %+d days", plan.index, moved.Unit, plan.delta)
	if plan.whole {
		detail = fmt.Sprintf("to %s, %+d days", moved.Unit, plan.delta)
	}
	r.ApplySegments(plan.proposed, "relocated", detail, now)
	r.Record(reservation.ReservationRelocated{
		ReservationID: r.ID,
		Segment:       plan.index,
		Unit:          moved.Unit,
		DeltaDays:     plan.delta,
		Range:         r.Range(),
		At:            r.UpdatedAt,
	})
	s.reindex()
	return r, nil
}
