package scheduling

import (
	"fmt"
	"time"

	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/reservation"
	"staydesk/internal/domain/shared/daterange"
)

// Split cuts the segment that strictly contains splitDate in two and moves the second
// half onto newUnit. Outer bounds do not change; the cleaning schedule is regenerated.
func (s *Schedule) Split(id reservation.ID, splitDate time.Time, newUnit inventory.UnitID) (*reservation.Reservation, error) {
	r, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if !r.Occupies() {
		return nil, invalid("status", fmt.Sprintf("cannot split a %s reservation", r.Status))
	}
	if err := s.requireUnit(newUnit); err != nil {
		return nil, err
	}
	if splitDate.IsZero() {
		return nil, invalid("split_date", "split date required")
	}

	index := -1
	var at time.Time
	for i, seg := range r.Segments {
		candidate := daterange.NoonIn(splitDate, seg.Start.Location())
		if seg.Range().StrictlyContains(candidate) {
			index, at = i, candidate
			break
		}
	}
	if index < 0 {
		return nil, invalid("split_date", fmt.Sprintf("%s is not strictly inside any segment", splitDate.Format(time.DateOnly)))
	}

	orig := r.Segments[index]
	proposed := make([]reservation.Segment, 0, len(r.Segments)+1)
	proposed = append(proposed, r.Segments[:index]...)
	proposed = append(proposed,
		reservation.Segment{Unit: orig.Unit, Start: orig.Start, End: at},
		reservation.Segment{Unit: newUnit, Start: at, End: orig.End},
	)
	proposed = append(proposed, r.Segments[index+1:]...)

	if res := s.DetectConflict(proposed, r.ID); !res.Clear {
		return nil, &ConflictError{ReservationID: string(r.ID), Result: res}
	}

	now := s.now()
	r.ApplySegments(proposed, "split", fmt.Sprintf("%s from %s to %s", at.Format(time.DateOnly), orig.Unit, newUnit), now)
	r.Record(reservation.ReservationSplit{
		ReservationID: r.ID,
		SplitDate:     at,
		FromUnit:      orig.Unit,
		ToUnit:        newUnit,
		At:            r.UpdatedAt,
	})
	s.reindex()
	return r, nil
}
