package scheduling

import (
	"fmt"
	"strconv"
	"time"

	"staydesk/internal/domain/reservation"
)

// MergeSegments joins two contiguous segments of one reservation into a single segment
// on the earlier segment's unit. Asking to merge segments that do not touch is a caller
// bug and is reported as an InvariantViolation.
func (s *Schedule) MergeSegments(id reservation.ID, first, second int, confirmed bool) (*reservation.Reservation, error) {
	if !confirmed {
		return nil, invalid("confirmed", "merging segments requires confirmation")
	}
	r, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if !r.Occupies() {
		return nil, invalid("status", fmt.Sprintf("cannot merge segments of a %s reservation", r.Status))
	}
	for _, idx := range []int{first, second} {
		if idx < 0 || idx >= len(r.Segments) {
			return nil, notFound("segment", strconv.Itoa(idx))
		}
	}
	if first == second {
		return nil, &InvariantViolation{Op: "merge_segments", Detail: "a segment cannot be merged with itself"}
	}
	a, b := first, second
	if r.Segments[b].Start.Before(r.Segments[a].Start) {
		a, b = b, a
	}
	earlier, later := r.Segments[a], r.Segments[b]
	if !earlier.ContiguousWith(later) {
		return nil, &InvariantViolation{
			Op:     "merge_segments",
			Detail: fmt.Sprintf("segment %d ends %s but segment %d starts %s", a, earlier.End.Format(time.DateOnly), b, later.Start.Format(time.DateOnly)),
		}
	}

	merged := reservation.Segment{Unit: earlier.Unit, Start: earlier.Start, End: later.End}
	proposed := make([]reservation.Segment, 0, len(r.Segments)-1)
	for i, seg := range r.Segments {
		switch i {
		case a:
			proposed = append(proposed, merged)
		case b:
		default:
			proposed = append(proposed, seg)
		}
	}
	if res := s.DetectConflict(proposed, r.ID); !res.Clear {
		return nil, &ConflictError{ReservationID: string(r.ID), Result: res}
	}

	now := s.now()
	r.ApplySegments(proposed, "segments merged", fmt.Sprintf("%s %s..%s", merged.Unit, merged.Start.Format(time.DateOnly), merged.End.Format(time.DateOnly)), now)
	r.Record(reservation.SegmentsMerged{ReservationID: r.ID, Unit: merged.Unit, Range: merged.Range(), At: r.UpdatedAt})
	s.reindex()
	return r, nil
}

// MergeOutcome reports both sides of a reservation merge.
type MergeOutcome struct {
	Survivor *reservation.Reservation
	Absorbed *reservation.Reservation
}

// MergeReservations folds absorbed into survivor: segments are unioned, billing and
// history concatenated. The absorbed reservation is kept with status relocated and
// MergedInto pointing at the survivor.
func (s *Schedule) MergeReservations(survivorID, absorbedID reservation.ID, confirmed bool) (MergeOutcome, error) {
	if !confirmed {
		return MergeOutcome{}, invalid("confirmed", "merging reservations requires confirmation")
	}
	if survivorID == absorbedID {
		return MergeOutcome{}, invalid("reservation", "cannot merge a reservation into itself")
	}
	survivor, err := s.lookup(survivorID)
	if err != nil {
		return MergeOutcome{}, err
	}
	absorbed, err := s.lookup(absorbedID)
	if err != nil {
		return MergeOutcome{}, err
	}
	for _, r := range []*reservation.Reservation{survivor, absorbed} {
		if !r.Occupies() {
			return MergeOutcome{}, invalid("status", fmt.Sprintf("reservation %s is %s", r.ID, r.Status))
		}
	}
	if _, err := survivor.Total.Add(absorbed.Total); err != nil {
		return MergeOutcome{}, invalid("total", err.Error())
	}

	union := make([]reservation.Segment, 0, len(survivor.Segments)+len(absorbed.Segments))
	union = append(union, survivor.Segments...)
	union = append(union, absorbed.Segments...)
	reservation.SortSegments(union)
	if res := s.DetectConflict(union, survivor.ID, absorbed.ID); !res.Clear {
		return MergeOutcome{}, &ConflictError{ReservationID: string(survivor.ID), Result: res}
	}

	now := s.now()
	if err := survivor.Absorb(absorbed, now); err != nil {
		return MergeOutcome{}, &InvariantViolation{Op: "merge", Detail: err.Error()}
	}
	survivor.ApplySegments(union, "merged", fmt.Sprintf("absorbed %s", absorbed.ID), now)
	survivor.Record(reservation.ReservationsMerged{
		SurvivorID: survivor.ID,
		AbsorbedID: absorbed.ID,
		Range:      survivor.Range(),
		At:         survivor.UpdatedAt,
	})
	absorbed.MergedInto = survivor.ID
	absorbed.SetStatus(reservation.StatusRelocated, fmt.Sprintf("merged into %s", survivor.ID), now)
	s.reindex()
	return MergeOutcome{Survivor: survivor, Absorbed: absorbed}, nil
}
