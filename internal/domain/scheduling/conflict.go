package scheduling

import (
	"fmt"
	"time"

	"staydesk/internal/domain/reservation"
)

type ConflictSource string

const (
	SourceNone        ConflictSource = ""
	SourceSelf        ConflictSource = "self"
	SourceReservation ConflictSource = "reservation"
	SourceMaintenance ConflictSource = "maintenance"
	SourceCleaning    ConflictSource = "cleaning"
)

// ConflictResult is the detector verdict. When Clear is false, Candidate is the proposed
// segment that failed and Offending is what it collided with.
type ConflictResult struct {
	Clear     bool
	Source    ConflictSource
	Reason    string
	Candidate reservation.Segment
	Offending Occupant
}

func cleared() ConflictResult { return ConflictResult{Clear: true} }

// DetectConflict checks a proposed segment set against itself and against every other
// occupant of the schedule. Reservations listed in exclude are ignored, and the first of
// them is taken as the owner of the candidates. Checks run in order self, other
// reservations, maintenance, cleaning blocks, and stop at the first hit.
func (s *Schedule) DetectConflict(candidates []reservation.Segment, exclude ...reservation.ID) ConflictResult {
	var owner reservation.ID
	if len(exclude) > 0 {
		owner = exclude[0]
	}
	if res := selfOverlap(candidates, owner); !res.Clear {
		return res
	}
	skip := make(map[reservation.ID]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	for _, kind := range []OccupantKind{KindStay, KindMaintenance, KindCleaning} {
		for _, c := range candidates {
			cr := c.Range()
			for _, occ := range s.index[c.Unit] {
				if occ.Kind() != kind {
					continue
				}
				if stay, ok := occ.(Stay); ok {
					if _, excluded := skip[stay.ReservationID]; excluded {
						continue
					}
				}
				if !cr.Overlaps(occ.Interval()) {
					continue
				}
				return ConflictResult{
					Source:    sourceFor(kind),
					Reason:    describe(occ),
					Candidate: c,
					Offending: occ,
				}
			}
		}
	}
	return cleared()
}

func selfOverlap(candidates []reservation.Segment, owner reservation.ID) ConflictResult {
	if len(candidates) < 2 {
		return cleared()
	}
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if !candidates[i].Overlaps(candidates[j]) {
				continue
			}
			return ConflictResult{
				Source:    SourceSelf,
				Reason:    fmt.Sprintf("segments overlap each other on %s", candidates[i].Unit),
				Candidate: candidates[i],
				Offending: Stay{ReservationID: owner, Index: j, Segment: candidates[j]},
			}
		}
	}
	return cleared()
}

func sourceFor(kind OccupantKind) ConflictSource {
	switch kind {
	case KindStay:
		return SourceReservation
	case KindMaintenance:
		return SourceMaintenance
	default:
		return SourceCleaning
	}
}

func describe(occ Occupant) string {
	iv := occ.Interval()
	span := iv.CheckIn.Format(time.DateOnly) + ".." + iv.CheckOut.Format(time.DateOnly)
	switch o := occ.(type) {
	case Stay:
		return fmt.Sprintf("unit held by reservation %s (%s) %s", o.ReservationID, o.GuestName, span)
	case MaintenanceHold:
		return fmt.Sprintf("unit blocked by maintenance %s %s", o.Block.ID, span)
	case CleaningHold:
		return fmt.Sprintf("unit blocked by cleaning %s %s", o.Block.ID, span)
	}
	return "unit occupied " + span
}
