package scheduling

import (
	"sort"
	"strings"

	"staydesk/internal/domain/reservation"
	"staydesk/internal/domain/shared/daterange"
)

type Direction string

const (
	Previous Direction = "previous"
	Next     Direction = "next"
)

func ParseDirection(raw string) (Direction, bool) {
	switch Direction(strings.ToLower(strings.TrimSpace(raw))) {
	case Previous, "prev":
		return Previous, true
	case Next:
		return Next, true
	}
	return "", false
}

type NeighborKind string

const (
	// NeighborSegment is a contiguous same-unit segment of the same reservation.
	NeighborSegment NeighborKind = "segment"
	// NeighborReservation is another reservation that looks like the same guest.
	NeighborReservation NeighborKind = "reservation"
)

// Neighbor is what a "merge previous/next" action would target. GapDays is the distance
// in days between the two facing boundaries; zero means exactly contiguous.
type Neighbor struct {
	Kind          NeighborKind
	ReservationID reservation.ID
	Segment       int
	GapDays       int
}

// FindMergeNeighbor suggests a merge target for one segment. The reservation match is a
// heuristic: same unit, same guest name ignoring case, and boundaries at most one day
// apart. Two guests sharing a name will match, so callers must confirm before merging.
func (s *Schedule) FindMergeNeighbor(id reservation.ID, segment int, dir Direction) (Neighbor, bool) {
	r, ok := s.byID[id]
	if !ok || !r.Occupies() || segment < 0 || segment >= len(r.Segments) {
		return Neighbor{}, false
	}
	seg := r.Segments[segment]

	adj := segment - 1
	if dir == Next {
		adj = segment + 1
	}
	if adj >= 0 && adj < len(r.Segments) {
		other := r.Segments[adj]
		contiguous := other.ContiguousWith(seg)
		if dir == Next {
			contiguous = seg.ContiguousWith(other)
		}
		if other.Unit == seg.Unit && contiguous {
			return Neighbor{Kind: NeighborSegment, ReservationID: r.ID, Segment: adj}, true
		}
	}

	guest := strings.TrimSpace(r.GuestName)
	var found []Neighbor
	for _, other := range s.reservations {
		if other.ID == r.ID || !other.Occupies() || !strings.EqualFold(strings.TrimSpace(other.GuestName), guest) {
			continue
		}
		for i, cand := range other.Segments {
			if cand.Unit != seg.Unit {
				continue
			}
			var gap int
			if dir == Next {
				if !cand.Start.After(seg.Start) {
					continue
				}
				gap = daterange.DaysBetween(seg.End, cand.Start)
			} else {
				if !cand.Start.Before(seg.Start) {
					continue
				}
				gap = daterange.DaysBetween(cand.End, seg.Start)
			}
			if gap < -1 || gap > 1 {
				continue
			}
			found = append(found, Neighbor{Kind: NeighborReservation, ReservationID: other.ID, Segment: i, GapDays: gap})
		}
	}
	if len(found) == 0 {
		return Neighbor{}, false
	}
	sort.Slice(found, func(i, j int) bool {
		gi, gj := abs(found[i].GapDays), abs(found[j].GapDays)
		if gi != gj {
			return gi < gj
		}
		return found[i].ReservationID < found[j].ReservationID
	})
	return found[0], true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
