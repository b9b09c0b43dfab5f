package reservation

import (
	"errors"
	"sort"
	"time"

	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/shared/daterange"
)

var ErrInvalidSegment = errors.New("reservation: segment needs a unit and start before end")

// Segment is the atomic allocation: one unit for a half-open run of nights.
type Segment struct {
	Unit  inventory.UnitID
	Start time.Time
	End   time.Time
}

// NewSegment pins both ends to noon and checks start < end.
func NewSegment(unit inventory.UnitID, start, end time.Time) (Segment, error) {
	s := Segment{Unit: unit, Start: daterange.Noon(start), End: daterange.Noon(end)}
	if err := s.Validate(); err != nil {
		return Segment{}, err
	}
	return s, nil
}

func (s Segment) Validate() error {
	if s.Unit == "" || s.Start.IsZero() || s.End.IsZero() || !s.Start.Before(s.End) {
		return ErrInvalidSegment
	}
	return nil
}

func (s Segment) Range() daterange.DateRange {
	return daterange.DateRange{CheckIn: daterange.Noon(s.Start), CheckOut: daterange.Noon(s.End)}
}

// Nights is the segment length in whole days.
func (s Segment) Nights() int {
	return daterange.DaysBetween(s.Start, s.End)
}

// Overlaps applies the strict interval test when both segments use the same unit.
func (s Segment) Overlaps(other Segment) bool {
	return s.Unit == other.Unit && s.Range().Overlaps(other.Range())
}

// ContiguousWith reports s.End == next.Start exactly.
func (s Segment) ContiguousWith(next Segment) bool {
	return s.End.Equal(next.Start)
}

func (s Segment) Equal(other Segment) bool {
	return s.Unit == other.Unit && s.Start.Equal(other.Start) && s.End.Equal(other.End)
}

// Shift moves the segment n days and onto unit.
func (s Segment) Shift(unit inventory.UnitID, n int) Segment {
	return Segment{Unit: unit, Start: daterange.AddDays(s.Start, n), End: daterange.AddDays(s.End, n)}
}

// SortSegments orders segments chronologically, ties broken by unit.
func SortSegments(segs []Segment) {
	sort.SliceStable(segs, func(i, j int) bool {
		if !segs[i].Start.Equal(segs[j].Start) {
			return segs[i].Start.Before(segs[j].Start)
		}
		return segs[i].Unit < segs[j].Unit
	})
}

// Bounds returns min(start) and max(end) across segs.
func Bounds(segs []Segment) (time.Time, time.Time) {
	var in, out time.Time
	for i, s := range segs {
		if i == 0 || s.Start.Before(in) {
			in = s.Start
		}
		if i == 0 || s.End.After(out) {
			out = s.End
		}
	}
	return in, out
}

// CloneSegments copies segs so proposals never alias an aggregate's slice.
func CloneSegments(segs []Segment) []Segment {
	out := make([]Segment, len(segs))
	copy(out, segs)
	return out
}
