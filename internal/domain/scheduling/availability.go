package scheduling

import (
	"time"

	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/shared/daterange"
)

// MaxAvailabilityDays caps a single AvailabilityRange request.
const MaxAvailabilityDays = 366

// Stats counts a unit set on one calendar day. Available + Occupied == Total.
type Stats struct {
	Date          time.Time
	Total         int
	Occupied      int
	Available     int
	OccupiedUnits []inventory.UnitID
}

// OccupantOn returns what holds unit on the calendar day of date, preferring stays over
// maintenance over cleaning.
func (s *Schedule) OccupantOn(unit inventory.UnitID, date time.Time) (Occupant, bool) {
	for _, occ := range s.index[unit] {
		if occ.Interval().ContainsDate(date) {
			return occ, true
		}
	}
	return nil, false
}

// Availability counts occupied and free units on date. An empty unit set means every
// unit in the inventory.
func (s *Schedule) Availability(units []inventory.UnitID, date time.Time) (Stats, error) {
	if date.IsZero() {
		return Stats{}, invalid("date", "date required")
	}
	set, err := s.unitSet(units)
	if err != nil {
		return Stats{}, err
	}
	return s.statsOn(set, daterange.Noon(date)), nil
}

// AvailabilityRange repeats Availability for every day from from to to, both inclusive.
func (s *Schedule) AvailabilityRange(units []inventory.UnitID, from, to time.Time) ([]Stats, error) {
	if from.IsZero() || to.IsZero() {
		return nil, invalid("range", "from and to required")
	}
	from, to = daterange.Noon(from), daterange.Noon(to)
	days := daterange.DaysBetween(from, to) + 1
	if days < 1 {
		return nil, invalid("range", "to must not be before from")
	}
	if days > MaxAvailabilityDays {
		return nil, invalid("range", "range too long")
	}
	set, err := s.unitSet(units)
	if err != nil {
		return nil, err
	}
	out := make([]Stats, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, s.statsOn(set, daterange.AddDays(from, i)))
	}
	return out, nil
}

func (s *Schedule) statsOn(units []inventory.UnitID, day time.Time) Stats {
	st := Stats{Date: day, Total: len(units)}
	for _, u := range units {
		if _, busy := s.OccupantOn(u, day); busy {
			st.Occupied++
			st.OccupiedUnits = append(st.OccupiedUnits, u)
		}
	}
	st.Available = st.Total - st.Occupied
	return st
}

func (s *Schedule) unitSet(units []inventory.UnitID) ([]inventory.UnitID, error) {
	if len(units) == 0 {
		return append([]inventory.UnitID(nil), s.unitOrder...), nil
	}
	seen := make(map[inventory.UnitID]struct{}, len(units))
	out := make([]inventory.UnitID, 0, len(units))
	for _, u := range units {
		if _, dup := seen[u]; dup {
			continue
		}
		if !s.HasUnit(u) {
			return nil, notFound("unit", string(u))
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out, nil
}
