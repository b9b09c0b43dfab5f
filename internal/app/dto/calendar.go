package dto

import (
	"time"

	"staydesk/internal/domain/housekeeping"
	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/maintenance"
	"staydesk/internal/domain/scheduling"
)

type Unit struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Complex string `json:"complex"`
}

type UnitCollection struct {
	Items []Unit `json:"items"`
}

type Occupant struct {
	Kind  string    `json:"kind"`
	Ref   string    `json:"ref"`
	Unit  string    `json:"unit"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type Conflict struct {
	Clear     bool      `json:"clear"`
	Source    string    `json:"source,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Candidate *Segment  `json:"candidate,omitempty"`
	Offending *Occupant `json:"offending,omitempty"`
}

type Ghost struct {
	ReservationID string    `json:"reservation_id"`
	Segment       int       `json:"segment"`
	Whole         bool      `json:"whole"`
	DeltaDays     int       `json:"delta_days"`
	Moved         Segment   `json:"moved"`
	Segments      []Segment `json:"segments"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
	Valid         bool      `json:"valid"`
	Conflict      Conflict  `json:"conflict"`
}

type Neighbor struct {
	Found         bool   `json:"found"`
	Kind          string `json:"kind,omitempty"`
	ReservationID string `json:"reservation_id,omitempty"`
	Segment       int    `json:"segment"`
	GapDays       int    `json:"gap_days"`
}

type DayStats struct {
	Date          time.Time `json:"date"`
	Total         int       `json:"total"`
	Occupied      int       `json:"occupied"`
	Available     int       `json:"available"`
	OccupiedUnits []string  `json:"occupied_units"`
}

type Availability struct {
	Days []DayStats `json:"days"`
}

type CleaningSchedule struct {
	CheckIn  time.Time      `json:"check_in"`
	CheckOut time.Time      `json:"check_out"`
	Nights   int            `json:"nights"`
	Services []CleaningTask `json:"services"`
}

type MaintenanceBlock struct {
	ID                 string    `json:"id"`
	Unit               string    `json:"unit"`
	Start              time.Time `json:"start"`
	End                time.Time `json:"end"`
	BlocksAvailability bool      `json:"blocks_availability"`
	State              string    `json:"state"`
	Title              string    `json:"title,omitempty"`
}

type CleaningBlock struct {
	ID    string    `json:"id"`
	Unit  string    `json:"unit"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Note  string    `json:"note,omitempty"`
}

func MapUnits(units []inventory.Unit) UnitCollection {
	items := make([]Unit, 0, len(units))
	for _, u := range units {
		items = append(items, Unit{ID: string(u.ID), Name: u.Name, Type: u.Type, Complex: string(u.Complex)})
	}
	return UnitCollection{Items: items}
}

func MapOccupant(o scheduling.Occupant) *Occupant {
	if o == nil {
		return nil
	}
	iv := o.Interval()
	return &Occupant{Kind: string(o.Kind()), Ref: o.Ref(), Unit: string(o.Unit()), Start: iv.CheckIn, End: iv.CheckOut}
}

func MapConflict(res scheduling.ConflictResult) Conflict {
	if res.Clear {
		return Conflict{Clear: true}
	}
	c := res.Candidate
	return Conflict{
		Source:    string(res.Source),
		Reason:    res.Reason,
		Candidate: &Segment{Unit: string(c.Unit), Start: c.Start, End: c.End},
		Offending: MapOccupant(res.Offending),
	}
}

func MapGhost(g scheduling.Ghost) Ghost {
	moved := g.Moved
	return Ghost{
		ReservationID: string(g.ReservationID),
		Segment:       g.Segment,
		Whole:         g.Whole,
		DeltaDays:     g.DeltaDays,
		Moved:         Segment{Index: g.Segment, Unit: string(moved.Unit), Start: moved.Start, End: moved.End},
		Segments:      MapSegments(g.Segments),
		CheckIn:       g.Bounds.CheckIn,
		CheckOut:      g.Bounds.CheckOut,
		Valid:         g.Valid,
		Conflict:      MapConflict(g.Conflict),
	}
}

func MapNeighbor(n scheduling.Neighbor, found bool) Neighbor {
	if !found {
		return Neighbor{}
	}
	return Neighbor{Found: true, Kind: string(n.Kind), ReservationID: string(n.ReservationID), Segment: n.Segment, GapDays: n.GapDays}
}

func MapStats(days []scheduling.Stats) Availability {
	out := Availability{Days: make([]DayStats, 0, len(days))}
	for _, d := range days {
		units := make([]string, 0, len(d.OccupiedUnits))
		for _, u := range d.OccupiedUnits {
			units = append(units, string(u))
		}
		out.Days = append(out.Days, DayStats{Date: d.Date, Total: d.Total, Occupied: d.Occupied, Available: d.Available, OccupiedUnits: units})
	}
	return out
}

func MapServices(checkIn, checkOut time.Time, services []housekeeping.Service) CleaningSchedule {
	out := CleaningSchedule{CheckIn: checkIn, CheckOut: checkOut, Services: make([]CleaningTask, 0, len(services))}
	for _, s := range services {
		out.Services = append(out.Services, CleaningTask{Date: s.Date, Kind: string(s.Kind)})
	}
	return out
}

func MapMaintenanceBlock(b maintenance.Block) MaintenanceBlock {
	return MaintenanceBlock{
		ID:                 string(b.ID),
		Unit:               string(b.Unit),
		Start:              b.Start,
		End:                b.End,
		BlocksAvailability: b.BlocksAvailability,
		State:              string(b.State),
		Title:              b.Title,
	}
}

func MapCleaningBlock(b housekeeping.Block) CleaningBlock {
	return CleaningBlock{ID: string(b.ID), Unit: string(b.Unit), Start: b.Range.CheckIn, End: b.Range.CheckOut, Note: b.Note}
}

type CalendarFeed struct {
	UnitID      string
	ContentType string
	Body        []byte
}
