package scheduling

import (
	"staydesk/internal/domain/housekeeping"
	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/maintenance"
	"staydesk/internal/domain/reservation"
	"staydesk/internal/domain/shared/daterange"
)

type OccupantKind string

const (
	KindStay        OccupantKind = "stay"
	KindMaintenance OccupantKind = "maintenance"
	KindCleaning    OccupantKind = "cleaning"
)

// Occupant is anything that holds a unit for an interval: Stay, MaintenanceHold or
// CleaningHold. The set is closed.
type Occupant interface {
	Kind() OccupantKind
	Unit() inventory.UnitID
	Interval() daterange.DateRange
	Ref() string
	occupant()
}

// Stay is one segment of an occupying reservation.
type Stay struct {
	ReservationID reservation.ID
	GuestName     string
	Index         int
	Segment       reservation.Segment
}

func (s Stay) Kind() OccupantKind            { return KindStay }
func (s Stay) Unit() inventory.UnitID        { return s.Segment.Unit }
func (s Stay) Interval() daterange.DateRange { return s.Segment.Range() }
func (s Stay) Ref() string                   { return string(s.ReservationID) }
func (Stay) occupant()                       {}

// MaintenanceHold wraps a blocking maintenance ticket; its interval ends the day after
// the ticket's last day.
type MaintenanceHold struct {
	Block maintenance.Block
}

func (m MaintenanceHold) Kind() OccupantKind            { return KindMaintenance }
func (m MaintenanceHold) Unit() inventory.UnitID        { return m.Block.Unit }
func (m MaintenanceHold) Interval() daterange.DateRange { return m.Block.Range() }
func (m MaintenanceHold) Ref() string                   { return string(m.Block.ID) }
func (MaintenanceHold) occupant()                       {}

type CleaningHold struct {
	Block housekeeping.Block
}

func (c CleaningHold) Kind() OccupantKind            { return KindCleaning }
func (c CleaningHold) Unit() inventory.UnitID        { return c.Block.Unit }
func (c CleaningHold) Interval() daterange.DateRange { return c.Block.Range.Normalized() }
func (c CleaningHold) Ref() string                   { return string(c.Block.ID) }
func (CleaningHold) occupant()                       {}

var (
	_ Occupant = Stay{}
	_ Occupant = MaintenanceHold{}
	_ Occupant = CleaningHold{}
)
