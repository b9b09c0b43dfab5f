package reservation

import (
	"time"

	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/shared/daterange"
)

type ReservationBooked struct {
	ReservationID ID                  `json:"reservation_id"`
	Unit          inventory.UnitID    `json:"unit"`
	Range         daterange.DateRange `json:"range"`
	At            time.Time           `json:"occurred_at"`
}

func (e ReservationBooked) EventName() string     { return "reservation.booked" }
func (e ReservationBooked) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationBooked) OccurredAt() time.Time { return e.At }

type ReservationRelocated struct {
	ReservationID ID                  `json:"reservation_id"`
	Segment       int                 `json:"segment"`
	Unit          inventory.UnitID    `json:"unit"`
	DeltaDays     int                 `json:"delta_days"`
	Range         daterange.DateRange `json:"range"`
	At            time.Time           `json:"occurred_at"`
}

func (e ReservationRelocated) EventName() string     { return "reservation.relocated" }
func (e ReservationRelocated) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationRelocated) OccurredAt() time.Time { return e.At }

type ReservationSplit struct {
	ReservationID ID               `json:"reservation_id"`
	SplitDate     time.Time        `json:"split_date"`
	FromUnit      inventory.UnitID `json:"from_unit"`
	ToUnit        inventory.UnitID `json:"to_unit"`
	At            time.Time        `json:"occurred_at"`
}

func (e ReservationSplit) EventName() string     { return "reservation.split" }
func (e ReservationSplit) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationSplit) OccurredAt() time.Time { return e.At }

type SegmentsMerged struct {
	ReservationID ID                  `json:"reservation_id"`
	Unit          inventory.UnitID    `json:"unit"`
	Range         daterange.DateRange `json:"range"`
	At            time.Time           `json:"occurred_at"`
}

func (e SegmentsMerged) EventName() string     { return "reservation.segments_merged" }
func (e SegmentsMerged) AggregateID() string   { return string(e.ReservationID) }
func (e SegmentsMerged) OccurredAt() time.Time { return e.At }

type ReservationsMerged struct {
	SurvivorID ID                  `json:"survivor_id"`
	AbsorbedID ID                  `json:"absorbed_id"`
	Range      daterange.DateRange `json:"range"`
	At         time.Time           `json:"occurred_at"`
}

func (e ReservationsMerged) EventName() string     { return "reservation.merged" }
func (e ReservationsMerged) AggregateID() string   { return string(e.SurvivorID) }
func (e ReservationsMerged) OccurredAt() time.Time { return e.At }

type StatusChanged struct {
	ReservationID ID        `json:"reservation_id"`
	From          Status    `json:"from"`
	To            Status    `json:"to"`
	Reason        string    `json:"reason"`
	At            time.Time `json:"occurred_at"`
}

func (e StatusChanged) EventName() string     { return "reservation.status_changed" }
func (e StatusChanged) AggregateID() string   { return string(e.ReservationID) }
func (e StatusChanged) OccurredAt() time.Time { return e.At }

type CleaningRescheduled struct {
	ReservationID ID        `json:"reservation_id"`
	Services      int       `json:"services"`
	At            time.Time `json:"occurred_at"`
}

func (e CleaningRescheduled) EventName() string     { return "reservation.cleaning_rescheduled" }
func (e CleaningRescheduled) AggregateID() string   { return string(e.ReservationID) }
func (e CleaningRescheduled) OccurredAt() time.Time { return e.At }
