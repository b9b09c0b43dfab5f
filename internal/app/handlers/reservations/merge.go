package reservations

import (
	"context"

	"staydesk/internal/app/commands"
	"staydesk/internal/app/dto"
	"staydesk/internal/app/handlers/support"
	"staydesk/internal/app/outbox"
	"staydesk/internal/app/queries"
	"staydesk/internal/app/uow"
	"staydesk/internal/domain/reservation"
	"staydesk/internal/domain/scheduling"
)

const (
	mergeSegmentsKey     = "reservation.merge_segments"
	mergeReservationsKey = "reservation.merge"
	mergeNeighborKey     = "reservation.merge_neighbor"
)

type MergeSegmentsCommand struct {
	ReservationID string `validate:"required"`
	First         int    `validate:"gte=0"`
	Second        int    `validate:"gte=0"`
	Confirmed     bool
}

func (c MergeSegmentsCommand) Key() string { return mergeSegmentsKey }

type MergeSegmentsHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      support.Clock
}

func (h *MergeSegmentsHandler) Handle(ctx context.Context, cmd MergeSegmentsCommand) (dto.Reservation, error) {
	var out dto.Reservation
	err := support.WithUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		sched, err := support.LoadSchedule(ctx, unit, h.Clock)
		if err != nil {
			return err
		}
		r, err := sched.MergeSegments(reservation.ID(cmd.ReservationID), cmd.First, cmd.Second, cmd.Confirmed)
		if err != nil {
			return err
		}
		if err := support.SaveReservations(ctx, unit, h.Outbox, h.Encoder, r); err != nil {
			return err
		}
		out = dto.MapReservation(r)
		return nil
	})
	return out, err
}

type MergeReservationsCommand struct {
	SurvivorID string `validate:"required"`
	AbsorbedID string `validate:"required,nefield=SurvivorID"`
	Confirmed  bool
}

func (c MergeReservationsCommand) Key() string { return mergeReservationsKey }

type MergeReservationsHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      support.Clock
}

func (h *MergeReservationsHandler) Handle(ctx context.Context, cmd MergeReservationsCommand) (dto.MergeResult, error) {
	var out dto.MergeResult
	err := support.WithUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		sched, err := support.LoadSchedule(ctx, unit, h.Clock)
		if err != nil {
			return err
		}
		res, err := sched.MergeReservations(reservation.ID(cmd.SurvivorID), reservation.ID(cmd.AbsorbedID), cmd.Confirmed)
		if err != nil {
			return err
		}
		if err := support.SaveReservations(ctx, unit, h.Outbox, h.Encoder, res.Survivor, res.Absorbed); err != nil {
			return err
		}
		out = dto.MergeResult{Survivor: dto.MapReservation(res.Survivor), Absorbed: dto.MapReservation(res.Absorbed)}
		return nil
	})
	return out, err
}

// MergeNeighborQuery asks which segment or reservation a "merge previous/next" action on
// the given segment would target.
type MergeNeighborQuery struct {
	ReservationID string `validate:"required"`
	Segment       int    `validate:"gte=0"`
	Direction     string `validate:"required"`
}

func (q MergeNeighborQuery) Key() string { return mergeNeighborKey }

type MergeNeighborHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *MergeNeighborHandler) Handle(ctx context.Context, q MergeNeighborQuery) (dto.Neighbor, error) {
	dir, ok := scheduling.ParseDirection(q.Direction)
	if !ok {
		return dto.Neighbor{}, &scheduling.ValidationError{Field: "direction", Reason: "expected prev or next"}
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Neighbor{}, err
	}
	defer cleanup()

	sched, err := support.LoadSchedule(ctx, unit, nil)
	if err != nil {
		return dto.Neighbor{}, err
	}
	if _, ok := sched.Reservation(reservation.ID(q.ReservationID)); !ok {
		return dto.Neighbor{}, &scheduling.NotFoundError{Kind: "reservation", ID: q.ReservationID}
	}
	n, found := sched.FindMergeNeighbor(reservation.ID(q.ReservationID), q.Segment, dir)
	return dto.MapNeighbor(n, found), nil
}

var _ commands.Handler[MergeSegmentsCommand, dto.Reservation] = (*MergeSegmentsHandler)(nil)
var _ commands.Handler[MergeReservationsCommand, dto.MergeResult] = (*MergeReservationsHandler)(nil)
var _ queries.Handler[MergeNeighborQuery, dto.Neighbor] = (*MergeNeighborHandler)(nil)
