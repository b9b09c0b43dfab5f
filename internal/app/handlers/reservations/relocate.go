package reservations

import (
	"context"
	"time"

	"staydesk/internal/app/commands"
	"staydesk/internal/app/dto"
	"staydesk/internal/app/handlers/support"
	"staydesk/internal/app/outbox"
	"staydesk/internal/app/queries"
	"staydesk/internal/app/uow"
	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/reservation"
	"staydesk/internal/domain/scheduling"
)

const (
	relocateReservationKey = "reservation.relocate"
	previewRelocationKey   = "reservation.preview_relocation"
)

// RelocateReservationCommand is a committed drag-and-drop. Segment is nil for a
// whole-reservation move.
type RelocateReservationCommand struct {
	ReservationID string    `validate:"required"`
	Segment       *int      `validate:"omitempty,gte=0"`
	TargetUnit    string    `validate:"required"`
	TargetDate    time.Time `validate:"required"`
	AnchorDate    time.Time
}

func (c RelocateReservationCommand) Key() string { return relocateReservationKey }

func (c RelocateReservationCommand) request() scheduling.RelocateRequest {
	return scheduling.RelocateRequest{
		ReservationID: reservation.ID(c.ReservationID),
		Segment:       c.Segment,
		TargetUnit:    inventory.UnitID(c.TargetUnit),
		TargetDate:    c.TargetDate,
		AnchorDate:    c.AnchorDate,
	}
}

type RelocateReservationHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      support.Clock
}

func (h *RelocateReservationHandler) Handle(ctx context.Context, cmd RelocateReservationCommand) (dto.Reservation, error) {
	var out dto.Reservation
	err := support.WithUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		sched, err := support.LoadSchedule(ctx, unit, h.Clock)
		if err != nil {
			return err
		}
		r, err := sched.Relocate(cmd.request())
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

// PreviewRelocationQuery shares its fields with the command so the ghost is computed from
// exactly what a drop would send.
type PreviewRelocationQuery struct {
	RelocateReservationCommand
}

func (q PreviewRelocationQuery) Key() string { return previewRelocationKey }

type PreviewRelocationHandler struct {
	UoWFactory uow.UoWFactory
	Clock      support.Clock
}

func (h *PreviewRelocationHandler) Handle(ctx context.Context, q PreviewRelocationQuery) (dto.Ghost, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Ghost{}, err
	}
	defer cleanup()

	sched, err := support.LoadSchedule(ctx, unit, h.Clock)
	if err != nil {
		return dto.Ghost{}, err
	}
	ghost, err := sched.PreviewRelocation(q.request())
	if err != nil {
		return dto.Ghost{}, err
	}
	return dto.MapGhost(ghost), nil
}

var _ commands.Handler[RelocateReservationCommand, dto.Reservation] = (*RelocateReservationHandler)(nil)
var _ queries.Handler[PreviewRelocationQuery, dto.Ghost] = (*PreviewRelocationHandler)(nil)
