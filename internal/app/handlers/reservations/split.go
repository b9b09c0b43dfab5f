package reservations

import (
	"context"
	"time"

	"staydesk/internal/app/commands"
	"staydesk/internal/app/dto"
	"staydesk/internal/app/handlers/support"
	"staydesk/internal/app/outbox"
	"staydesk/internal/app/uow"
	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/reservation"
)

const splitReservationKey = "reservation.split"

type SplitReservationCommand struct {
	ReservationID string    `validate:"required"`
	SplitDate     time.Time `validate:"required"`
	NewUnit       string    `validate:"required"`
}

func (c SplitReservationCommand) Key() string { return splitReservationKey }

type SplitReservationHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      support.Clock
}

func (h *SplitReservationHandler) Handle(ctx context.Context, cmd SplitReservationCommand) (dto.Reservation, error) {
	var out dto.Reservation
	err := support.WithUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		sched, err := support.LoadSchedule(ctx, unit, h.Clock)
		if err != nil {
			return err
		}
		r, err := sched.Split(reservation.ID(cmd.ReservationID), cmd.SplitDate, inventory.UnitID(cmd.NewUnit))
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

var _ commands.Handler[SplitReservationCommand, dto.Reservation] = (*SplitReservationHandler)(nil)
