package reservations

import (
	"context"

	"staydesk/internal/app/commands"
	"staydesk/internal/app/dto"
	"staydesk/internal/app/handlers/support"
	"staydesk/internal/app/outbox"
	"staydesk/internal/app/uow"
	"staydesk/internal/domain/reservation"
)

const changeStatusKey = "reservation.change_status"

type ChangeStatusCommand struct {
	ReservationID string `validate:"required"`
	Status        string `validate:"required"`
	Reason        string
}

func (c ChangeStatusCommand) Key() string { return changeStatusKey }

type ChangeStatusHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      support.Clock
}

func (h *ChangeStatusHandler) Handle(ctx context.Context, cmd ChangeStatusCommand) (dto.Reservation, error) {
	var out dto.Reservation
	err := support.WithUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		sched, err := support.LoadSchedule(ctx, unit, h.Clock)
		if err != nil {
			return err
		}
		r, err := sched.ChangeStatus(reservation.ID(cmd.ReservationID), reservation.Status(cmd.Status), cmd.Reason)
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

var _ commands.Handler[ChangeStatusCommand, dto.Reservation] = (*ChangeStatusHandler)(nil)
