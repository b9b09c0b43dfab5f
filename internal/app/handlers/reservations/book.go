package reservations

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"staydesk/internal/app/commands"
	"staydesk/internal/app/dto"
	"staydesk/internal/app/handlers/support"
	"staydesk/internal/app/middleware"
	"staydesk/internal/app/outbox"
	"staydesk/internal/app/uow"
	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/reservation"
	"staydesk/internal/domain/scheduling"
	"staydesk/internal/domain/shared/money"
)

const bookReservationKey = "reservation.book"

type BookReservationCommand struct {
	ReservationID   string
	GuestName       string    `validate:"required"`
	Phone           string
	Email           string    `validate:"omitempty,email"`
	UnitID          string    `validate:"required"`
	CheckIn         time.Time `validate:"required"`
	CheckOut        time.Time `validate:"required"`
	Status          string    `validate:"omitempty,oneof=pending active cleaning checkout"`
	TotalAmount     int64     `validate:"gte=0"`
	Currency        string    `validate:"omitempty,len=3"`
	Observations    string
	IdempotencyKeyV string
}

func (c BookReservationCommand) Key() string { return bookReservationKey }

func (c BookReservationCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c BookReservationCommand) ResultPrototype() any { return &dto.Reservation{} }

type BookReservationHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	NewID      func() string
}

func (h *BookReservationHandler) Handle(ctx context.Context, cmd BookReservationCommand) (*dto.Reservation, error) {
	total, err := bookingTotal(cmd.TotalAmount, cmd.Currency)
	if err != nil {
		return nil, err
	}
	id := cmd.ReservationID
	if id == "" {
		id = h.newID()
	}
	var out dto.Reservation
	err = support.WithUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		sched, err := support.LoadSchedule(ctx, unit, h.Clock)
		if err != nil {
			return err
		}
		r, err := sched.Book(scheduling.BookingRequest{
			ID:           reservation.ID(id),
			GuestName:    cmd.GuestName,
			Contact:      reservation.Contact{Phone: strings.TrimSpace(cmd.Phone), Email: strings.TrimSpace(cmd.Email)},
			Unit:         inventory.UnitID(cmd.UnitID),
			CheckIn:      cmd.CheckIn,
			CheckOut:     cmd.CheckOut,
			Status:       reservation.Status(cmd.Status),
			Total:        total,
			Observations: cmd.Observations,
		})
		if err != nil {
			return err
		}
		if err := support.SaveReservations(ctx, unit, h.Outbox, h.Encoder, r); err != nil {
			return err
		}
		out = dto.MapReservation(r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *BookReservationHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

func bookingTotal(amount int64, currency string) (money.Money, error) {
	if currency == "" {
		if amount == 0 {
			return money.Money{}, nil
		}
		return money.Money{}, &scheduling.ValidationError{Field: "currency", Reason: "currency required with an amount"}
	}
	m, err := money.New(amount, currency)
	if err != nil {
		return money.Money{}, &scheduling.ValidationError{Field: "currency", Reason: err.Error()}
	}
	return m, nil
}

var _ commands.Handler[BookReservationCommand, *dto.Reservation] = (*BookReservationHandler)(nil)
var _ middleware.IdempotentCommand = (*BookReservationCommand)(nil)
