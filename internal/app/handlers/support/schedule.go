package support

import (
	"context"

	"staydesk/internal/app/outbox"
	"staydesk/internal/app/uow"
	"staydesk/internal/domain/reservation"
	"staydesk/internal/domain/scheduling"
)

// LoadSchedule builds the in-memory schedule from everything the unit can see.
func LoadSchedule(ctx context.Context, unit uow.UnitOfWork, clock Clock) (*scheduling.Schedule, error) {
	units, err := unit.Inventory().ListUnits(ctx)
	if err != nil {
		return nil, err
	}
	reservations, err := unit.Reservations().List(ctx)
	if err != nil {
		return nil, err
	}
	blocks, err := unit.Maintenance().ActiveBlocks(ctx)
	if err != nil {
		return nil, err
	}
	cleaning, err := unit.Cleaning().Blocks(ctx)
	if err != nil {
		return nil, err
	}
	return scheduling.New(scheduling.Snapshot{
		Units:        units,
		Reservations: reservations,
		Maintenance:  blocks,
		Cleaning:     cleaning,
	}, scheduling.WithClock(clock.Now)), nil
}

// SaveReservations persists reservations touched by a schedule operation and stages their
// pending events in the outbox. A reservation that was never stored is created; one with no
// pending events is left alone.
func SaveReservations(ctx context.Context, unit uow.UnitOfWork, box outbox.Outbox, encoder outbox.EventEncoder, rs ...*reservation.Reservation) error {
	repo := unit.Reservations()
	for _, r := range rs {
		if r == nil {
			continue
		}
		pending := r.Drain()
		switch {
		case r.Version == 0:
			if err := repo.Create(ctx, r); err != nil {
				return err
			}
		case len(pending) == 0:
			continue
		default:
			if err := repo.Update(ctx, r); err != nil {
				return err
			}
		}
		if err := outbox.RecordDomainEvents(ctx, box, encoder, pending); err != nil {
			return err
		}
	}
	return nil
}
