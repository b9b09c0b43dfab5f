package uow

import (
	"context"

	"staydesk/internal/domain/housekeeping"
	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/maintenance"
	"staydesk/internal/domain/reservation"
)

// UnitOfWork groups the repositories a calendar operation reads and writes. Writes become
// visible to other units only on Commit.
type UnitOfWork interface {
	Inventory() inventory.Registry
	Reservations() reservation.Repository
	Maintenance() maintenance.Repository
	Cleaning() housekeeping.BlockRepository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
