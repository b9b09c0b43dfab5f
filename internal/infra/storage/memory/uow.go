package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "staydesk/internal/app/outbox"
	"staydesk/internal/app/uow"
	"staydesk/internal/domain/housekeeping"
	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/maintenance"
	"staydesk/internal/domain/reservation"
)

var (
	// ErrFactoryMisconfigured indicates a missing store or catalogue.
	ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")
	// ErrUnitClosed is returned when a finished unit is used again.
	ErrUnitClosed = errors.New("memory: unit of work already finished")
)

// Factory begins units over one Store. Read-write units are serialised; read-only units
// run concurrently with each other. Outbox receives the records staged by a unit once it
// commits.
type Factory struct {
	Store  *Store
	Outbox appoutbox.Outbox
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil || f.Store.catalogue == nil {
		return nil, ErrFactoryMisconfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.ReadOnly {
		f.Store.mu.RLock()
	} else {
		f.Store.mu.Lock()
	}
	return &Unit{
		store:      f.Store,
		sink:       f.Outbox,
		readOnly:   opts.ReadOnly,
		resStaged:  make(map[reservation.ID]*reservation.Reservation),
		resDeleted: make(map[reservation.ID]bool),
		blocks:     make(map[maintenance.BlockID]maintenance.Block),
		cleaning:   make(map[housekeeping.BlockID]housekeeping.Block),
		staging:    &staging{},
	}, nil
}

// Unit buffers every write until Commit. Rollback, or a unit that is never committed,
// leaves the Store untouched.
type Unit struct {
	store    *Store
	sink     appoutbox.Outbox
	readOnly bool

	once sync.Once
	done bool

	resStaged  map[reservation.ID]*reservation.Reservation
	resDeleted map[reservation.ID]bool
	resCreated []reservation.ID

	blocks     map[maintenance.BlockID]maintenance.Block
	blockOrder []maintenance.BlockID

	cleaning      map[housekeeping.BlockID]housekeeping.Block
	cleaningOrder []housekeeping.BlockID

	staging *staging
}

func (u *Unit) Inventory() inventory.Registry {
	return u.store.catalogue
}

func (u *Unit) Reservations() reservation.Repository {
	return reservationRepository{u: u}
}

func (u *Unit) Maintenance() maintenance.Repository {
	return maintenanceRepository{u: u}
}

func (u *Unit) Cleaning() housekeeping.BlockRepository {
	return cleaningRepository{u: u}
}

// InjectContext exposes the unit's outbox staging area to StagedOutbox.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return withStaging(ctx, u.staging)
}

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return ErrUnitClosed
	}
	var records []appoutbox.EventRecord
	if !u.readOnly {
		u.store.apply(u)
		records = u.staging.drain()
	}
	u.release()
	if u.sink == nil {
		return nil
	}
	for _, rec := range records {
		if err := u.sink.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.staging.drain()
	u.release()
	return nil
}

func (u *Unit) release() {
	u.once.Do(func() {
		u.done = true
		if u.readOnly {
			u.store.mu.RUnlock()
		} else {
			u.store.mu.Unlock()
		}
	})
}

func (u *Unit) checkWritable() error {
	if u.done {
		return ErrUnitClosed
	}
	if u.readOnly {
		return ErrReadOnlyUnit
	}
	return nil
}

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
var _ uow.ContextInjector = (*Unit)(nil)
