package memory

import (
	"context"

	"staydesk/internal/domain/housekeeping"
	"staydesk/internal/domain/maintenance"
	"staydesk/internal/domain/reservation"
)

// reservationRepository reads through the unit's staged writes to the committed store.
// Everything handed out is a clone, so callers mutate freely until they Update.
type reservationRepository struct {
	u *Unit
}

func (r reservationRepository) current(id reservation.ID) (*reservation.Reservation, bool) {
	if r.u.resDeleted[id] {
		return nil, false
	}
	if staged, ok := r.u.resStaged[id]; ok {
		return staged, true
	}
	stored, ok := r.u.store.reservations[id]
	return stored, ok
}

func (r reservationRepository) ByID(ctx context.Context, id reservation.ID) (*reservation.Reservation, error) {
	if r.u.done {
		return nil, ErrUnitClosed
	}
	res, ok := r.current(id)
	if !ok {
		return nil, reservation.ErrNotFound
	}
	return res.Clone(), nil
}

func (r reservationRepository) List(ctx context.Context) ([]*reservation.Reservation, error) {
	if r.u.done {
		return nil, ErrUnitClosed
	}
	out := make([]*reservation.Reservation, 0, len(r.u.store.resOrder)+len(r.u.resCreated))
	for _, id := range r.u.store.resOrder {
		if res, ok := r.current(id); ok {
			out = append(out, res.Clone())
		}
	}
	for _, id := range r.u.resCreated {
		if _, committed := r.u.store.reservations[id]; committed {
			continue
		}
		if res, ok := r.current(id); ok {
			out = append(out, res.Clone())
		}
	}
	return out, nil
}

func (r reservationRepository) Create(ctx context.Context, res *reservation.Reservation) error {
	if err := r.u.checkWritable(); err != nil {
		return err
	}
	if _, exists := r.current(res.ID); exists {
		return reservation.ErrAlreadyExists
	}
	res.Version = 1
	delete(r.u.resDeleted, res.ID)
	r.u.resStaged[res.ID] = res.Clone()
	r.u.resCreated = append(r.u.resCreated, res.ID)
	return nil
}

func (r reservationRepository) Update(ctx context.Context, res *reservation.Reservation) error {
	if err := r.u.checkWritable(); err != nil {
		return err
	}
	cur, ok := r.current(res.ID)
	if !ok {
		return reservation.ErrNotFound
	}
	if cur.Version != res.Version {
		return reservation.ErrConcurrentUpdate
	}
	res.Version++
	r.u.resStaged[res.ID] = res.Clone()
	return nil
}

func (r reservationRepository) Delete(ctx context.Context, id reservation.ID) error {
	if err := r.u.checkWritable(); err != nil {
		return err
	}
	if _, ok := r.current(id); !ok {
		return reservation.ErrNotFound
	}
	delete(r.u.resStaged, id)
	r.u.resDeleted[id] = true
	return nil
}

type maintenanceRepository struct {
	u *Unit
}

// ActiveBlocks returns every block in the feed; whether a block holds a unit is decided
// by Block.Blocking.
func (r maintenanceRepository) ActiveBlocks(ctx context.Context) ([]maintenance.Block, error) {
	if r.u.done {
		return nil, ErrUnitClosed
	}
	out := make([]maintenance.Block, 0, len(r.u.store.blockOrder)+len(r.u.blockOrder))
	for _, id := range r.u.store.blockOrder {
		if staged, ok := r.u.blocks[id]; ok {
			out = append(out, staged)
			continue
		}
		out = append(out, r.u.store.blocks[id])
	}
	for _, id := range r.u.blockOrder {
		if _, committed := r.u.store.blocks[id]; !committed {
			out = append(out, r.u.blocks[id])
		}
	}
	return out, nil
}

func (r maintenanceRepository) ByID(ctx context.Context, id maintenance.BlockID) (maintenance.Block, error) {
	if r.u.done {
		return maintenance.Block{}, ErrUnitClosed
	}
	if b, ok := r.u.blocks[id]; ok {
		return b, nil
	}
	if b, ok := r.u.store.blocks[id]; ok {
		return b, nil
	}
	return maintenance.Block{}, maintenance.ErrBlockNotFound
}

func (r maintenanceRepository) Save(ctx context.Context, block maintenance.Block) error {
	if err := r.u.checkWritable(); err != nil {
		return err
	}
	if _, ok := r.u.blocks[block.ID]; !ok {
		r.u.blockOrder = append(r.u.blockOrder, block.ID)
	}
	r.u.blocks[block.ID] = block
	return nil
}

type cleaningRepository struct {
	u *Unit
}

func (r cleaningRepository) Blocks(ctx context.Context) ([]housekeeping.Block, error) {
	if r.u.done {
		return nil, ErrUnitClosed
	}
	out := make([]housekeeping.Block, 0, len(r.u.store.cleaningOrder)+len(r.u.cleaningOrder))
	for _, id := range r.u.store.cleaningOrder {
		if staged, ok := r.u.cleaning[id]; ok {
			out = append(out, staged)
			continue
		}
		out = append(out, r.u.store.cleaning[id])
	}
	for _, id := range r.u.cleaningOrder {
		if _, committed := r.u.store.cleaning[id]; !committed {
			out = append(out, r.u.cleaning[id])
		}
	}
	return out, nil
}

func (r cleaningRepository) Save(ctx context.Context, block housekeeping.Block) error {
	if err := r.u.checkWritable(); err != nil {
		return err
	}
	if _, ok := r.u.cleaning[block.ID]; !ok {
		r.u.cleaningOrder = append(r.u.cleaningOrder, block.ID)
	}
	r.u.cleaning[block.ID] = block
	return nil
}

var _ reservation.Repository = reservationRepository{}
var _ maintenance.Repository = maintenanceRepository{}
var _ housekeeping.BlockRepository = cleaningRepository{}
