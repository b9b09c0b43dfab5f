package housekeeping

import (
	"context"
	"errors"
	"time"

	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/shared/daterange"
)

var ErrInvalidBlock = errors.New("housekeeping: unit and range are required")

type BlockID string

// Block is a standalone cleaning period that keeps a unit out of service, such as a
// deep clean between seasons. Unlike Task it occupies the unit.
type Block struct {
	ID        BlockID
	Unit      inventory.UnitID
	Range     daterange.DateRange
	Note      string
	CreatedAt time.Time
}

func NewBlock(id BlockID, unit inventory.UnitID, r daterange.DateRange, note string, now time.Time) (Block, error) {
	if unit == "" {
		return Block{}, ErrInvalidBlock
	}
	r = r.Normalized()
	if err := r.Validate(); err != nil {
		return Block{}, ErrInvalidBlock
	}
	return Block{ID: id, Unit: unit, Range: r, Note: note, CreatedAt: now.UTC()}, nil
}

type BlockRepository interface {
	Blocks(ctx context.Context) ([]Block, error)
	Save(ctx context.Context, block Block) error
}
