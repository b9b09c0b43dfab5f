package maintenance

import (
	"context"
	"errors"
	"time"

	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/shared/daterange"
)

var (
	ErrBlockNotFound = errors.New("maintenance: block not found")
	ErrInvalidState  = errors.New("maintenance: invalid state")
	ErrInvalidBlock  = errors.New("maintenance: unit, start and end are required")
)

type BlockID string

type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

func (s State) Valid() bool {
	switch s {
	case StatePending, StateInProgress, StateCompleted:
		return true
	}
	return false
}

// Block is a unit-unavailability period raised by a repair ticket. End is the last
// affected day; occupancy runs through the day after it.
type Block struct {
	ID                 BlockID
	Unit               inventory.UnitID
	Start              time.Time
	End                time.Time
	BlocksAvailability bool
	State              State
	Title              string
	UpdatedAt          time.Time
}

func NewBlock(id BlockID, unit inventory.UnitID, start, end time.Time, blocks bool, title string, now time.Time) (Block, error) {
	if unit == "" || start.IsZero() || end.IsZero() {
		return Block{}, ErrInvalidBlock
	}
	start, end = daterange.Noon(start), daterange.Noon(end)
	if end.Before(start) {
		return Block{}, ErrInvalidBlock
	}
	return Block{
		ID:                 id,
		Unit:               unit,
		Start:              start,
		End:                end,
		BlocksAvailability: blocks,
		State:              StatePending,
		Title:              title,
		UpdatedAt:          now.UTC(),
	}, nil
}

// Blocking reports whether the block currently prevents occupancy.
func (b Block) Blocking() bool {
	return b.BlocksAvailability && b.State != StateCompleted
}

// Range is the exclusive occupancy interval [start, end+1 day).
func (b Block) Range() daterange.DateRange {
	return daterange.DateRange{
		CheckIn:  daterange.Noon(b.Start),
		CheckOut: daterange.AddDays(daterange.Noon(b.End), 1),
	}
}

func (b *Block) SetState(state State, now time.Time) error {
	if !state.Valid() {
		return ErrInvalidState
	}
	b.State = state
	b.UpdatedAt = now.UTC()
	return nil
}

// Feed supplies maintenance blocks maintained by the ticketing side of the application.
type Feed interface {
	ActiveBlocks(ctx context.Context) ([]Block, error)
}

// Repository is the writable side of the feed.
type Repository interface {
	Feed
	ByID(ctx context.Context, id BlockID) (Block, error)
	Save(ctx context.Context, block Block) error
}
