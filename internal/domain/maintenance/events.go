package maintenance

import (
	"time"

	"staydesk/internal/domain/inventory"
)

type BlockRegistered struct {
	BlockID            BlockID          `json:"block_id"`
	Unit               inventory.UnitID `json:"unit"`
	Start              time.Time        `json:"start"`
	End                time.Time        `json:"end"`
	BlocksAvailability bool             `json:"blocks_availability"`
	At                 time.Time        `json:"occurred_at"`
}

func (e BlockRegistered) EventName() string     { return "maintenance.block_registered" }
func (e BlockRegistered) AggregateID() string   { return string(e.BlockID) }
func (e BlockRegistered) OccurredAt() time.Time { return e.At }

type BlockStateChanged struct {
	BlockID BlockID   `json:"block_id"`
	From    State     `json:"from"`
	To      State     `json:"to"`
	At      time.Time `json:"occurred_at"`
}

func (e BlockStateChanged) EventName() string     { return "maintenance.block_state_changed" }
func (e BlockStateChanged) AggregateID() string   { return string(e.BlockID) }
func (e BlockStateChanged) OccurredAt() time.Time { return e.At }
