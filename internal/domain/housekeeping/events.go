package housekeeping

import (
	"time"

	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/shared/daterange"
)

type BlockScheduled struct {
	BlockID BlockID             `json:"block_id"`
	Unit    inventory.UnitID    `json:"unit"`
	Range   daterange.DateRange `json:"range"`
	At      time.Time           `json:"occurred_at"`
}

func (e BlockScheduled) EventName() string     { return "housekeeping.block_scheduled" }
func (e BlockScheduled) AggregateID() string   { return string(e.BlockID) }
func (e BlockScheduled) OccurredAt() time.Time { return e.At }
