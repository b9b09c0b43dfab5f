package maintenance

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"staydesk/internal/app/commands"
	"staydesk/internal/app/dto"
	"staydesk/internal/app/handlers/support"
	"staydesk/internal/app/outbox"
	"staydesk/internal/app/queries"
	"staydesk/internal/app/uow"
	"staydesk/internal/domain/inventory"
	domainmaintenance "staydesk/internal/domain/maintenance"
	"staydesk/internal/domain/scheduling"
	"staydesk/internal/domain/shared/events"
)

const (
	registerBlockKey = "maintenance.register"
	setBlockStateKey = "maintenance.set_state"
	listBlocksKey    = "maintenance.list"
)

// RegisterBlockCommand records a repair ticket's unavailability window. Registering an
// existing id replaces the window, which is how updates arrive from the ticket feed.
type RegisterBlockCommand struct {
	BlockID            string
	UnitID             string    `validate:"required"`
	Start              time.Time `validate:"required"`
	End                time.Time `validate:"required"`
	BlocksAvailability bool
	State              string `validate:"omitempty,oneof=pending in_progress completed"`
	Title              string
}

func (c RegisterBlockCommand) Key() string { return registerBlockKey }

type RegisterBlockHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      support.Clock
}

func (h *RegisterBlockHandler) Handle(ctx context.Context, cmd RegisterBlockCommand) (dto.MaintenanceBlock, error) {
	id := cmd.BlockID
	if id == "" {
		id = uuid.NewString()
	}
	var out dto.MaintenanceBlock
	err := support.WithUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		if _, err := unit.Inventory().Unit(ctx, inventory.UnitID(cmd.UnitID)); err != nil {
			if errors.Is(err, inventory.ErrUnitNotFound) {
				return &scheduling.NotFoundError{Kind: "unit", ID: cmd.UnitID}
			}
			return err
		}
		now := h.Clock.Now()
		block, err := domainmaintenance.NewBlock(domainmaintenance.BlockID(id), inventory.UnitID(cmd.UnitID), cmd.Start, cmd.End, cmd.BlocksAvailability, cmd.Title, now)
		if err != nil {
			return &scheduling.ValidationError{Field: "end", Reason: "end must not be before start"}
		}
		if cmd.State != "" {
			if err := block.SetState(domainmaintenance.State(cmd.State), now); err != nil {
				return &scheduling.ValidationError{Field: "state", Reason: err.Error()}
			}
		}
		if err := unit.Maintenance().Save(ctx, block); err != nil {
			return err
		}
		ev := domainmaintenance.BlockRegistered{
			BlockID:            block.ID,
			Unit:               block.Unit,
			Start:              block.Start,
			End:                block.End,
			BlocksAvailability: block.BlocksAvailability,
			At:                 block.UpdatedAt,
		}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, []events.DomainEvent{ev}); err != nil {
			return err
		}
		out = dto.MapMaintenanceBlock(block)
		return nil
	})
	return out, err
}

type SetBlockStateCommand struct {
	BlockID string `validate:"required"`
	State   string `validate:"required,oneof=pending in_progress completed"`
}

func (c SetBlockStateCommand) Key() string { return setBlockStateKey }

type SetBlockStateHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      support.Clock
}

func (h *SetBlockStateHandler) Handle(ctx context.Context, cmd SetBlockStateCommand) (dto.MaintenanceBlock, error) {
	var out dto.MaintenanceBlock
	err := support.WithUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		block, err := unit.Maintenance().ByID(ctx, domainmaintenance.BlockID(cmd.BlockID))
		if err != nil {
			if errors.Is(err, domainmaintenance.ErrBlockNotFound) {
				return &scheduling.NotFoundError{Kind: "maintenance block", ID: cmd.BlockID}
			}
			return err
		}
		from := block.State
		if err := block.SetState(domainmaintenance.State(cmd.State), h.Clock.Now()); err != nil {
			return &scheduling.ValidationError{Field: "state", Reason: err.Error()}
		}
		if err := unit.Maintenance().Save(ctx, block); err != nil {
			return err
		}
		if from != block.State {
			ev := domainmaintenance.BlockStateChanged{BlockID: block.ID, From: from, To: block.State, At: block.UpdatedAt}
			if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, []events.DomainEvent{ev}); err != nil {
				return err
			}
		}
		out = dto.MapMaintenanceBlock(block)
		return nil
	})
	return out, err
}

// ListBlocksQuery lists every registered block, including completed and non-blocking ones.
type ListBlocksQuery struct {
	UnitID string
}

func (q ListBlocksQuery) Key() string { return listBlocksKey }

type ListBlocksHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListBlocksHandler) Handle(ctx context.Context, q ListBlocksQuery) ([]dto.MaintenanceBlock, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	blocks, err := unit.Maintenance().ActiveBlocks(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Start.Before(blocks[j].Start) })
	out := make([]dto.MaintenanceBlock, 0, len(blocks))
	for _, b := range blocks {
		if q.UnitID != "" && string(b.Unit) != q.UnitID {
			continue
		}
		out = append(out, dto.MapMaintenanceBlock(b))
	}
	return out, nil
}

var _ commands.Handler[RegisterBlockCommand, dto.MaintenanceBlock] = (*RegisterBlockHandler)(nil)
var _ commands.Handler[SetBlockStateCommand, dto.MaintenanceBlock] = (*SetBlockStateHandler)(nil)
var _ queries.Handler[ListBlocksQuery, []dto.MaintenanceBlock] = (*ListBlocksHandler)(nil)
