package housekeeping

import (
	"context"
	"time"

	"github.com/google/uuid"

	"staydesk/internal/app/commands"
	"staydesk/internal/app/dto"
	"staydesk/internal/app/handlers/support"
	"staydesk/internal/app/outbox"
	"staydesk/internal/app/queries"
	"staydesk/internal/app/uow"
	domainhousekeeping "staydesk/internal/domain/housekeeping"
	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/reservation"
	"staydesk/internal/domain/scheduling"
	"staydesk/internal/domain/shared/daterange"
	"staydesk/internal/domain/shared/events"
)

const (
	scheduleBlockKey = "housekeeping.block"
	cleaningPlanKey  = "housekeeping.schedule"
	listBlocksKey    = "housekeeping.blocks"
)

// ScheduleBlockCommand takes a unit out of service for a deep clean between stays. The
// block occupies [Start, End) like a stay and is checked against every other occupant.
type ScheduleBlockCommand struct {
	BlockID string
	UnitID  string    `validate:"required"`
	Start   time.Time `validate:"required"`
	End     time.Time `validate:"required"`
	Note    string
}

func (c ScheduleBlockCommand) Key() string { return scheduleBlockKey }

type ScheduleBlockHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      support.Clock
}

func (h *ScheduleBlockHandler) Handle(ctx context.Context, cmd ScheduleBlockCommand) (dto.CleaningBlock, error) {
	id := cmd.BlockID
	if id == "" {
		id = uuid.NewString()
	}
	var out dto.CleaningBlock
	err := support.WithUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		sched, err := support.LoadSchedule(ctx, unit, h.Clock)
		if err != nil {
			return err
		}
		unitID := inventory.UnitID(cmd.UnitID)
		if !sched.HasUnit(unitID) {
			return &scheduling.NotFoundError{Kind: "unit", ID: cmd.UnitID}
		}
		block, err := domainhousekeeping.NewBlock(domainhousekeeping.BlockID(id), unitID, daterange.DateRange{CheckIn: cmd.Start, CheckOut: cmd.End}, cmd.Note, h.Clock.Now())
		if err != nil {
			return &scheduling.ValidationError{Field: "end", Reason: "end must be after start"}
		}
		probe := reservation.Segment{Unit: block.Unit, Start: block.Range.CheckIn, End: block.Range.CheckOut}
		if res := sched.DetectConflict([]reservation.Segment{probe}); !res.Clear {
			return &scheduling.ConflictError{ReservationID: id, Result: res}
		}
		if err := unit.Cleaning().Save(ctx, block); err != nil {
			return err
		}
		ev := domainhousekeeping.BlockScheduled{BlockID: block.ID, Unit: block.Unit, Range: block.Range, At: block.CreatedAt}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, []events.DomainEvent{ev}); err != nil {
			return err
		}
		out = dto.MapCleaningBlock(block)
		return nil
	})
	return out, err
}

// CleaningPlanQuery previews the services a stay with these bounds would receive.
type CleaningPlanQuery struct {
	CheckIn  time.Time `validate:"required"`
	CheckOut time.Time `validate:"required"`
}

func (q CleaningPlanQuery) Key() string { return cleaningPlanKey }

type CleaningPlanHandler struct{}

func (h *CleaningPlanHandler) Handle(_ context.Context, q CleaningPlanQuery) (dto.CleaningSchedule, error) {
	dr, err := daterange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.CleaningSchedule{}, &scheduling.ValidationError{Field: "check_out", Reason: "check-out must be after check-in"}
	}
	plan := dto.MapServices(dr.CheckIn, dr.CheckOut, domainhousekeeping.Generate(dr.CheckIn, dr.CheckOut))
	plan.Nights = dr.Nights()
	return plan, nil
}

type ListBlocksQuery struct {
	UnitID string
}

func (q ListBlocksQuery) Key() string { return listBlocksKey }

type ListBlocksHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListBlocksHandler) Handle(ctx context.Context, q ListBlocksQuery) ([]dto.CleaningBlock, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	blocks, err := unit.Cleaning().Blocks(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CleaningBlock, 0, len(blocks))
	for _, b := range blocks {
		if q.UnitID != "" && string(b.Unit) != q.UnitID {
			continue
		}
		out = append(out, dto.MapCleaningBlock(b))
	}
	return out, nil
}

var _ commands.Handler[ScheduleBlockCommand, dto.CleaningBlock] = (*ScheduleBlockHandler)(nil)
var _ queries.Handler[CleaningPlanQuery, dto.CleaningSchedule] = (*CleaningPlanHandler)(nil)
var _ queries.Handler[ListBlocksQuery, []dto.CleaningBlock] = (*ListBlocksHandler)(nil)
