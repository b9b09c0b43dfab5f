package calendar

import (
	"context"
	"fmt"
	"time"

	"staydesk/internal/app/dto"
	"staydesk/internal/app/handlers/support"
	"staydesk/internal/app/queries"
	"staydesk/internal/app/uow"
	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/reservation"
	"staydesk/internal/domain/scheduling"
)

const detectConflictKey = "scheduling.detect_conflict"

type SegmentInput struct {
	Unit  string    `validate:"required"`
	Start time.Time `validate:"required"`
	End   time.Time `validate:"required"`
}

// DetectConflictQuery runs the conflict detector on an arbitrary proposal without
// touching any reservation. ExcludeID names the reservation the proposal belongs to.
type DetectConflictQuery struct {
	Segments  []SegmentInput `validate:"required,min=1,dive"`
	ExcludeID string
}

func (q DetectConflictQuery) Key() string { return detectConflictKey }

type DetectConflictHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *DetectConflictHandler) Handle(ctx context.Context, q DetectConflictQuery) (dto.Conflict, error) {
	if len(q.Segments) == 0 {
		return dto.Conflict{}, &scheduling.ValidationError{Field: "segments", Reason: "at least one segment required"}
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Conflict{}, err
	}
	defer cleanup()

	sched, err := support.LoadSchedule(ctx, unit, nil)
	if err != nil {
		return dto.Conflict{}, err
	}
	candidates := make([]reservation.Segment, 0, len(q.Segments))
	for i, in := range q.Segments {
		seg, err := reservation.NewSegment(inventory.UnitID(in.Unit), in.Start, in.End)
		if err != nil {
			return dto.Conflict{}, &scheduling.ValidationError{Field: fmt.Sprintf("segments[%d]", i), Reason: "end must be after start"}
		}
		if !sched.HasUnit(seg.Unit) {
			return dto.Conflict{}, &scheduling.NotFoundError{Kind: "unit", ID: in.Unit}
		}
		candidates = append(candidates, seg)
	}
	var exclude []reservation.ID
	if q.ExcludeID != "" {
		exclude = append(exclude, reservation.ID(q.ExcludeID))
	}
	return dto.MapConflict(sched.DetectConflict(candidates, exclude...)), nil
}

var _ queries.Handler[DetectConflictQuery, dto.Conflict] = (*DetectConflictHandler)(nil)
