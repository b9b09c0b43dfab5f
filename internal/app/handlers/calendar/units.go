package calendar

import (
	"context"

	"staydesk/internal/app/dto"
	"staydesk/internal/app/handlers/support"
	"staydesk/internal/app/queries"
	"staydesk/internal/app/uow"
	"staydesk/internal/domain/inventory"
)

const listUnitsKey = "inventory.units"

type ListUnitsQuery struct {
	Complex string
}

func (q ListUnitsQuery) Key() string { return listUnitsKey }

type ListUnitsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListUnitsHandler) Handle(ctx context.Context, q ListUnitsQuery) (dto.UnitCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.UnitCollection{}, err
	}
	defer cleanup()

	units, err := unit.Inventory().ListUnits(ctx)
	if err != nil {
		return dto.UnitCollection{}, err
	}
	if q.Complex != "" {
		units = inventory.ByComplex(units, inventory.ComplexID(q.Complex))
	}
	return dto.MapUnits(units), nil
}

var _ queries.Handler[ListUnitsQuery, dto.UnitCollection] = (*ListUnitsHandler)(nil)
