package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"staydesk/internal/app/dto"
	"staydesk/internal/app/handlers/support"
	"staydesk/internal/app/policies"
	"staydesk/internal/app/queries"
	"staydesk/internal/app/uow"
	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/scheduling"
	"staydesk/internal/domain/shared/daterange"
)

const unitFeedKey = "calendar.unit_ics"

var ErrExporterMissing = errors.New("calendar: exporter not configured")

// UnitFeedQuery exports one unit's occupants, optionally restricted to those overlapping
// [From, To).
type UnitFeedQuery struct {
	UnitID string `validate:"required"`
	From   time.Time
	To     time.Time
}

func (q UnitFeedQuery) Key() string { return unitFeedKey }

type UnitFeedHandler struct {
	UoWFactory uow.UoWFactory
	Exporter   policies.CalendarExporter
}

func (h *UnitFeedHandler) Handle(ctx context.Context, q UnitFeedQuery) (dto.CalendarFeed, error) {
	if h.Exporter == nil {
		return dto.CalendarFeed{}, ErrExporterMissing
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CalendarFeed{}, err
	}
	defer cleanup()

	sched, err := support.LoadSchedule(ctx, unit, nil)
	if err != nil {
		return dto.CalendarFeed{}, err
	}
	unitID := inventory.UnitID(q.UnitID)
	if !sched.HasUnit(unitID) {
		return dto.CalendarFeed{}, &scheduling.NotFoundError{Kind: "unit", ID: q.UnitID}
	}
	var window *daterange.DateRange
	if !q.From.IsZero() && !q.To.IsZero() {
		dr, err := daterange.New(q.From, q.To)
		if err != nil {
			return dto.CalendarFeed{}, &scheduling.ValidationError{Field: "to", Reason: "to must be after from"}
		}
		window = &dr
	}

	entries := make([]policies.CalendarEntry, 0)
	for _, occ := range sched.Occupants(unitID) {
		iv := occ.Interval()
		if window != nil && !iv.Overlaps(*window) {
			continue
		}
		entries = append(entries, occupantEntry(occ))
	}
	for _, r := range sched.Reservations() {
		if !r.Occupies() {
			continue
		}
		for _, task := range r.Cleaning {
			if task.Unit != unitID {
				continue
			}
			day := daterange.DateRange{CheckIn: task.Date, CheckOut: daterange.AddDays(task.Date, 1)}
			if window != nil && !day.Overlaps(*window) {
				continue
			}
			entries = append(entries, policies.CalendarEntry{
				UID:         task.ID,
				Kind:        "service",
				Summary:     fmt.Sprintf("Housekeeping (%s)", task.Kind),
				Description: fmt.Sprintf("Stay %s, guest %s", r.ID, r.GuestName),
				Start:       day.CheckIn,
				End:         day.CheckOut,
			})
		}
	}

	body, err := h.Exporter.Export(ctx, q.UnitID, entries)
	if err != nil {
		return dto.CalendarFeed{}, err
	}
	return dto.CalendarFeed{UnitID: q.UnitID, ContentType: "text/calendar; charset=utf-8", Body: body}, nil
}

func occupantEntry(occ scheduling.Occupant) policies.CalendarEntry {
	iv := occ.Interval()
	entry := policies.CalendarEntry{
		UID:   fmt.Sprintf("%s-%s", occ.Kind(), occ.Ref()),
		Kind:  string(occ.Kind()),
		Start: iv.CheckIn,
		End:   iv.CheckOut,
	}
	switch o := occ.(type) {
	case scheduling.Stay:
		entry.UID = fmt.Sprintf("stay-%s-%d", o.ReservationID, o.Index)
		entry.Summary = o.GuestName
		entry.Description = fmt.Sprintf("Reservation %s, %d nights", o.ReservationID, o.Segment.Nights())
	case scheduling.MaintenanceHold:
		entry.Summary = "Maintenance"
		if o.Block.Title != "" {
			entry.Summary = "Maintenance: " + o.Block.Title
		}
		entry.Description = fmt.Sprintf("Ticket %s (%s)", o.Block.ID, o.Block.State)
	case scheduling.CleaningHold:
		entry.Summary = "Cleaning block"
		entry.Description = o.Block.Note
	}
	return entry
}

var _ queries.Handler[UnitFeedQuery, dto.CalendarFeed] = (*UnitFeedHandler)(nil)
