// Package ics renders unit occupancy as an iCalendar feed that channel managers and
// housekeeping phones can subscribe to.
package ics

import (
	"context"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"staydesk/internal/app/policies"
)

const defaultProductID = "-//staydesk//calendar//EN"

// Exporter writes every entry as an all-day VEVENT.
type Exporter struct {
	ProductID string
	Now       func() time.Time
}

func (e Exporter) Export(ctx context.Context, name string, entries []policies.CalendarEntry) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if e.Now != nil {
		now = e.Now().UTC()
	}
	productID := e.ProductID
	if productID == "" {
		productID = defaultProductID
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(name)
	for _, entry := range entries {
		ev := cal.AddEvent(entry.UID)
		ev.SetDtStampTime(now)
		ev.SetAllDayStartAt(entry.Start)
		ev.SetAllDayEndAt(entry.End)
		ev.SetSummary(entry.Summary)
		if entry.Description != "" {
			ev.SetDescription(entry.Description)
		}
		if entry.Kind != "" {
			ev.SetProperty(ical.ComponentPropertyCategories, strings.ToUpper(entry.Kind))
		}
	}
	return []byte(cal.Serialize()), nil
}

var _ policies.CalendarExporter = Exporter{}
