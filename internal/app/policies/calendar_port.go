package policies

import (
	"context"
	"time"
)

// CalendarEntry is one all-day occupant rendered into an exported feed. End is exclusive.
type CalendarEntry struct {
	UID         string
	Kind        string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// CalendarExporter renders a unit's occupancy into a calendar document.
type CalendarExporter interface {
	Export(ctx context.Context, name string, entries []CalendarEntry) ([]byte, error)
}
