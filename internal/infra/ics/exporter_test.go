package ics

import (
	"bytes"
	"context"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"staydesk/internal/app/policies"
)

func TestExportRoundTripsThroughParser(t *testing.T) {
	loc := time.FixedZone("ART", -3*3600)
	entries := []policies.CalendarEntry{
		{
			UID:         "stay-r1-0",
			Kind:        "stay",
			Summary:     "Ana Perez",
			Description: "Reservation r1, 3 nights",
			Start:       time.Date(2025, 3, 10, 12, 0, 0, 0, loc),
			End:         time.Date(2025, 3, 13, 12, 0, 0, 0, loc),
		},
		{
			UID:     "maintenance-m1",
			Kind:    "maintenance",
			Summary: "Maintenance",
			Start:   time.Date(2025, 3, 13, 12, 0, 0, 0, loc),
			End:     time.Date(2025, 3, 14, 12, 0, 0, 0, loc),
		},
	}
	exp := Exporter{Now: func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }}
	body, err := exp.Export(context.Background(), "cabin-1", entries)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("expected parseable calendar, got %v", err)
	}
	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	first := events[0]
	if uid := first.GetProperty(ical.ComponentPropertyUniqueId); uid == nil || uid.Value != "stay-r1-0" {
		t.Fatalf("expected uid stay-r1-0, got %+v", uid)
	}
	if start := first.GetProperty(ical.ComponentPropertyDtStart); start == nil || start.Value != "20250310" {
		t.Fatalf("expected all-day start 20250310, got %+v", start)
	}
	if end := first.GetProperty(ical.ComponentPropertyDtEnd); end == nil || end.Value != "20250313" {
		t.Fatalf("expected exclusive end 20250313, got %+v", end)
	}
	if summary := first.GetProperty(ical.ComponentPropertySummary); summary == nil || summary.Value != "Ana Perez" {
		t.Fatalf("expected summary, got %+v", summary)
	}
	if desc := events[1].GetProperty(ical.ComponentPropertyDescription); desc != nil {
		t.Fatalf("expected no description on maintenance entry, got %q", desc.Value)
	}
}

func TestExportHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Exporter{}).Export(ctx, "cabin-1", nil); err == nil {
		t.Fatalf("expected context error")
	}
}
