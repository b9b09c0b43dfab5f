package reservation

import (
	"strings"
	"testing"
	"time"

	"staydesk/internal/domain/housekeeping"
	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/shared/money"
)

func noon(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func newTestReservation(t *testing.T, id ID, unit string, in, out time.Time) *Reservation {
	t.Helper()
	r, err := New(CreateParams{
		ID:        id,
		GuestName: "Ana Gómez",
		Unit:      inventory.UnitID(unit),
		CheckIn:   in,
		CheckOut:  out,
		Total:     money.Must(70000, "ARS"),
		CreatedAt: noon(2025, 11, 1),
	})
	if err != nil {
		t.Fatalf("new reservation: %v", err)
	}
	return r
}

func TestNewDerivesBoundsAndCleaning(t *testing.T) {
	r := newTestReservation(t, "r1", "LG-1", time.Date(2025, 12, 1, 15, 0, 0, 0, time.UTC), time.Date(2025, 12, 8, 10, 0, 0, 0, time.UTC))
	if !r.CheckIn.Equal(noon(2025, 12, 1)) || !r.CheckOut.Equal(noon(2025, 12, 8)) {
		t.Fatalf("unexpected bounds %v - %v", r.CheckIn, r.CheckOut)
	}
	if len(r.Cleaning) != 2 {
		t.Fatalf("expected 2 cleaning tasks, got %d", len(r.Cleaning))
	}
	first, second := r.Cleaning[0], r.Cleaning[1]
	if !first.Date.Equal(noon(2025, 12, 3)) || first.Kind != housekeeping.KindTowels || first.Unit != "LG-1" {
		t.Fatalf("unexpected first task %+v", first)
	}
	if !second.Date.Equal(noon(2025, 12, 6)) || second.Kind != housekeeping.KindFullClean {
		t.Fatalf("unexpected second task %+v", second)
	}
	if first.ID != "r1-cl-1" {
		t.Fatalf("expected deterministic task id, got %s", first.ID)
	}
	if r.Status != StatusPending {
		t.Fatalf("expected pending status, got %s", r.Status)
	}
	if len(r.PendingEvents()) != 1 {
		t.Fatalf("expected booked event, got %d events", len(r.PendingEvents()))
	}
}

func TestNewRejectsInvalidInput(t *testing.T) {
	_, err := New(CreateParams{ID: "x", GuestName: "A", Unit: "LG-1", CheckIn: noon(2025, 12, 8), CheckOut: noon(2025, 12, 1)})
	if err != ErrInvalidSegment {
		t.Fatalf("expected ErrInvalidSegment, got %v", err)
	}
	_, err = New(CreateParams{ID: "x", GuestName: " ", Unit: "LG-1", CheckIn: noon(2025, 12, 1), CheckOut: noon(2025, 12, 8)})
	if err != ErrGuestRequired {
		t.Fatalf("expected ErrGuestRequired, got %v", err)
	}
}

func TestApplySegmentsRecomputesBoundsAndCleaningUnit(t *testing.T) {
	r := newTestReservation(t, "r1", "LG-1", noon(2025, 12, 1), noon(2025, 12, 8))
	segs := []Segment{
		{Unit: "LG-2", Start: noon(2025, 12, 4), End: noon(2025, 12, 8)},
		{Unit: "LG-1", Start: noon(2025, 12, 1), End: noon(2025, 12, 4)},
	}
	r.ApplySegments(segs, "split", "", noon(2025, 11, 2))
	if r.Segments[0].Unit != "LG-1" {
		t.Fatalf("expected segments sorted chronologically, got %+v", r.Segments)
	}
	if !r.CheckIn.Equal(noon(2025, 12, 1)) || !r.CheckOut.Equal(noon(2025, 12, 8)) {
		t.Fatalf("unexpected bounds %v - %v", r.CheckIn, r.CheckOut)
	}
	if r.Cleaning[1].Unit != "LG-2" {
		t.Fatalf("expected second cleaning on LG-2, got %s", r.Cleaning[1].Unit)
	}
}

func TestAbsorbConcatenatesBilling(t *testing.T) {
	a := newTestReservation(t, "a", "LG-1", noon(2025, 12, 1), noon(2025, 12, 4))
	b := newTestReservation(t, "b", "LG-1", noon(2025, 12, 4), noon(2025, 12, 7))
	a.Observations = "late arrival"
	b.Observations = "needs crib"
	b.Payments = []Payment{{ID: "p1", Amount: money.Must(1000, "ARS")}}
	if err := a.Absorb(b, noon(2025, 11, 3)); err != nil {
		t.Fatalf("absorb: %v", err)
	}
	if a.Total.Amount != 140000 {
		t.Fatalf("expected totals summed, got %d", a.Total.Amount)
	}
	if len(a.Payments) != 1 || len(a.History) != 2 {
		t.Fatalf("expected payments and history concatenated, got %d/%d", len(a.Payments), len(a.History))
	}
	if !strings.Contains(a.Observations, "[Merged] needs crib") {
		t.Fatalf("expected merged marker, got %q", a.Observations)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	r := newTestReservation(t, "r1", "LG-1", noon(2025, 12, 1), noon(2025, 12, 8))
	c := r.Clone()
	c.Segments[0].Unit = "LG-9"
	if r.Segments[0].Unit != "LG-1" {
		t.Fatalf("clone shares segment storage")
	}
	if len(c.PendingEvents()) != 0 {
		t.Fatalf("clone must not carry pending events")
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("No-Show")
	if err != nil || s != StatusNoShow {
		t.Fatalf("expected no_show, got %q (%v)", s, err)
	}
	if s.Occupies() {
		t.Fatalf("no-show must not occupy")
	}
	if _, err := ParseStatus("archived"); err != ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}
