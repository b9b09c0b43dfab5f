package daterange

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d, hour int, loc *time.Location) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, loc)
}

func TestNewNormalisesToNoon(t *testing.T) {
	dr, err := New(day(2025, 12, 1, 15, time.UTC), day(2025, 12, 8, 9, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dr.CheckIn.Hour() != NoonHour || dr.CheckOut.Hour() != NoonHour {
		t.Fatalf("expected noon bounds, got %v - %v", dr.CheckIn, dr.CheckOut)
	}
	if dr.Nights() != 7 {
		t.Fatalf("expected 7 nights, got %d", dr.Nights())
	}
}

func TestNewRejectsEmptyRange(t *testing.T) {
	if _, err := New(day(2025, 12, 1, 8, time.UTC), day(2025, 12, 1, 20, time.UTC)); err != ErrInvalidRange {
		t.Fatalf("expected ErrInvalidRange for same-day range, got %v", err)
	}
	if _, err := New(day(2025, 12, 3, 12, time.UTC), day(2025, 12, 1, 12, time.UTC)); err != ErrInvalidRange {
		t.Fatalf("expected ErrInvalidRange for inverted range, got %v", err)
	}
}

func TestOverlapsIsStrict(t *testing.T) {
	a, _ := New(day(2025, 12, 10, 12, time.UTC), day(2025, 12, 12, 12, time.UTC))
	b, _ := New(day(2025, 12, 11, 12, time.UTC), day(2025, 12, 13, 12, time.UTC))
	c, _ := New(day(2025, 12, 12, 12, time.UTC), day(2025, 12, 14, 12, time.UTC))
	if !a.Overlaps(b) || !b.Overlaps(a) {
		t.Fatalf("expected overlap between %v and %v", a, b)
	}
	if a.Overlaps(c) {
		t.Fatalf("touching ranges must not overlap")
	}
	if !a.Adjacent(c) {
		t.Fatalf("expected touching ranges to be adjacent")
	}
}

func TestDaysBetweenAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 2025-03-30 is the spring-forward night in Madrid.
	from := Noon(day(2025, 3, 29, 0, loc))
	to := Noon(day(2025, 4, 2, 23, loc))
	if got := DaysBetween(from, to); got != 4 {
		t.Fatalf("expected 4 days, got %d", got)
	}
	if shifted := AddDays(from, 4); !shifted.Equal(to) {
		t.Fatalf("expected %v, got %v", to, shifted)
	}
}

func TestStrictlyContainsExcludesBoundaries(t *testing.T) {
	dr, _ := New(day(2025, 12, 1, 12, time.UTC), day(2025, 12, 8, 12, time.UTC))
	if dr.StrictlyContains(day(2025, 12, 1, 18, time.UTC)) {
		t.Fatalf("check-in day must not be strictly inside")
	}
	if dr.StrictlyContains(day(2025, 12, 8, 6, time.UTC)) {
		t.Fatalf("check-out day must not be strictly inside")
	}
	if !dr.StrictlyContains(day(2025, 12, 4, 0, time.UTC)) {
		t.Fatalf("expected interior day to be strictly inside")
	}
	if !dr.ContainsDate(day(2025, 12, 1, 0, time.UTC)) {
		t.Fatalf("expected check-in day to be occupied")
	}
	if dr.ContainsDate(day(2025, 12, 8, 0, time.UTC)) {
		t.Fatalf("check-out day is free for the next guest")
	}
}

func TestMergeAdjacent(t *testing.T) {
	a, _ := New(day(2025, 12, 1, 12, time.UTC), day(2025, 12, 4, 12, time.UTC))
	b, _ := New(day(2025, 12, 4, 12, time.UTC), day(2025, 12, 7, 12, time.UTC))
	merged, ok := a.Merge(b)
	if !ok {
		t.Fatalf("expected adjacent ranges to merge")
	}
	if merged.Nights() != 6 {
		t.Fatalf("expected 6 nights, got %d", merged.Nights())
	}
	if len(merged.Days()) != 6 {
		t.Fatalf("expected 6 days listed, got %d", len(merged.Days()))
	}
}
