package housekeeping

import (
	"reflect"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestServiceCountFormula(t *testing.T) {
	cases := map[int]int{0: 0, 1: 0, 2: 0, 3: 0, 4: 1, 6: 1, 7: 2, 9: 2, 10: 3, 30: 9}
	for days, want := range cases {
		if got := ServiceCount(days); got != want {
			t.Fatalf("days=%d: expected %d services, got %d", days, want, got)
		}
		start := date(2025, 1, 1)
		if got := len(Generate(start, start.AddDate(0, 0, days))); days > 0 && got != want {
			t.Fatalf("days=%d: expected %d generated services, got %d", days, want, got)
		}
	}
}

func TestGenerateSevenNightStay(t *testing.T) {
	services := Generate(date(2025, 12, 1), date(2025, 12, 8))
	if len(services) != 2 {
		t.Fatalf("expected 2 services, got %d", len(services))
	}
	if !services[0].Date.Equal(date(2025, 12, 3)) || services[0].Kind != KindTowels {
		t.Fatalf("unexpected first service: %+v", services[0])
	}
	if !services[1].Date.Equal(date(2025, 12, 6)) || services[1].Kind != KindFullClean {
		t.Fatalf("unexpected second service: %+v", services[1])
	}
}

func TestGenerateIgnoresTimeOfDay(t *testing.T) {
	a := Generate(time.Date(2025, 12, 1, 15, 30, 0, 0, time.UTC), time.Date(2025, 12, 8, 10, 0, 0, 0, time.UTC))
	b := Generate(date(2025, 12, 1), date(2025, 12, 8))
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical schedules, got %+v and %+v", a, b)
	}
}

func TestGapsStayWithinTwoAndThreeDays(t *testing.T) {
	for days := 4; days <= 60; days++ {
		start := date(2025, 3, 1)
		services := Generate(start, start.AddDate(0, 0, days))
		prev := 0
		for _, s := range services {
			gap := s.Offset - prev
			if gap < 2 || gap > 3 {
				t.Fatalf("days=%d: gap %d out of bounds in %+v", days, gap, services)
			}
			prev = s.Offset
		}
		if tail := days - prev; tail < 2 || tail > 3 {
			t.Fatalf("days=%d: trailing gap %d out of bounds", days, tail)
		}
	}
}
