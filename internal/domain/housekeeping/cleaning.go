// Package housekeeping derives cleaning services from stay bounds and models
// standalone cleaning blocks.
package housekeeping

import (
	"math"
	"time"

	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/shared/daterange"
)

type Kind string

const (
	KindTowels    Kind = "towels"
	KindFullClean Kind = "full-clean"
)

// DaysPerService is the longest stretch a stay goes without housekeeping.
const DaysPerService = 3

// Task is one housekeeping visit during a stay.
type Task struct {
	ID   string           `json:"id"`
	Date time.Time        `json:"date"`
	Kind Kind             `json:"kind"`
	Unit inventory.UnitID `json:"unit"`
}

// Service is the schedule slot produced by Generate before it is bound to a unit.
type Service struct {
	Ordinal int
	Offset  int
	Date    time.Time
	Kind    Kind
}

// Generate spreads ceil(D/3)-1 services evenly across a stay of D days. Odd ordinals get
// towels, even ordinals a full clean; the parity rule has no confirmed business reason.
// The result depends only on the calendar days of the bounds, so recomputation is idempotent.
func Generate(checkIn, checkOut time.Time) []Service {
	in := daterange.Noon(checkIn)
	out := daterange.Noon(checkOut)
	days := daterange.DaysBetween(in, out)
	n := ServiceCount(days)
	if n == 0 {
		return nil
	}
	intervals := n + 1
	services := make([]Service, 0, n)
	for i := 1; i <= n; i++ {
		offset := roundHalfUp(float64(i*days) / float64(intervals))
		if offset <= 0 || offset >= days {
			continue
		}
		kind := KindTowels
		if i%2 == 0 {
			kind = KindFullClean
		}
		services = append(services, Service{
			Ordinal: i,
			Offset:  offset,
			Date:    daterange.AddDays(in, offset),
			Kind:    kind,
		})
	}
	return services
}

// ServiceCount is max(0, ceil(days/3) - 1).
func ServiceCount(days int) int {
	if days <= 0 {
		return 0
	}
	intervals := (days + DaysPerService - 1) / DaysPerService
	if intervals <= 1 {
		return 0
	}
	return intervals - 1
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
