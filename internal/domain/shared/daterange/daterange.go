package daterange

import (
	"errors"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
)

// NoonHour is the wall-clock hour every calendar instant is pinned to before comparison.
const NoonHour = 12

// DateRange represents a half-open interval [checkIn, checkOut) at day granularity.
type DateRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// New normalises both ends to local noon and validates the interval.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Noon(checkIn), CheckOut: Noon(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Noon pins t to 12:00 of its calendar day in its own location.
func Noon(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), NoonHour, 0, 0, 0, t.Location())
}

// NoonIn pins the calendar day of t, as written, to 12:00 in loc.
func NoonIn(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	if loc == nil {
		loc = t.Location()
	}
	return time.Date(t.Year(), t.Month(), t.Day(), NoonHour, 0, 0, 0, loc)
}

// DaysBetween counts whole calendar days from a to b (negative when b is earlier).
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// AddDays moves t by n calendar days keeping the wall clock.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// Nights is the stay length in whole calendar days.
func (dr DateRange) Nights() int {
	return DaysBetween(dr.CheckIn, dr.CheckOut)
}

// Normalized returns a copy with both ends pinned to noon.
func (dr DateRange) Normalized() DateRange {
	return DateRange{CheckIn: Noon(dr.CheckIn), CheckOut: Noon(dr.CheckOut)}
}

// Overlaps is strict: ranges that only touch at an endpoint do not overlap.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) Contains(other DateRange) bool {
	return (dr.CheckIn.Before(other.CheckIn) || dr.CheckIn.Equal(other.CheckIn)) &&
		(dr.CheckOut.After(other.CheckOut) || dr.CheckOut.Equal(other.CheckOut))
}

// ContainsDate reports whether the calendar day of t falls inside the range.
func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Noon(t)
	return (t.Equal(dr.CheckIn) || t.After(dr.CheckIn)) && t.Before(dr.CheckOut)
}

// StrictlyContains reports whether t lies inside the range and on neither boundary.
func (dr DateRange) StrictlyContains(t time.Time) bool {
	t = Noon(t)
	return dr.CheckIn.Before(t) && t.Before(dr.CheckOut)
}

func (dr DateRange) Adjacent(other DateRange) bool {
	return dr.CheckOut.Equal(other.CheckIn) || dr.CheckIn.Equal(other.CheckOut)
}

// Shift moves both ends by n calendar days.
func (dr DateRange) Shift(n int) DateRange {
	return DateRange{CheckIn: AddDays(dr.CheckIn, n), CheckOut: AddDays(dr.CheckOut, n)}
}

// ExtendEnd returns the range with its end pushed n days later.
func (dr DateRange) ExtendEnd(n int) DateRange {
	return DateRange{CheckIn: dr.CheckIn, CheckOut: AddDays(dr.CheckOut, n)}
}

func (dr DateRange) Merge(other DateRange) (DateRange, bool) {
	if !(dr.Overlaps(other) || dr.Adjacent(other)) {
		return DateRange{}, false
	}
	start := dr.CheckIn
	if other.CheckIn.Before(start) {
		start = other.CheckIn
	}
	end := dr.CheckOut
	if other.CheckOut.After(end) {
		end = other.CheckOut
	}
	return DateRange{CheckIn: start, CheckOut: end}, true
}

// Days lists the noon instant of every night covered by the range.
func (dr DateRange) Days() []time.Time {
	n := dr.Nights()
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, AddDays(dr.CheckIn, i))
	}
	return out
}
