package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"staydesk/internal/domain/housekeeping"
	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/shared/daterange"
	"staydesk/internal/domain/shared/events"
	"staydesk/internal/domain/shared/money"
)

var (
	ErrNotFound         = errors.New("reservation: not found")
	ErrAlreadyExists    = errors.New("reservation: already exists")
	ErrConcurrentUpdate = errors.New("reservation: concurrent update detected")
	ErrInvalidStatus    = errors.New("reservation: unknown status")
	ErrGuestRequired    = errors.New("reservation: guest name required")
	ErrNoSegments       = errors.New("reservation: at least one segment required")
)

type ID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCleaning  Status = "cleaning"
	StatusCheckout  Status = "checkout"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
	StatusRelocated Status = "relocated"
)

// ParseStatus accepts the canonical names plus the hyphenated "no-show".
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	switch s {
	case StatusPending, StatusActive, StatusCleaning, StatusCheckout, StatusCancelled, StatusNoShow, StatusRelocated:
		return s, nil
	}
	return "", ErrInvalidStatus
}

// Occupies reports whether a reservation in this status takes part in conflict and
// availability calculations.
func (s Status) Occupies() bool {
	switch s {
	case StatusCancelled, StatusNoShow, StatusRelocated:
		return false
	}
	return true
}

type Contact struct {
	Phone string
	Email string
}

type Payment struct {
	ID     string
	Amount money.Money
	Method string
	PaidAt time.Time
	Note   string
}

type HistoryEntry struct {
	At     time.Time
	Action string
	Detail string
}

// Reservation is a guest stay built from one or more segments. CheckIn, CheckOut and
// Cleaning are caches recomputed from Segments after every change.
type Reservation struct {
	ID           ID
	GuestName    string
	Contact      Contact
	Status       Status
	Segments     []Segment
	CheckIn      time.Time
	CheckOut     time.Time
	Cleaning     []housekeeping.Task
	Total        money.Money
	Payments     []Payment
	History      []HistoryEntry
	Observations string
	MergedInto   ID
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Reservation, error)
	List(ctx context.Context) ([]*Reservation, error)
	Create(ctx context.Context, r *Reservation) error
	Update(ctx context.Context, r *Reservation) error
	Delete(ctx context.Context, id ID) error
}

type CreateParams struct {
	ID           ID
	GuestName    string
	Contact      Contact
	Unit         inventory.UnitID
	CheckIn      time.Time
	CheckOut     time.Time
	Status       Status
	Total        money.Money
	Observations string
	CreatedAt    time.Time
}

func New(params CreateParams) (*Reservation, error) {
	if strings.TrimSpace(params.GuestName) == "" {
		return nil, ErrGuestRequired
	}
	seg, err := NewSegment(params.Unit, params.CheckIn, params.CheckOut)
	if err != nil {
		return nil, err
	}
	status := params.Status
	if status == "" {
		status = StatusPending
	}
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	r := &Reservation{
		ID:           params.ID,
		GuestName:    strings.TrimSpace(params.GuestName),
		Contact:      params.Contact,
		Status:       status,
		Segments:     []Segment{seg},
		Total:        params.Total,
		Observations: params.Observations,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.Refresh()
	r.appendHistory(now, "booked", fmt.Sprintf("%s %s", seg.Unit, formatRange(r.Range())))
	r.Record(ReservationBooked{ReservationID: r.ID, Unit: seg.Unit, Range: r.Range(), At: now})
	return r, nil
}

// Refresh sorts segments and recomputes the derived bounds and cleaning schedule.
func (r *Reservation) Refresh() {
	SortSegments(r.Segments)
	r.CheckIn, r.CheckOut = Bounds(r.Segments)
	r.Cleaning = r.cleaningTasks()
}

func (r *Reservation) Range() daterange.DateRange {
	return daterange.DateRange{CheckIn: r.CheckIn, CheckOut: r.CheckOut}
}

func (r *Reservation) Occupies() bool {
	return r.Status.Occupies()
}

// Units lists the distinct units the reservation touches, in segment order.
func (r *Reservation) Units() []inventory.UnitID {
	seen := make(map[inventory.UnitID]struct{}, len(r.Segments))
	var out []inventory.UnitID
	for _, s := range r.Segments {
		if _, ok := seen[s.Unit]; ok {
			continue
		}
		seen[s.Unit] = struct{}{}
		out = append(out, s.Unit)
	}
	return out
}

// ApplySegments replaces the segment list with an already validated proposal.
func (r *Reservation) ApplySegments(segs []Segment, action, detail string, now time.Time) {
	before := len(r.Cleaning)
	r.Segments = CloneSegments(segs)
	r.Refresh()
	r.UpdatedAt = now.UTC()
	r.appendHistory(now, action, detail)
	if before > 0 || len(r.Cleaning) > 0 {
		r.Record(CleaningRescheduled{ReservationID: r.ID, Services: len(r.Cleaning), At: r.UpdatedAt})
	}
}

func (r *Reservation) SetStatus(status Status, reason string, now time.Time) {
	from := r.Status
	r.Status = status
	r.UpdatedAt = now.UTC()
	detail := fmt.Sprintf("%s -> %s", from, status)
	if reason != "" {
		detail += ": " + reason
	}
	r.appendHistory(now, "status", detail)
	r.Record(StatusChanged{ReservationID: r.ID, From: from, To: status, Reason: reason, At: r.UpdatedAt})
}

// Absorb folds other's billing and history into r. Segments are handled by the caller.
func (r *Reservation) Absorb(other *Reservation, now time.Time) error {
	total, err := r.Total.Add(other.Total)
	if err != nil {
		return err
	}
	r.Total = total
	r.Payments = append(r.Payments, other.Payments...)
	r.History = append(r.History, other.History...)
	obs := strings.TrimSpace(other.Observations)
	if obs != "" {
		if strings.TrimSpace(r.Observations) == "" {
			r.Observations = "[Merged] " + obs
		} else {
			r.Observations = r.Observations + "\n[Merged] " + obs
		}
	}
	r.UpdatedAt = now.UTC()
	return nil
}

func (r *Reservation) appendHistory(now time.Time, action, detail string) {
	r.History = append(r.History, HistoryEntry{At: now.UTC(), Action: action, Detail: detail})
}

func (r *Reservation) cleaningTasks() []housekeeping.Task {
	if len(r.Segments) == 0 {
		return nil
	}
	services := housekeeping.Generate(r.CheckIn, r.CheckOut)
	if len(services) == 0 {
		return nil
	}
	tasks := make([]housekeeping.Task, 0, len(services))
	for _, s := range services {
		tasks = append(tasks, housekeeping.Task{
			ID:   fmt.Sprintf("%s-cl-%d", r.ID, s.Ordinal),
			Date: s.Date,
			Kind: s.Kind,
			Unit: r.unitOn(s.Date),
		})
	}
	return tasks
}

// unitOn returns the unit occupied on day, falling back to the latest segment that
// started before it when the stay has a gap.
func (r *Reservation) unitOn(day time.Time) inventory.UnitID {
	unit := r.Segments[0].Unit
	for _, s := range r.Segments {
		if s.Range().ContainsDate(day) {
			return s.Unit
		}
		if !s.Start.After(day) {
			unit = s.Unit
		}
	}
	return unit
}

// Clone deep-copies the aggregate without its pending events.
func (r *Reservation) Clone() *Reservation {
	if r == nil {
		return nil
	}
	c := *r
	c.EventRecorder = events.EventRecorder{}
	c.Segments = CloneSegments(r.Segments)
	c.Cleaning = append([]housekeeping.Task(nil), r.Cleaning...)
	c.Payments = append([]Payment(nil), r.Payments...)
	c.History = append([]HistoryEntry(nil), r.History...)
	return &c
}

func formatRange(dr daterange.DateRange) string {
	return dr.CheckIn.Format(time.DateOnly) + ".." + dr.CheckOut.Format(time.DateOnly)
}
