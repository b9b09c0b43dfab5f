package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"staydesk/internal/domain/housekeeping"
	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/maintenance"
	"staydesk/internal/domain/reservation"
	"staydesk/internal/domain/shared/daterange"
	"staydesk/internal/domain/shared/money"
)

// FormatVersion is bumped whenever the envelope layout changes incompatibly.
const FormatVersion = 1

// State is everything the scheduling core needs to rebuild itself.
type State struct {
	Reservations []*reservation.Reservation
	Maintenance  []maintenance.Block
	Cleaning     []housekeeping.Block
}

type envelope struct {
	Version        int                   `json:"version"`
	SavedAt        string                `json:"saved_at"`
	Reservations   []reservationRecord   `json:"reservations"`
	Maintenance    []maintenanceRecord   `json:"maintenance"`
	CleaningBlocks []cleaningBlockRecord `json:"cleaning_blocks"`
}

type segmentRecord struct {
	Unit  string `json:"unit"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type cleaningRecord struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Kind string `json:"kind"`
	Unit string `json:"unit"`
}

type paymentRecord struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Method   string `json:"method,omitempty"`
	PaidAt   string `json:"paid_at"`
	Note     string `json:"note,omitempty"`
}

type historyRecord struct {
	At     string `json:"at"`
	Action string `json:"action"`
	Detail string `json:"detail,omitempty"`
}

type reservationRecord struct {
	ID           string           `json:"id"`
	GuestName    string           `json:"guest_name"`
	Phone        string           `json:"phone,omitempty"`
	Email        string           `json:"email,omitempty"`
	Status       string           `json:"status"`
	Segments     []segmentRecord  `json:"segments"`
	CheckIn      string           `json:"check_in"`
	CheckOut     string           `json:"check_out"`
	Cleaning     []cleaningRecord `json:"cleaning"`
	Total        int64            `json:"total"`
	Currency     string           `json:"currency,omitempty"`
	Payments     []paymentRecord  `json:"payments,omitempty"`
	History      []historyRecord  `json:"history,omitempty"`
	Observations string           `json:"observations,omitempty"`
	MergedInto   string           `json:"merged_into,omitempty"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at"`
	Version      int64            `json:"version"`
}

type maintenanceRecord struct {
	ID                 string `json:"id"`
	Unit               string `json:"unit"`
	Start              string `json:"start"`
	End                string `json:"end"`
	BlocksAvailability bool   `json:"blocks_availability"`
	State              string `json:"state"`
	Title              string `json:"title,omitempty"`
	UpdatedAt          string `json:"updated_at"`
}

type cleaningBlockRecord struct {
	ID        string `json:"id"`
	Unit      string `json:"unit"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Codec turns State into the persisted JSON document and back. Calendar dates are
// re-pinned to noon in Location on decode, so a snapshot written under one UTC offset
// compares correctly against dates created under another.
type Codec struct {
	Location *time.Location
}

func (c Codec) Encode(state State, savedAt time.Time) ([]byte, error) {
	env := envelope{
		Version:        FormatVersion,
		SavedAt:        stamp(savedAt),
		Reservations:   make([]reservationRecord, 0, len(state.Reservations)),
		Maintenance:    make([]maintenanceRecord, 0, len(state.Maintenance)),
		CleaningBlocks: make([]cleaningBlockRecord, 0, len(state.Cleaning)),
	}
	for _, r := range state.Reservations {
		if r == nil {
			continue
		}
		env.Reservations = append(env.Reservations, encodeReservation(r))
	}
	for _, b := range state.Maintenance {
		env.Maintenance = append(env.Maintenance, maintenanceRecord{
			ID:                 string(b.ID),
			Unit:               string(b.Unit),
			Start:              stamp(b.Start),
			End:                stamp(b.End),
			BlocksAvailability: b.BlocksAvailability,
			State:              string(b.State),
			Title:              b.Title,
			UpdatedAt:          stamp(b.UpdatedAt),
		})
	}
	for _, b := range state.Cleaning {
		env.CleaningBlocks = append(env.CleaningBlocks, cleaningBlockRecord{
			ID:        string(b.ID),
			Unit:      string(b.Unit),
			Start:     stamp(b.Range.CheckIn),
			End:       stamp(b.Range.CheckOut),
			Note:      b.Note,
			CreatedAt: stamp(b.CreatedAt),
		})
	}
	return json.MarshalIndent(env, "", "  ")
}

func encodeReservation(r *reservation.Reservation) reservationRecord {
	rec := reservationRecord{
		ID:           string(r.ID),
		GuestName:    r.GuestName,
		Phone:        r.Contact.Phone,
		Email:        r.Contact.Email,
		Status:       string(r.Status),
		CheckIn:      stamp(r.CheckIn),
		CheckOut:     stamp(r.CheckOut),
		Total:        r.Total.Amount,
		Currency:     r.Total.Currency,
		Observations: r.Observations,
		MergedInto:   string(r.MergedInto),
		CreatedAt:    stamp(r.CreatedAt),
		UpdatedAt:    stamp(r.UpdatedAt),
		Version:      r.Version,
	}
	for _, s := range r.Segments {
		rec.Segments = append(rec.Segments, segmentRecord{Unit: string(s.Unit), Start: stamp(s.Start), End: stamp(s.End)})
	}
	for _, t := range r.Cleaning {
		rec.Cleaning = append(rec.Cleaning, cleaningRecord{ID: t.ID, Date: stamp(t.Date), Kind: string(t.Kind), Unit: string(t.Unit)})
	}
	for _, p := range r.Payments {
		rec.Payments = append(rec.Payments, paymentRecord{
			ID:       p.ID,
			Amount:   p.Amount.Amount,
			Currency: p.Amount.Currency,
			Method:   p.Method,
			PaidAt:   stamp(p.PaidAt),
			Note:     p.Note,
		})
	}
	for _, h := range r.History {
		rec.History = append(rec.History, historyRecord{At: stamp(h.At), Action: h.Action, Detail: h.Detail})
	}
	return rec
}

func (c Codec) Decode(data []byte) (State, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if env.Version > FormatVersion {
		return State{}, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, env.Version)
	}
	d := decoder{loc: c.location()}
	state := State{
		Reservations: make([]*reservation.Reservation, 0, len(env.Reservations)),
		Maintenance:  make([]maintenance.Block, 0, len(env.Maintenance)),
		Cleaning:     make([]housekeeping.Block, 0, len(env.CleaningBlocks)),
	}
	for _, rec := range env.Reservations {
		r := d.reservation(rec)
		if d.err != nil {
			return State{}, fmt.Errorf("%w: reservation %s: %v", ErrCorruptSnapshot, rec.ID, d.err)
		}
		state.Reservations = append(state.Reservations, r)
	}
	for _, rec := range env.Maintenance {
		state.Maintenance = append(state.Maintenance, maintenance.Block{
			ID:                 maintenance.BlockID(rec.ID),
			Unit:               inventory.UnitID(rec.Unit),
			Start:              d.day(rec.Start),
			End:                d.day(rec.End),
			BlocksAvailability: rec.BlocksAvailability,
			State:              maintenance.State(rec.State),
			Title:              rec.Title,
			UpdatedAt:          d.instant(rec.UpdatedAt),
		})
	}
	for _, rec := range env.CleaningBlocks {
		state.Cleaning = append(state.Cleaning, housekeeping.Block{
			ID:        housekeeping.BlockID(rec.ID),
			Unit:      inventory.UnitID(rec.Unit),
			Range:     daterange.DateRange{CheckIn: d.day(rec.Start), CheckOut: d.day(rec.End)},
			Note:      rec.Note,
			CreatedAt: d.instant(rec.CreatedAt),
		})
	}
	if d.err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, d.err)
	}
	return state, nil
}

func (c Codec) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// decoder keeps the first parse error so record mapping can stay linear.
type decoder struct {
	loc *time.Location
	err error
}

func (d *decoder) parse(raw string) time.Time {
	if raw == "" || d.err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		d.err = err
		return time.Time{}
	}
	return t
}

func (d *decoder) day(raw string) time.Time {
	return daterange.NoonIn(d.parse(raw), d.loc)
}

func (d *decoder) instant(raw string) time.Time {
	t := d.parse(raw)
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func (d *decoder) reservation(rec reservationRecord) *reservation.Reservation {
	r := &reservation.Reservation{
		ID:           reservation.ID(rec.ID),
		GuestName:    rec.GuestName,
		Contact:      reservation.Contact{Phone: rec.Phone, Email: rec.Email},
		Status:       reservation.Status(rec.Status),
		Total:        money.Money{Amount: rec.Total, Currency: rec.Currency},
		Observations: rec.Observations,
		MergedInto:   reservation.ID(rec.MergedInto),
		CreatedAt:    d.instant(rec.CreatedAt),
		UpdatedAt:    d.instant(rec.UpdatedAt),
		Version:      rec.Version,
	}
	for _, s := range rec.Segments {
		r.Segments = append(r.Segments, reservation.Segment{Unit: inventory.UnitID(s.Unit), Start: d.day(s.Start), End: d.day(s.End)})
	}
	for _, p := range rec.Payments {
		r.Payments = append(r.Payments, reservation.Payment{
			ID:     p.ID,
			Amount: money.Money{Amount: p.Amount, Currency: p.Currency},
			Method: p.Method,
			PaidAt: d.instant(p.PaidAt),
			Note:   p.Note,
		})
	}
	for _, h := range rec.History {
		r.History = append(r.History, reservation.HistoryEntry{At: d.instant(h.At), Action: h.Action, Detail: h.Detail})
	}
	if d.err != nil {
		return nil
	}
	if len(r.Segments) == 0 {
		d.err = reservation.ErrNoSegments
		return nil
	}
	for _, s := range r.Segments {
		if err := s.Validate(); err != nil {
			d.err = err
			return nil
		}
	}
	if _, err := reservation.ParseStatus(string(r.Status)); err != nil {
		d.err = err
		return nil
	}
	// bounds and cleaning are caches; rebuild them from the segments
	r.Refresh()
	return r
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
