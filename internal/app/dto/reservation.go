package dto

import (
	"time"

	"staydesk/internal/domain/housekeeping"
	"staydesk/internal/domain/reservation"
	"staydesk/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type Segment struct {
	Index int       `json:"index"`
	Unit  string    `json:"unit"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type CleaningTask struct {
	ID   string    `json:"id"`
	Date time.Time `json:"date"`
	Kind string    `json:"kind"`
	Unit string    `json:"unit"`
}

type Payment struct {
	ID     string    `json:"id"`
	Amount MoneyDTO  `json:"amount"`
	Method string    `json:"method,omitempty"`
	PaidAt time.Time `json:"paid_at"`
	Note   string    `json:"note,omitempty"`
}

type HistoryEntry struct {
	At     time.Time `json:"at"`
	Action string    `json:"action"`
	Detail string    `json:"detail,omitempty"`
}

type Reservation struct {
	ID           string         `json:"id"`
	GuestName    string         `json:"guest_name"`
	Phone        string         `json:"phone,omitempty"`
	Email        string         `json:"email,omitempty"`
	Status       string         `json:"status"`
	Segments     []Segment      `json:"segments"`
	CheckIn      time.Time      `json:"check_in"`
	CheckOut     time.Time      `json:"check_out"`
	Nights       int            `json:"nights"`
	Cleaning     []CleaningTask `json:"cleaning"`
	Total        MoneyDTO       `json:"total"`
	Payments     []Payment      `json:"payments"`
	History      []HistoryEntry `json:"history"`
	Observations string         `json:"observations,omitempty"`
	MergedInto   string         `json:"merged_into,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Version      int64          `json:"version"`
}

type ReservationCollection struct {
	Items []Reservation `json:"items"`
}

type MergeResult struct {
	Survivor Reservation `json:"survivor"`
	Absorbed Reservation `json:"absorbed"`
}

func MapMoney(m money.Money) MoneyDTO {
	return MoneyDTO{Amount: m.Amount, Currency: m.Currency}
}

func MapSegments(segs []reservation.Segment) []Segment {
	out := make([]Segment, 0, len(segs))
	for i, s := range segs {
		out = append(out, Segment{Index: i, Unit: string(s.Unit), Start: s.Start, End: s.End})
	}
	return out
}

func MapCleaning(tasks []housekeeping.Task) []CleaningTask {
	out := make([]CleaningTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, CleaningTask{ID: t.ID, Date: t.Date, Kind: string(t.Kind), Unit: string(t.Unit)})
	}
	return out
}

func MapReservation(r *reservation.Reservation) Reservation {
	if r == nil {
		return Reservation{}
	}
	out := Reservation{
		ID:           string(r.ID),
		GuestName:    r.GuestName,
		Phone:        r.Contact.Phone,
		Email:        r.Contact.Email,
		Status:       string(r.Status),
		Segments:     MapSegments(r.Segments),
		CheckIn:      r.CheckIn,
		CheckOut:     r.CheckOut,
		Nights:       r.Range().Nights(),
		Cleaning:     MapCleaning(r.Cleaning),
		Total:        MapMoney(r.Total),
		Payments:     make([]Payment, 0, len(r.Payments)),
		History:      make([]HistoryEntry, 0, len(r.History)),
		Observations: r.Observations,
		MergedInto:   string(r.MergedInto),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		Version:      r.Version,
	}
	for _, p := range r.Payments {
		out.Payments = append(out.Payments, Payment{ID: p.ID, Amount: MapMoney(p.Amount), Method: p.Method, PaidAt: p.PaidAt, Note: p.Note})
	}
	for _, h := range r.History {
		out.History = append(out.History, HistoryEntry{At: h.At, Action: h.Action, Detail: h.Detail})
	}
	return out
}

func MapReservations(rs []*reservation.Reservation) ReservationCollection {
	items := make([]Reservation, 0, len(rs))
	for _, r := range rs {
		items = append(items, MapReservation(r))
	}
	return ReservationCollection{Items: items}
}
