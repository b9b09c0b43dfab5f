package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"

	"staydesk/internal/app/dto"
	domaininventory "staydesk/internal/domain/inventory"
	ginserver "staydesk/internal/infra/http/gin"
	"staydesk/internal/infra/ics"
	"staydesk/internal/infra/obs"
	"staydesk/internal/infra/storage/memory"
)

type testServer struct {
	router *gin.Engine
	outbox *memory.Outbox
	store  *memory.Store
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	catalogue, err := domaininventory.NewCatalogue([]domaininventory.Unit{
		{ID: "cabin-1", Name: "Cabin 1", Type: "cabin", Complex: "lake"},
		{ID: "cabin-2", Name: "Cabin 2", Type: "cabin", Complex: "lake"},
	})
	if err != nil {
		t.Fatalf("catalogue: %v", err)
	}
	store := memory.NewStore(catalogue)
	box := memory.NewOutbox()
	seq := 0
	app := buildApplication(dependencies{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Location:    time.UTC,
		Factory:     memory.Factory{Store: store, Outbox: box},
		Outbox:      memory.StagedOutbox{Sink: box},
		Idempotency: memory.NewIdempotencyStore(time.Hour),
		Exporter:    ics.Exporter{},
		Clock:       func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) },
		NewID: func() string {
			seq++
			return fmt.Sprintf("res-%d", seq)
		},
	})
	router := ginserver.NewRouter(obs.Middleware{}, obs.HealthHandlers{}, app.handlers)
	return testServer{router: router, outbox: box, store: store}
}

func (s testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s testServer) eventNames() []string {
	var names []string
	for _, doc := range s.outbox.Pending() {
		names = append(names, doc.Name)
	}
	return names
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

type errorResponse struct {
	Error    string        `json:"error"`
	Kind     string        `json:"kind"`
	Field    string        `json:"field"`
	Conflict *dto.Conflict `json:"conflict"`
}

func booking(id, unit, checkIn, checkOut string) map[string]any {
	return map[string]any{
		"id":           id,
		"guest_name":   "Guest " + id,
		"unit_id":      unit,
		"check_in":     checkIn,
		"check_out":    checkOut,
		"total_amount": 90000,
		"currency":     "usd",
	}
}

func TestBookAndRelocate(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/v1/reservations", booking("r1", "cabin-1", "2025-03-10", "2025-03-13"), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	booked := decode[dto.Reservation](t, rec)
	if booked.ID != "r1" || booked.Nights != 3 || booked.Total.Currency != "USD" {
		t.Fatalf("unexpected reservation %+v", booked)
	}
	if rec := srv.do(t, http.MethodPost, "/api/v1/reservations", booking("r2", "cabin-2", "2025-03-10", "2025-03-12"), nil); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for r2, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodPost, "/api/v1/reservations/r1/relocate", map[string]any{"target_unit": "cabin-2", "target_date": "2025-03-10"}, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	conflict := decode[errorResponse](t, rec)
	if conflict.Kind != "conflict" || conflict.Conflict == nil || conflict.Conflict.Source != "reservation" {
		t.Fatalf("expected reservation conflict body, got %+v", conflict)
	}

	rec = srv.do(t, http.MethodPost, "/api/v1/reservations/r1/relocate", map[string]any{"target_unit": "cabin-2", "target_date": "2025-03-12"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected back-to-back drop accepted, got %d: %s", rec.Code, rec.Body.String())
	}
	moved := decode[dto.Reservation](t, rec)
	if len(moved.Segments) != 1 || moved.Segments[0].Unit != "cabin-2" || moved.CheckIn.Day() != 12 || moved.CheckOut.Day() != 15 {
		t.Fatalf("unexpected relocated reservation %+v", moved)
	}

	names := srv.eventNames()
	want := []string{"reservation.booked", "reservation.booked", "reservation.relocated"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("expected events %v, got %v", want, names)
	}
}

func TestPreviewDoesNotCommit(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodPost, "/api/v1/reservations", booking("r1", "cabin-1", "2025-03-10", "2025-03-13"), nil)
	before := srv.store.Revision()

	rec := srv.do(t, http.MethodPost, "/api/v1/reservations/r1/relocate/preview", map[string]any{"target_unit": "cabin-2", "target_date": "2025-03-11"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	ghost := decode[dto.Ghost](t, rec)
	if ghost.DeltaDays != 1 {
		t.Fatalf("expected a one-day shift, got %+v", ghost)
	}
	if srv.store.Revision() != before {
		t.Fatalf("expected preview to leave the store untouched")
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/reservations/r1", nil, nil)
	if got := decode[dto.Reservation](t, rec); got.Segments[0].Unit != "cabin-1" {
		t.Fatalf("expected r1 still on cabin-1, got %+v", got.Segments)
	}
}

func TestIdempotentBookingReplays(t *testing.T) {
	srv := newTestServer(t)
	body := booking("", "cabin-1", "2025-04-01", "2025-04-04")
	headers := map[string]string{"Idempotency-Key": "form-42"}

	first := srv.do(t, http.MethodPost, "/api/v1/reservations", body, headers)
	second := srv.do(t, http.MethodPost, "/api/v1/reservations", body, headers)
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected 201 twice, got %d and %d", first.Code, second.Code)
	}
	a, b := decode[dto.Reservation](t, first), decode[dto.Reservation](t, second)
	if a.ID == "" || a.ID != b.ID {
		t.Fatalf("expected replayed id %q, got %q", a.ID, b.ID)
	}
	if n := len(srv.eventNames()); n != 1 {
		t.Fatalf("expected a single booking event, got %d", n)
	}
	list := decode[dto.ReservationCollection](t, srv.do(t, http.MethodGet, "/api/v1/reservations", nil, nil))
	if len(list.Items) != 1 {
		t.Fatalf("expected one stored reservation, got %d", len(list.Items))
	}
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		field  string
	}{
		{name: "bad date", method: http.MethodPost, path: "/api/v1/reservations", body: booking("r1", "cabin-1", "10/03/2025", "2025-03-12"), status: http.StatusBadRequest, field: "check_in"},
		{name: "inverted range", method: http.MethodPost, path: "/api/v1/reservations", body: booking("r1", "cabin-1", "2025-03-12", "2025-03-10"), status: http.StatusBadRequest},
		{name: "unknown unit", method: http.MethodPost, path: "/api/v1/reservations", body: booking("r1", "loft-9", "2025-03-10", "2025-03-12"), status: http.StatusNotFound},
		{name: "missing reservation", method: http.MethodGet, path: "/api/v1/reservations/nope", status: http.StatusNotFound},
		{name: "unconfirmed merge", method: http.MethodPost, path: "/api/v1/reservations/nope/merge", body: map[string]any{"absorbed_id": "other"}, status: http.StatusBadRequest, field: "confirmed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := srv.do(t, tc.method, tc.path, tc.body, nil)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if tc.field != "" {
				if got := decode[errorResponse](t, rec); got.Field != tc.field {
					t.Fatalf("expected field %q, got %+v", tc.field, got)
				}
			}
		})
	}
	if n := len(srv.eventNames()); n != 0 {
		t.Fatalf("expected failed commands to stage no events, got %d", n)
	}
}

func TestMaintenanceBlocksBooking(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodPost, "/api/v1/maintenance", map[string]any{
		"id": "T-1", "unit_id": "cabin-1", "start": "2025-03-20", "end": "2025-03-21", "title": "boiler",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodPost, "/api/v1/reservations", booking("r1", "cabin-1", "2025-03-21", "2025-03-23"), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[errorResponse](t, rec); got.Conflict == nil || got.Conflict.Source != "maintenance" {
		t.Fatalf("expected maintenance conflict, got %+v", got)
	}

	if rec := srv.do(t, http.MethodPost, "/api/v1/maintenance/T-1/state", map[string]any{"state": "completed"}, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := srv.do(t, http.MethodPost, "/api/v1/reservations", booking("r1", "cabin-1", "2025-03-21", "2025-03-23"), nil); rec.Code != http.StatusCreated {
		t.Fatalf("expected booking after completion, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUnitCalendarFeed(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodPost, "/api/v1/reservations", booking("r1", "cabin-1", "2025-03-10", "2025-03-13"), nil)

	rec := srv.do(t, http.MethodGet, "/api/v1/units/cabin-1/calendar.ics", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Fatalf("expected text/calendar, got %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "stay-r1-0") {
		t.Fatalf("expected stay event in feed, got %s", body)
	}

	if rec := srv.do(t, http.MethodGet, "/api/v1/units/loft-9/calendar.ics", nil, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown unit, got %d", rec.Code)
	}
}
