package snapshot

import (
	"errors"
	"strings"
	"testing"
	"time"

	"staydesk/internal/domain/housekeeping"
	"staydesk/internal/domain/maintenance"
	"staydesk/internal/domain/reservation"
	"staydesk/internal/domain/shared/daterange"
	"staydesk/internal/domain/shared/money"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s unavailable: %v", name, err)
	}
	return loc
}

func sampleState(t *testing.T, loc *time.Location) State {
	t.Helper()
	r, err := reservation.New(reservation.CreateParams{
		ID:        "r1",
		GuestName: "Ana Perez",
		Contact:   reservation.Contact{Phone: "+54 11 5555", Email: "ana@example.com"},
		Unit:      "cabin-1",
		CheckIn:   time.Date(2025, 3, 10, 12, 0, 0, 0, loc),
		CheckOut:  time.Date(2025, 3, 17, 12, 0, 0, 0, loc),
		Total:     money.Must(210000, "ARS"),
		CreatedAt: time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("reservation: %v", err)
	}
	r.Version = 3
	block, err := maintenance.NewBlock("m1", "cabin-2", time.Date(2025, 3, 11, 0, 0, 0, 0, loc), time.Date(2025, 3, 12, 0, 0, 0, 0, loc), true, "roof", time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	clean, err := housekeeping.NewBlock("c1", "cabin-2", daterange.DateRange{
		CheckIn:  time.Date(2025, 3, 20, 12, 0, 0, 0, loc),
		CheckOut: time.Date(2025, 3, 21, 12, 0, 0, 0, loc),
	}, "deep clean", time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("cleaning block: %v", err)
	}
	return State{
		Reservations: []*reservation.Reservation{r},
		Maintenance:  []maintenance.Block{block},
		Cleaning:     []housekeeping.Block{clean},
	}
}

func TestCodecRoundTrip(t *testing.T) {
	loc := time.UTC
	codec := Codec{Location: loc}
	in := sampleState(t, loc)

	data, err := codec.Encode(in, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(data), `"check_in": "2025-03-10T12:00:00Z"`) {
		t.Fatalf("expected RFC 3339 dates in output, got %s", data)
	}
	out, err := codec.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Reservations) != 1 || len(out.Maintenance) != 1 || len(out.Cleaning) != 1 {
		t.Fatalf("expected one of each record, got %+v", out)
	}
	got, want := out.Reservations[0], in.Reservations[0]
	if !got.CheckIn.Equal(want.CheckIn) || !got.CheckOut.Equal(want.CheckOut) {
		t.Fatalf("expected bounds %v..%v, got %v..%v", want.CheckIn, want.CheckOut, got.CheckIn, got.CheckOut)
	}
	if got.Version != 3 || got.Contact.Email != "ana@example.com" || got.Total != want.Total {
		t.Fatalf("expected scalar fields preserved, got %+v", got)
	}
	if len(got.Cleaning) != len(want.Cleaning) {
		t.Fatalf("expected cleaning rebuilt with %d tasks, got %d", len(want.Cleaning), len(got.Cleaning))
	}
	if len(got.History) != 1 || got.History[0].Action != "booked" {
		t.Fatalf("expected history preserved, got %+v", got.History)
	}
	if out.Maintenance[0].Title != "roof" || !out.Maintenance[0].Blocking() {
		t.Fatalf("expected maintenance block preserved, got %+v", out.Maintenance[0])
	}
	if out.Cleaning[0].Note != "deep clean" {
		t.Fatalf("expected cleaning block preserved, got %+v", out.Cleaning[0])
	}
}

// A snapshot written in winter (UTC-3) and read in a zone observing summer time must
// keep every date on the same calendar day.
func TestDecodeRepinsDatesToConfiguredZone(t *testing.T) {
	writer := time.FixedZone("UTC-3", -3*3600)
	reader := mustLocation(t, "Europe/Madrid")
	data, err := Codec{Location: writer}.Encode(sampleState(t, writer), time.Now())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Codec{Location: reader}.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r := out.Reservations[0]
	if r.CheckIn.Location() != reader {
		t.Fatalf("expected dates in reader zone, got %v", r.CheckIn.Location())
	}
	if r.CheckIn.Day() != 10 || r.CheckIn.Hour() != daterange.NoonHour {
		t.Fatalf("expected noon on the 10th, got %v", r.CheckIn)
	}
	if r.CheckOut.Day() != 17 {
		t.Fatalf("expected check-out on the 17th, got %v", r.CheckOut)
	}
	if out.Maintenance[0].Start.Day() != 11 || out.Maintenance[0].End.Day() != 12 {
		t.Fatalf("expected block days kept, got %v..%v", out.Maintenance[0].Start, out.Maintenance[0].End)
	}
}

func TestDecodeRejectsBadDocuments(t *testing.T) {
	codec := Codec{Location: time.UTC}
	cases := map[string]struct {
		doc  string
		want error
	}{
		"not json":       {doc: `{"version":`, want: ErrCorruptSnapshot},
		"future version": {doc: `{"version": 99}`, want: ErrUnsupportedVersion},
		"bad date": {
			doc:  `{"version":1,"reservations":[{"id":"r1","guest_name":"A","status":"active","segments":[{"unit":"u","start":"10/03/2025","end":"2025-03-12T12:00:00Z"}]}]}`,
			want: ErrCorruptSnapshot,
		},
		"no segments": {
			doc:  `{"version":1,"reservations":[{"id":"r1","guest_name":"A","status":"active","segments":[]}]}`,
			want: ErrCorruptSnapshot,
		},
		"unknown status": {
			doc:  `{"version":1,"reservations":[{"id":"r1","guest_name":"A","status":"lost","segments":[{"unit":"u","start":"2025-03-10T12:00:00Z","end":"2025-03-12T12:00:00Z"}]}]}`,
			want: ErrCorruptSnapshot,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := codec.Decode([]byte(tc.doc)); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
