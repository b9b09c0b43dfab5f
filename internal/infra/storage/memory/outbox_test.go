package memory

import (
	"context"
	"testing"
	"time"

	appoutbox "staydesk/internal/app/outbox"
)

func TestOutboxClaimHonoursRetrySchedule(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	box := NewOutbox()
	box.now = func() time.Time { return now }

	_ = box.Add(ctx, appoutbox.EventRecord{ID: "e1", Name: "reservation.booked"})
	_ = box.Add(ctx, appoutbox.EventRecord{ID: "e1", Name: "reservation.booked"})
	if len(box.Pending()) != 1 {
		t.Fatalf("expected duplicate id ignored, got %d", len(box.Pending()))
	}

	doc, err := box.Claim(ctx, "w1")
	if err != nil || doc == nil {
		t.Fatalf("expected claim, got %v %v", doc, err)
	}
	if again, _ := box.Claim(ctx, "w2"); again != nil {
		t.Fatalf("expected claimed record to be skipped")
	}
	_ = box.MarkFailed(ctx, "e1", now.Add(time.Minute), "broker down")
	if retry, _ := box.Claim(ctx, "w1"); retry != nil {
		t.Fatalf("expected record hidden until next attempt")
	}
	now = now.Add(2 * time.Minute)
	retry, _ := box.Claim(ctx, "w1")
	if retry == nil || retry.Attempts != 1 {
		t.Fatalf("expected retry with one attempt, got %+v", retry)
	}
	_ = box.MarkSent(ctx, "e1")
	if len(box.Pending()) != 0 {
		t.Fatalf("expected nothing pending after send")
	}
}

func TestOutboxFlushSignalsWithoutBlocking(t *testing.T) {
	box := NewOutbox()
	_ = box.Flush(context.Background())
	_ = box.Flush(context.Background())
	select {
	case <-box.Notify():
	default:
		t.Fatalf("expected a wake-up signal")
	}
}

func TestOutboxCompactsSentRecords(t *testing.T) {
	ctx := context.Background()
	box := NewOutbox()
	box.Retain = 1
	for _, id := range []string{"a", "b", "c"} {
		_ = box.Add(ctx, appoutbox.EventRecord{ID: id})
		doc, _ := box.Claim(ctx, "w")
		_ = box.MarkSent(ctx, doc.ID)
	}
	if len(box.docs) != 1 {
		t.Fatalf("expected one retained record, got %d", len(box.docs))
	}
}
