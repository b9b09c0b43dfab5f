package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"staydesk/internal/app/middleware"
)

// Runs against a real server; set REDIS_TEST_ADDR to enable.
func testClient(t *testing.T) *IdempotencyStore {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client, err := New(context.Background(), Options{Addr: addr})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewIdempotencyStore(client, time.Minute)
}

func TestIdempotencyStoreRoundTrip(t *testing.T) {
	store := testClient(t)
	ctx := context.Background()
	key := uuid.NewString()

	if _, ok, err := store.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	rec := middleware.IdempotencyRecord{Key: key, Command: "reservation.book", Payload: []byte(`{"id":"r1"}`), OccurredAt: time.Now().UTC().Truncate(time.Second)}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Command != rec.Command || string(got.Payload) != string(rec.Payload) || !got.OccurredAt.Equal(rec.OccurredAt) {
		t.Fatalf("expected %+v, got %+v", rec, got)
	}
}

func TestInboxSeenAndForget(t *testing.T) {
	store := testClient(t)
	inbox := NewInbox(store.client, "test-"+uuid.NewString(), time.Minute)
	ctx := context.Background()

	if seen, err := inbox.Seen(ctx, "evt-1"); err != nil || seen {
		t.Fatalf("expected first delivery unseen, got %v %v", seen, err)
	}
	if seen, _ := inbox.Seen(ctx, "evt-1"); !seen {
		t.Fatalf("expected redelivery to be seen")
	}
	if err := inbox.Forget(ctx, "evt-1"); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if seen, _ := inbox.Seen(ctx, "evt-1"); seen {
		t.Fatalf("expected forgotten event to be unseen")
	}
}
