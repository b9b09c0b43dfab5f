package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakeStore struct {
	mu     sync.Mutex
	queue  []*EventDocument
	sent   []string
	failed map[string]time.Time
}

func (s *fakeStore) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, nil
	}
	doc := s.queue[0]
	s.queue = s.queue[1:]
	return doc, nil
}

func (s *fakeStore) MarkSent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, id)
	return nil
}

func (s *fakeStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed == nil {
		s.failed = map[string]time.Time{}
	}
	s.failed[id] = next
	return nil
}

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakeProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func testWorker(store Store, producer Producer) *Worker {
	return &Worker{
		Store:       store,
		Producer:    producer,
		TopicPrefix: "test.",
		ID:          "worker-1",
		Backoff:     []time.Duration{time.Second, time.Minute},
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestDrainPublishesCloudEvents(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{queue: []*EventDocument{
		{ID: "evt-1", Name: "reservation.relocated", Aggregate: "r1", Payload: []byte(`{"to_unit":"cabin-2"}`), OccurredAt: at},
		{ID: "evt-2", Name: "maintenance.block_registered", Aggregate: "m1", Payload: []byte(`{}`), OccurredAt: at},
	}}
	producer := &fakeProducer{}

	if err := testWorker(store, producer).Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(producer.msgs) != 2 || len(store.sent) != 2 {
		t.Fatalf("expected two published and sent, got %d/%d", len(producer.msgs), len(store.sent))
	}
	first := producer.msgs[0]
	if first.topic != "test.reservation.events.v1" || first.key != "r1" {
		t.Fatalf("expected reservation topic keyed by aggregate, got %s %s", first.topic, first.key)
	}
	if producer.msgs[1].topic != "test.maintenance.events.v1" {
		t.Fatalf("expected maintenance topic, got %s", producer.msgs[1].topic)
	}
	if first.headers["ce_id"] != "evt-1" || first.headers["content-type"] != "application/cloudevents+json" {
		t.Fatalf("expected cloudevents headers, got %v", first.headers)
	}
	var evt struct {
		ID      string         `json:"id"`
		Type    string         `json:"type"`
		Source  string         `json:"source"`
		Subject string         `json:"subject"`
		Data    map[string]any `json:"data"`
	}
	if err := json.Unmarshal(first.payload, &evt); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if evt.Type != "reservation.relocated.v1" || evt.Source != "app://staydesk" || evt.Subject != "r1" {
		t.Fatalf("unexpected envelope %+v", evt)
	}
	if evt.Data["to_unit"] != "cabin-2" {
		t.Fatalf("expected payload carried as data, got %v", evt.Data)
	}
}

func TestPublishFailureSchedulesRetry(t *testing.T) {
	store := &fakeStore{queue: []*EventDocument{
		{ID: "evt-1", Name: "reservation.booked", Aggregate: "r1", Payload: []byte(`{}`), Attempts: 1},
	}}
	producer := &fakeProducer{err: errors.New("broker down")}

	before := time.Now()
	if err := testWorker(store, producer).Drain(context.Background()); err != nil {
		t.Fatalf("expected failures to be recorded, not returned: %v", err)
	}
	next, ok := store.failed["evt-1"]
	if !ok {
		t.Fatalf("expected evt-1 marked failed")
	}
	if next.Before(before.Add(time.Minute)) {
		t.Fatalf("expected second backoff step, got retry at %v", next)
	}
	if len(store.sent) != 0 {
		t.Fatalf("expected nothing sent")
	}
}

func TestUnreadablePayloadIsMarkedFailed(t *testing.T) {
	store := &fakeStore{queue: []*EventDocument{{ID: "evt-bad", Name: "reservation.booked", Payload: []byte("not json")}}}
	producer := &fakeProducer{}
	if err := testWorker(store, producer).Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if _, ok := store.failed["evt-bad"]; !ok || len(producer.msgs) != 0 {
		t.Fatalf("expected unreadable record failed and unpublished")
	}
}

func TestRunRequiresDependencies(t *testing.T) {
	if err := (&Worker{}).Run(context.Background()); !errors.Is(err, ErrWorkerNotConfigured) {
		t.Fatalf("expected ErrWorkerNotConfigured, got %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	wake := make(chan struct{}, 1)
	store := &fakeStore{queue: []*EventDocument{{ID: "evt-1", Name: "reservation.booked", Aggregate: "r1", Payload: []byte(`{}`)}}}
	producer := &fakeProducer{}
	w := testWorker(store, producer)
	w.Interval = time.Hour
	w.Wake = wake

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	wake <- struct{}{}

	deadline := time.After(2 * time.Second)
	for {
		store.mu.Lock()
		n := len(store.sent)
		store.mu.Unlock()
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected wake to trigger a drain")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
