package snapshot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeSource struct {
	state    State
	revision uint64
	imported bool
}

func (f *fakeSource) Export(ctx context.Context) (State, error) { return f.state, nil }

func (f *fakeSource) Import(ctx context.Context, state State) error {
	f.state = state
	f.imported = true
	f.revision++
	return nil
}

func (f *fakeSource) Revision() uint64 { return f.revision }

type fakeStore struct {
	data   []byte
	saves  int
	failOn int
}

func (f *fakeStore) Load(ctx context.Context) ([]byte, error) {
	if f.data == nil {
		return nil, ErrNoSnapshot
	}
	return f.data, nil
}

func (f *fakeStore) Save(ctx context.Context, data []byte) error {
	f.saves++
	if f.failOn == f.saves {
		return errors.New("disk full")
	}
	f.data = append([]byte(nil), data...)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadWithoutSnapshotStartsEmpty(t *testing.T) {
	src := &fakeSource{}
	svc := &Service{Source: src, Store: &fakeStore{}, Codec: Codec{Location: time.UTC}, Logger: quietLogger()}
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if src.imported {
		t.Fatalf("expected nothing imported")
	}
	changed, err := svc.Flush(context.Background())
	if err != nil || changed {
		t.Fatalf("expected unchanged state to skip the write, got %v %v", changed, err)
	}
}

func TestFlushThenLoadRestoresState(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	src := &fakeSource{state: sampleState(t, time.UTC), revision: 4}
	svc := &Service{Source: src, Store: store, Codec: Codec{Location: time.UTC}, Logger: quietLogger()}

	changed, err := svc.Flush(ctx)
	if err != nil || !changed {
		t.Fatalf("expected a write, got %v %v", changed, err)
	}
	if changed, _ := svc.Flush(ctx); changed {
		t.Fatalf("expected second flush at same revision to be skipped")
	}

	restored := &fakeSource{}
	loader := &Service{Source: restored, Store: store, Codec: Codec{Location: time.UTC}, Logger: quietLogger()}
	if err := loader.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(restored.state.Reservations) != 1 || restored.state.Reservations[0].ID != "r1" {
		t.Fatalf("expected r1 restored, got %+v", restored.state.Reservations)
	}
}

func TestFailedFlushIsRetried(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{failOn: 1}
	src := &fakeSource{state: sampleState(t, time.UTC), revision: 1}
	svc := &Service{Source: src, Store: store, Codec: Codec{Location: time.UTC}, Logger: quietLogger()}

	if _, err := svc.Flush(ctx); err == nil {
		t.Fatalf("expected first flush to fail")
	}
	changed, err := svc.Flush(ctx)
	if err != nil || !changed {
		t.Fatalf("expected retry to write, got %v %v", changed, err)
	}
}

func TestMisconfiguredService(t *testing.T) {
	if err := (&Service{}).Load(context.Background()); !errors.Is(err, ErrServiceMisconfig) {
		t.Fatalf("expected ErrServiceMisconfig, got %v", err)
	}
}
