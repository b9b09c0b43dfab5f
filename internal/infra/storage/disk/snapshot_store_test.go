package disk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"staydesk/internal/app/snapshot"
)

func TestSnapshotStoreEmpty(t *testing.T) {
	store, err := NewSnapshotStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Load(context.Background()); !errors.Is(err, snapshot.ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestSnapshotStoreKeepsPreviousVersion(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewSnapshotStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Save(ctx, []byte(`{"version":1,"n":1}`)); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := store.Save(ctx, []byte(`{"version":1,"n":2}`)); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `{"version":1,"n":2}` {
		t.Fatalf("expected latest snapshot, got %s", got)
	}
	prev, err := os.ReadFile(filepath.Join(dir, backupKey))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(prev) != `{"version":1,"n":1}` {
		t.Fatalf("expected previous snapshot as backup, got %s", prev)
	}
	if store.Path() != filepath.Join(dir, currentKey) {
		t.Fatalf("expected path under %s, got %s", dir, store.Path())
	}

	reopened, err := NewSnapshotStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got, err := reopened.Load(ctx); err != nil || string(got) != `{"version":1,"n":2}` {
		t.Fatalf("expected snapshot to survive reopen, got %s %v", got, err)
	}
}

func TestSnapshotStoreRequiresPath(t *testing.T) {
	if _, err := NewSnapshotStore("  "); err == nil {
		t.Fatalf("expected error for blank path")
	}
}
