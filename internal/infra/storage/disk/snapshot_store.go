package disk

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/peterbourgon/diskv/v3"

	"staydesk/internal/app/snapshot"
)

const (
	currentKey = "calendar.json"
	backupKey  = "calendar.prev.json"
)

// SnapshotStore writes the snapshot under a base directory. The previous snapshot is kept
// beside the current one so a bad write can be recovered by hand.
type SnapshotStore struct {
	d        *diskv.Diskv
	basePath string
}

func NewSnapshotStore(basePath string) (*SnapshotStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("disk: base path is required")
	}
	return &SnapshotStore{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		TempDir:      filepath.Join(basePath, ".tmp"),
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 4 * 1024 * 1024,
	}), basePath: basePath}, nil
}

func (s *SnapshotStore) Load(ctx context.Context) ([]byte, error) {
	if !s.d.Has(currentKey) {
		return nil, snapshot.ErrNoSnapshot
	}
	return s.d.Read(currentKey)
}

func (s *SnapshotStore) Save(ctx context.Context, data []byte) error {
	if s.d.Has(currentKey) {
		prev, err := s.d.Read(currentKey)
		if err != nil {
			return err
		}
		if err := s.d.Write(backupKey, prev); err != nil {
			return err
		}
	}
	return s.d.Write(currentKey, data)
}

// Path is the file holding the current snapshot.
func (s *SnapshotStore) Path() string {
	return filepath.Join(s.basePath, currentKey)
}

var _ snapshot.Store = (*SnapshotStore)(nil)
