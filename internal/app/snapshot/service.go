// Package snapshot persists the whole scheduling state as one document and restores it
// at startup. The engine never calls it; the surrounding application decides when to flush.
package snapshot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrNoSnapshot         = errors.New("snapshot: no snapshot stored")
	ErrCorruptSnapshot    = errors.New("snapshot: corrupt snapshot")
	ErrUnsupportedVersion = errors.New("snapshot: unsupported format version")
	ErrServiceMisconfig   = errors.New("snapshot: source and store required")
)

// Store is the swappable persistence backend.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Source exports and replaces the live state. Revision changes whenever a write commits,
// letting Flush skip unchanged state.
type Source interface {
	Export(ctx context.Context) (State, error)
	Import(ctx context.Context, state State) error
	Revision() uint64
}

type Service struct {
	Source Source
	Store  Store
	Codec  Codec
	Logger *slog.Logger
	Clock  func() time.Time

	mu    sync.Mutex
	saved uint64
	dirty bool
}

// Load restores the last snapshot. A missing snapshot is not an error: the state stays
// empty.
func (s *Service) Load(ctx context.Context) error {
	if s.Source == nil || s.Store == nil {
		return ErrServiceMisconfig
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.Store.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		s.logger().InfoContext(ctx, "no snapshot found, starting empty")
		s.saved = s.Source.Revision()
		s.dirty = false
		return nil
	}
	if err != nil {
		return err
	}
	state, err := s.Codec.Decode(data)
	if err != nil {
		return err
	}
	if err := s.Source.Import(ctx, state); err != nil {
		return err
	}
	s.saved = s.Source.Revision()
	s.dirty = false
	s.logger().InfoContext(ctx, "snapshot restored",
		"reservations", len(state.Reservations),
		"maintenance", len(state.Maintenance),
		"cleaning_blocks", len(state.Cleaning))
	return nil
}

// Flush writes the current state when it changed since the last save. It reports
// whether a write happened.
func (s *Service) Flush(ctx context.Context) (bool, error) {
	if s.Source == nil || s.Store == nil {
		return false, ErrServiceMisconfig
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rev := s.Source.Revision()
	if rev == s.saved && !s.dirty {
		return false, nil
	}
	state, err := s.Source.Export(ctx)
	if err != nil {
		return false, err
	}
	data, err := s.Codec.Encode(state, s.now())
	if err != nil {
		return false, err
	}
	if err := s.Store.Save(ctx, data); err != nil {
		s.dirty = true
		return false, err
	}
	s.saved = rev
	s.dirty = false
	s.logger().DebugContext(ctx, "snapshot flushed", "revision", rev, "bytes", len(data))
	return true, nil
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
