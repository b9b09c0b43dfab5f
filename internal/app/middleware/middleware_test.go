package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"staydesk/internal/app/commands"
	"staydesk/internal/app/uow"
	"staydesk/internal/domain/housekeeping"
	"staydesk/internal/domain/inventory"
	"staydesk/internal/domain/maintenance"
	"staydesk/internal/domain/reservation"
	"staydesk/internal/domain/scheduling"
)

type result struct {
	ID string `json:"id"`
}

type bookCmd struct {
	GuestName string `validate:"required"`
	UnitID    string `validate:"required"`
	IdemKey      string
}

func (c bookCmd) Key() string            { return "test.book" }
func (c bookCmd) IdempotencyKey() string { return c.IdemKey }
func (c bookCmd) ResultPrototype() any   { return &result{} }

type memIdempotency struct {
	mu   sync.Mutex
	recs map[string]IdempotencyRecord
}

func (m *memIdempotency) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[key]
	return rec, ok, nil
}

func (m *memIdempotency) Save(ctx context.Context, rec IdempotencyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recs == nil {
		m.recs = map[string]IdempotencyRecord{}
	}
	m.recs[rec.Key] = rec
	return nil
}

type fakeUnit struct {
	committed  bool
	rolledBack bool
}

func (u *fakeUnit) Inventory() inventory.Registry          { return nil }
func (u *fakeUnit) Reservations() reservation.Repository   { return nil }
func (u *fakeUnit) Maintenance() maintenance.Repository    { return nil }
func (u *fakeUnit) Cleaning() housekeeping.BlockRepository { return nil }

func (u *fakeUnit) Commit(ctx context.Context) error {
	u.committed = true
	return nil
}

func (u *fakeUnit) Rollback(ctx context.Context) error {
	u.rolledBack = true
	return nil
}

type fakeFactory struct {
	units []*fakeUnit
}

func (f *fakeFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	u := &fakeUnit{}
	f.units = append(f.units, u)
	return u, nil
}

func busWith(handler func(ctx context.Context, cmd bookCmd) (*result, error)) *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[bookCmd, *result](bus, "test.book", commands.HandlerFunc[bookCmd, *result](handler))
	return bus
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	calls := 0
	base := busWith(func(ctx context.Context, cmd bookCmd) (*result, error) {
		calls++
		return &result{ID: fmt.Sprintf("res-%d", calls)}, nil
	})
	bus := ChainCommands(base, Idempotency(&memIdempotency{}, nil))
	cmd := bookCmd{GuestName: "Ana", UnitID: "cabin-1", IdemKey: "k1"}

	first, err := commands.Dispatch[bookCmd, *result](context.Background(), bus, cmd)
	if err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	second, err := commands.Dispatch[bookCmd, *result](context.Background(), bus, cmd)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if calls != 1 || first.ID != second.ID {
		t.Fatalf("expected one handler call and identical results, got %d calls, %q vs %q", calls, first.ID, second.ID)
	}
	cmd.IdemKey = ""
	if _, err := commands.Dispatch[bookCmd, *result](context.Background(), bus, cmd); err != nil || calls != 2 {
		t.Fatalf("expected keyless command to run, got %d calls, %v", calls, err)
	}
}

func TestIdempotencyDoesNotRecordFailures(t *testing.T) {
	fail := true
	base := busWith(func(ctx context.Context, cmd bookCmd) (*result, error) {
		if fail {
			return nil, &scheduling.ConflictError{}
		}
		return &result{ID: "r1"}, nil
	})
	bus := ChainCommands(base, Idempotency(&memIdempotency{}, nil))
	cmd := bookCmd{GuestName: "Ana", UnitID: "cabin-1", IdemKey: "k1"}
	if _, err := commands.Dispatch[bookCmd, *result](context.Background(), bus, cmd); !errors.Is(err, scheduling.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	fail = false
	got, err := commands.Dispatch[bookCmd, *result](context.Background(), bus, cmd)
	if err != nil || got.ID != "r1" {
		t.Fatalf("expected retry to succeed, got %+v %v", got, err)
	}
}

func TestValidationReportsSnakeCaseField(t *testing.T) {
	base := busWith(func(ctx context.Context, cmd bookCmd) (*result, error) {
		t.Fatalf("handler must not run for invalid command")
		return nil, nil
	})
	bus := ChainCommands(base, Validation(NewStructValidator()))
	_, err := bus.Dispatch(context.Background(), bookCmd{GuestName: "Ana"})
	var verr *scheduling.ValidationError
	if !errors.As(err, &verr) || verr.Field != "unit_id" {
		t.Fatalf("expected validation error on unit_id, got %v", err)
	}
}

func TestTransactionCommitsOnlyOnSuccess(t *testing.T) {
	factory := &fakeFactory{}
	fail := false
	base := busWith(func(ctx context.Context, cmd bookCmd) (*result, error) {
		if _, ok := uow.FromContext(ctx); !ok {
			t.Fatalf("expected unit bound to context")
		}
		if fail {
			return nil, errors.New("boom")
		}
		return &result{ID: "r1"}, nil
	})
	bus := ChainCommands(base, Transaction(factory, nil))

	if _, err := bus.Dispatch(context.Background(), bookCmd{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	fail = true
	if _, err := bus.Dispatch(context.Background(), bookCmd{}); err == nil {
		t.Fatalf("expected failure")
	}
	if len(factory.units) != 2 {
		t.Fatalf("expected two units, got %d", len(factory.units))
	}
	if !factory.units[0].committed || factory.units[0].rolledBack {
		t.Fatalf("expected first unit committed, got %+v", factory.units[0])
	}
	if factory.units[1].committed || !factory.units[1].rolledBack {
		t.Fatalf("expected second unit rolled back, got %+v", factory.units[1])
	}
}

func TestChainRunsOuterMiddlewareAfterCommit(t *testing.T) {
	var order []string
	factory := &fakeFactory{}
	base := busWith(func(ctx context.Context, cmd bookCmd) (*result, error) {
		order = append(order, "handle")
		return &result{}, nil
	})
	trace := func(name string) CommandMiddleware {
		return func(next commands.Bus) commands.Bus {
			return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
				res, err := next.Dispatch(ctx, cmd)
				order = append(order, name)
				return res, err
			})
		}
	}
	bus := ChainCommands(base, trace("outer"), nil, Transaction(factory, nil), trace("inner"))
	if _, err := bus.Dispatch(context.Background(), bookCmd{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got := strings.Join(order, ","); got != "handle,inner,outer" {
		t.Fatalf("expected handle,inner,outer, got %s", got)
	}
	if !factory.units[0].committed {
		t.Fatalf("expected commit before outer middleware returned")
	}
}
