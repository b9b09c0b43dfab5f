package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"

	"staydesk/internal/app/commands"
	"staydesk/internal/app/dto"
	"staydesk/internal/app/handlers/maintenance"
	"staydesk/internal/domain/scheduling"
	"staydesk/internal/infra/storage/memory"
)

type recordingBus struct {
	got []maintenance.RegisterBlockCommand
	err error
}

func (b *recordingBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	c, ok := cmd.(maintenance.RegisterBlockCommand)
	if !ok {
		return nil, commands.ErrInvalidCommand
	}
	b.got = append(b.got, c)
	if b.err != nil {
		return nil, b.err
	}
	return dto.MaintenanceBlock{ID: c.BlockID}, nil
}

func newFeed(bus commands.Bus, loc *time.Location) *MaintenanceFeed {
	return &MaintenanceFeed{
		Bus:      bus,
		Inbox:    memory.NewInbox(),
		Location: loc,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func message(value string, offset int64) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{Topic: "maintenance.tickets.v1", Partition: 0, Offset: offset, Value: []byte(value)}
}

func TestFeedRegistersBlock(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	bus := &recordingBus{}
	feed := newFeed(bus, loc)

	err := feed.Handle(context.Background(), message(`{"event_id":"e1","ticket_id":"T-7","unit_id":"cabin-1","start":"2025-03-10","end":"2025-03-12","title":"boiler"}`, 1))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(bus.got) != 1 {
		t.Fatalf("expected one command, got %d", len(bus.got))
	}
	cmd := bus.got[0]
	if cmd.BlockID != "T-7" || cmd.UnitID != "cabin-1" || !cmd.BlocksAvailability {
		t.Fatalf("unexpected command %+v", cmd)
	}
	if cmd.Start.Location() != loc || cmd.Start.Day() != 10 || cmd.End.Day() != 12 {
		t.Fatalf("expected days parsed in property zone, got %v..%v", cmd.Start, cmd.End)
	}
}

func TestFeedSkipsRedelivery(t *testing.T) {
	bus := &recordingBus{}
	feed := newFeed(bus, time.UTC)
	msg := message(`{"ticket_id":"T-1","unit_id":"cabin-1","start":"2025-03-10","end":"2025-03-10"}`, 5)
	msg.Headers = []*sarama.RecordHeader{{Key: []byte("ce_id"), Value: []byte("evt-9")}}

	for i := 0; i < 2; i++ {
		if err := feed.Handle(context.Background(), msg); err != nil {
			t.Fatalf("handle %d: %v", i, err)
		}
	}
	if len(bus.got) != 1 {
		t.Fatalf("expected redelivery ignored, got %d dispatches", len(bus.got))
	}
}

func TestFeedAcknowledgesRejectedTickets(t *testing.T) {
	bus := &recordingBus{err: &scheduling.NotFoundError{Kind: "unit", ID: "ghost"}}
	feed := newFeed(bus, time.UTC)

	cases := []string{
		`not json`,
		`{"ticket_id":"T-2","unit_id":"cabin-1","start":"10/03/2025","end":"2025-03-12"}`,
		`{"ticket_id":"T-3","unit_id":"ghost","start":"2025-03-10","end":"2025-03-12"}`,
	}
	for i, raw := range cases {
		if err := feed.Handle(context.Background(), message(raw, int64(i))); err != nil {
			t.Fatalf("case %d: expected ack, got %v", i, err)
		}
	}
	if len(bus.got) != 1 {
		t.Fatalf("expected only the well-formed ticket dispatched, got %d", len(bus.got))
	}
}

func TestFeedRetriesInfrastructureFailures(t *testing.T) {
	boom := errors.New("store unavailable")
	bus := &recordingBus{err: boom}
	feed := newFeed(bus, time.UTC)
	msg := message(`{"event_id":"e2","ticket_id":"T-4","unit_id":"cabin-1","start":"2025-03-10","end":"2025-03-11","blocks_availability":false}`, 3)

	if err := feed.Handle(context.Background(), msg); !errors.Is(err, boom) {
		t.Fatalf("expected failure returned, got %v", err)
	}
	bus.err = nil
	if err := feed.Handle(context.Background(), msg); err != nil {
		t.Fatalf("expected redelivery to be processed, got %v", err)
	}
	if len(bus.got) != 2 || bus.got[1].BlocksAvailability {
		t.Fatalf("expected second attempt dispatched with blocks_availability=false, got %+v", bus.got)
	}
}
