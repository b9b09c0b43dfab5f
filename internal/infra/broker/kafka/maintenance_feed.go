package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"staydesk/internal/app/commands"
	"staydesk/internal/app/dto"
	"staydesk/internal/app/handlers/maintenance"
	"staydesk/internal/domain/scheduling"
)

// Inbox deduplicates redelivered messages.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// TicketMessage is a maintenance ticket as published by the ticketing system. Dates are
// calendar days ("2006-01-02") in the property's timezone; End is the last affected day.
type TicketMessage struct {
	EventID            string `json:"event_id"`
	TicketID           string `json:"ticket_id"`
	UnitID             string `json:"unit_id"`
	Start              string `json:"start"`
	End                string `json:"end"`
	BlocksAvailability *bool  `json:"blocks_availability"`
	State              string `json:"state"`
	Title              string `json:"title"`
}

// MaintenanceFeed turns ticket messages into maintenance.register commands.
// Messages the calendar rejects are logged and acknowledged; infrastructure failures are
// returned so the message is delivered again.
type MaintenanceFeed struct {
	Bus      commands.Bus
	Inbox    Inbox
	Location *time.Location
	Logger   *slog.Logger
}

func (f *MaintenanceFeed) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var ticket TicketMessage
	if err := json.Unmarshal(msg.Value, &ticket); err != nil {
		logger.WarnContext(ctx, "maintenance message undecodable", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		return nil
	}
	eventID := messageID(msg, ticket)
	if f.Inbox != nil {
		seen, err := f.Inbox.Seen(ctx, eventID)
		if err != nil {
			return err
		}
		if seen {
			logger.DebugContext(ctx, "maintenance message already handled", "event_id", eventID)
			return nil
		}
	}

	cmd, err := f.command(ticket)
	if err == nil {
		_, err = commands.Dispatch[maintenance.RegisterBlockCommand, dto.MaintenanceBlock](ctx, f.Bus, cmd)
	}
	switch {
	case err == nil:
		logger.InfoContext(ctx, "maintenance block synced", "ticket", ticket.TicketID, "unit", ticket.UnitID)
		return nil
	case errors.Is(err, scheduling.ErrValidation), errors.Is(err, scheduling.ErrNotFound):
		logger.WarnContext(ctx, "maintenance message rejected", "event_id", eventID, "ticket", ticket.TicketID, "error", err)
		return nil
	default:
		if f.Inbox != nil {
			if ferr := f.Inbox.Forget(ctx, eventID); ferr != nil {
				logger.ErrorContext(ctx, "inbox forget failed", "event_id", eventID, "error", ferr)
			}
		}
		return err
	}
}

func (f *MaintenanceFeed) command(t TicketMessage) (maintenance.RegisterBlockCommand, error) {
	if strings.TrimSpace(t.TicketID) == "" {
		return maintenance.RegisterBlockCommand{}, &scheduling.ValidationError{Field: "ticket_id", Reason: "required"}
	}
	start, err := parseDay(t.Start, f.Location)
	if err != nil {
		return maintenance.RegisterBlockCommand{}, &scheduling.ValidationError{Field: "start", Reason: err.Error()}
	}
	end, err := parseDay(t.End, f.Location)
	if err != nil {
		return maintenance.RegisterBlockCommand{}, &scheduling.ValidationError{Field: "end", Reason: err.Error()}
	}
	blocks := true
	if t.BlocksAvailability != nil {
		blocks = *t.BlocksAvailability
	}
	return maintenance.RegisterBlockCommand{
		BlockID:            t.TicketID,
		UnitID:             t.UnitID,
		Start:              start,
		End:                end,
		BlocksAvailability: blocks,
		State:              t.State,
		Title:              t.Title,
	}, nil
}

func parseDay(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return t.In(loc), nil
}

// messageID prefers the CloudEvents id header, then the payload id, then the log position.
func messageID(msg *sarama.ConsumerMessage, t TicketMessage) string {
	for _, h := range msg.Headers {
		if h != nil && string(h.Key) == "ce_id" && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	if t.EventID != "" {
		return t.EventID
	}
	return fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
}

var _ MessageHandler = (*MaintenanceFeed)(nil)
