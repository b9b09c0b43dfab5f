package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	appoutbox "staydesk/internal/app/outbox"
	infraoutbox "staydesk/internal/infra/outbox"
)

type stagingKey struct{}

// staging collects records added while a unit of work is open.
type staging struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord
}

func (s *staging) add(rec appoutbox.EventRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

func (s *staging) drain() []appoutbox.EventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.records
	s.records = nil
	return out
}

func withStaging(ctx context.Context, s *staging) context.Context {
	return context.WithValue(ctx, stagingKey{}, s)
}

func stagingFrom(ctx context.Context) (*staging, bool) {
	s, ok := ctx.Value(stagingKey{}).(*staging)
	return s, ok
}

// StagedOutbox is the outbox handlers write to. Inside a unit of work records wait for the
// commit; outside one they go straight to Sink.
type StagedOutbox struct {
	Sink appoutbox.Outbox
}

func (o StagedOutbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if s, ok := stagingFrom(ctx); ok {
		s.add(record)
		return nil
	}
	if o.Sink == nil {
		return nil
	}
	return o.Sink.Add(ctx, record)
}

func (o StagedOutbox) Flush(ctx context.Context) error {
	if o.Sink == nil {
		return nil
	}
	return o.Sink.Flush(ctx)
}

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

// Outbox keeps committed records in memory until the worker publishes them. Sent records
// are kept up to Retain entries for inspection.
type Outbox struct {
	mu     sync.Mutex
	docs   map[string]*infraoutbox.EventDocument
	order  []string
	notify chan struct{}
	now    func() time.Time
	Retain int
}

func NewOutbox() *Outbox {
	return &Outbox{
		docs:   make(map[string]*infraoutbox.EventDocument),
		notify: make(chan struct{}, 1),
		now:    func() time.Time { return time.Now().UTC() },
		Retain: 1000,
	}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, dup := o.docs[record.ID]; dup {
		return nil
	}
	now := o.now()
	o.docs[record.ID] = &infraoutbox.EventDocument{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     record.Payload,
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		State:       stateNew,
		NextAttempt: now,
	}
	o.order = append(o.order, record.ID)
	return nil
}

// Flush wakes the worker without blocking.
func (o *Outbox) Flush(ctx context.Context) error {
	select {
	case o.notify <- struct{}{}:
	default:
	}
	return nil
}

// Notify fires after Flush.
func (o *Outbox) Notify() <-chan struct{} {
	return o.notify
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, id := range o.order {
		doc := o.docs[id]
		if doc.State != stateNew && doc.State != stateFailed {
			continue
		}
		if doc.NextAttempt.After(now) {
			continue
		}
		doc.State = stateClaimed
		doc.ClaimedBy = workerID
		doc.ClaimedAt = now
		claimed := *doc
		return &claimed, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	doc, ok := o.docs[id]
	if !ok {
		return nil
	}
	doc.State = stateSent
	doc.SentAt = o.now()
	o.compact()
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	doc, ok := o.docs[id]
	if !ok {
		return nil
	}
	doc.State = stateFailed
	doc.NextAttempt = next
	doc.LastError = errMsg
	doc.Attempts++
	return nil
}

// Pending lists records not yet sent, oldest first.
func (o *Outbox) Pending() []infraoutbox.EventDocument {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]infraoutbox.EventDocument, 0, len(o.order))
	for _, id := range o.order {
		if doc := o.docs[id]; doc.State != stateSent {
			out = append(out, *doc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out
}

// compact drops the oldest sent records beyond Retain. Caller holds mu.
func (o *Outbox) compact() {
	sent := 0
	for _, id := range o.order {
		if o.docs[id].State == stateSent {
			sent++
		}
	}
	excess := sent - o.Retain
	if excess <= 0 {
		return
	}
	kept := o.order[:0]
	for _, id := range o.order {
		if excess > 0 && o.docs[id].State == stateSent {
			delete(o.docs, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	o.order = kept
}

var _ appoutbox.Outbox = (*Outbox)(nil)
var _ appoutbox.Outbox = StagedOutbox{}
var _ infraoutbox.Store = (*Outbox)(nil)
