package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "babiloc/internal/app/outbox"
	"babiloc/internal/app/uow"
)

// Outbox stages records on the active unit so they commit or roll back with it.
// Outside a unit records go straight to the relay queue.
type Outbox struct {
	Store *Store
}

func NewOutbox(store *Store) *Outbox {
	return &Outbox{Store: store}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if unit, ok := uow.FromContext(ctx); ok {
		if mu, ok := unit.(*Unit); ok && mu.store == o.Store {
			if err := mu.writable(); err != nil {
				return err
			}
			mu.staged = append(mu.staged, record)
			return nil
		}
	}
	o.Store.relay.push(record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	return nil
}

type relayState string

const (
	relayNew     relayState = "NEW"
	relayClaimed relayState = "CLAIMED"
	relaySent    relayState = "SENT"
	relayFailed  relayState = "FAILED"
)

type relayEntry struct {
	record    appoutbox.EventRecord
	state     relayState
	next      time.Time
	claimedBy string
	lastError string
}

type relayQueue struct {
	mu      sync.Mutex
	entries []*relayEntry
}

func (q *relayQueue) push(records ...appoutbox.EventRecord) {
	if len(records) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, rec := range records {
		q.entries = append(q.entries, &relayEntry{record: rec, state: relayNew})
	}
}

func (q *relayQueue) find(id string) *relayEntry {
	for _, e := range q.entries {
		if e.record.ID == id {
			return e
		}
	}
	return nil
}

// Claim implements outbox.Store in commit order.
func (s *Store) Claim(ctx context.Context, workerID string) (*appoutbox.EventRecord, error) {
	s.relay.mu.Lock()
	defer s.relay.mu.Unlock()
	now := time.Now().UTC()
	for _, e := range s.relay.entries {
		if e.state == relayNew || (e.state == relayFailed && !now.Before(e.next)) {
			e.state = relayClaimed
			e.claimedBy = workerID
			rec := e.record
			return &rec, nil
		}
	}
	return nil, nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	s.relay.mu.Lock()
	defer s.relay.mu.Unlock()
	if e := s.relay.find(id); e != nil {
		e.state = relaySent
	}
	return nil
}

func (s *Store) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	s.relay.mu.Lock()
	defer s.relay.mu.Unlock()
	if e := s.relay.find(id); e != nil {
		e.state = relayFailed
		e.next = next
		e.lastError = errMsg
		e.record.Attempts++
	}
	return nil
}

// Pending returns records not yet published, oldest first.
func (s *Store) Pending() []appoutbox.EventRecord {
	s.relay.mu.Lock()
	defer s.relay.mu.Unlock()
	var out []appoutbox.EventRecord
	for _, e := range s.relay.entries {
		if e.state != relaySent {
			out = append(out, e.record)
		}
	}
	return out
}

var (
	_ appoutbox.Outbox = (*Outbox)(nil)
	_ appoutbox.Store  = (*Store)(nil)
)
