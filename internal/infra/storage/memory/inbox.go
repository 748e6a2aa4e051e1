package memory

import (
	"context"
	"sync"
)

// Inbox remembers consumed event ids for the lifetime of the process.
type Inbox struct {
	mu        sync.Mutex
	processed map[string]struct{}
}

func NewInbox() *Inbox {
	return &Inbox{processed: map[string]struct{}{}}
}

func (i *Inbox) Processed(ctx context.Context, eventID string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.processed[eventID]
	return ok, nil
}

func (i *Inbox) MarkProcessed(ctx context.Context, eventID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.processed[eventID] = struct{}{}
	return nil
}
