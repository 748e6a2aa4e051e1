package pricing

import (
	"context"
	"sync"
)

// Guard is a non-blocking keyed lock. Acquire returns ok=false when key is already held.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

var processGuard = NewKeyedGuard()

// KeyedGuard is an in-process Guard.
type KeyedGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewKeyedGuard() *KeyedGuard {
	return &KeyedGuard{held: make(map[string]struct{})}
}

func (g *KeyedGuard) Acquire(_ context.Context, key string) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[key]; busy {
		return nil, false, nil
	}
	g.held[key] = struct{}{}
	return func() {
		g.mu.Lock()
		delete(g.held, key)
		g.mu.Unlock()
	}, true, nil
}

func derivationKey(id string) string {
	return "pricing:derive:" + id
}
