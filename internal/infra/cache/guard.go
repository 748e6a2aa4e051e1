package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	domainpricing "babiloc/internal/domain/pricing"
)

const defaultGuardTTL = 10 * time.Second

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Guard is a cross-process pricing.Guard built on SET NX PX.
// An expired lease is simply lost; derivation is idempotent.
type Guard struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
	Logger *slog.Logger
}

func NewGuard(client *redis.Client, logger *slog.Logger) *Guard {
	return &Guard{Client: client, TTL: defaultGuardTTL, Prefix: "babiloc:", Logger: logger}
}

func (g *Guard) Acquire(ctx context.Context, key string) (func(), bool, error) {
	token := uuid.NewString()
	full := g.Prefix + key
	ok, err := g.Client.SetNX(ctx, full, token, g.ttl()).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		// The caller's context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, g.Client, []string{full}, token).Err(); err != nil && g.Logger != nil {
			g.Logger.Warn("guard release failed", "key", full, "err", err)
		}
	}
	return release, true, nil
}

func (g *Guard) ttl() time.Duration {
	if g.TTL <= 0 {
		return defaultGuardTTL
	}
	return g.TTL
}

var _ domainpricing.Guard = (*Guard)(nil)
