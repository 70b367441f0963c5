package daily

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Guard grants one caller at a time the right to generate a day's question set.
type Guard interface {
	// Acquire returns ok=false without error when someone else holds key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// deletes the key only if it still holds our token, so an expired holder cannot release a newer one
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard coordinates generation across replicas with SET NX.
type RedisGuard struct {
	rdb *redis.Client
}

func NewRedisGuard(rdb *redis.Client) *RedisGuard {
	return &RedisGuard{rdb: rdb}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := g.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}
	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, g.rdb, []string{key}, token).Err()
	}
	return release, true, nil
}

// LocalGuard is the single-process fallback when redis is not configured.
type LocalGuard struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{held: make(map[string]time.Time)}
}

func (g *LocalGuard) Acquire(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if expires, ok := g.held[key]; ok && time.Now().Before(expires) {
		return nil, false, nil
	}
	g.held[key] = time.Now().Add(ttl)
	release := func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.held, key)
	}
	return release, true, nil
}
