package redisstore

import (
	"context"
	"time"

	"holdings-pricer/internal/application"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ application.RefreshLock = (*Lock)(nil)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a single-holder lease in redis. TTL bounds how long a crashed
// holder blocks others.
type Lock struct {
	Client *redis.Client
	TTL    time.Duration
	Log    *zap.Logger
}

func NewLock(client *redis.Client, ttl time.Duration) *Lock {
	return &Lock{Client: client, TTL: ttl, Log: zap.NewNop()}
}

func (l *Lock) TryAcquire(ctx context.Context, key string) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.Client.SetNX(ctx, key, token, l.TTL).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.Client, []string{key}, token).Err(); err != nil && l.Log != nil {
			l.Log.Warn("refresh_lock.release_failed", zap.String("key", key), zap.Error(err))
		}
	}
	return release, true, nil
}
