package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"holdings-pricer/internal/application"
	"holdings-pricer/internal/domain"
	"holdings-pricer/internal/infrastructure/cache"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix = "pricer:price:"
	// entries outlive the TTL so a stale price is still inspectable
	retentionFactor = 10
)

var _ application.PriceCache = (*PriceCache)(nil)

// PriceCache shares fetched prices between processes. Each symbol is a hash
// with the price and the unix-millis fetch time; freshness is judged on
// read against TTL.
type PriceCache struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
	Now    func() time.Time
}

func NewPriceCache(client *redis.Client, ttl time.Duration) *PriceCache {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &PriceCache{Client: client, TTL: ttl, Prefix: DefaultKeyPrefix, Now: time.Now}
}

func (c *PriceCache) key(symbol string) string {
	return c.Prefix + domain.NormalizeSymbol(symbol)
}

func (c *PriceCache) Lookup(ctx context.Context, symbol string) (float64, bool, error) {
	vals, err := c.Client.HMGet(ctx, c.key(symbol), "price", "fetched_at").Result()
	if err != nil {
		return 0, false, err
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return 0, false, nil
	}
	price, err := strconv.ParseFloat(fmt.Sprint(vals[0]), 64)
	if err != nil {
		return 0, false, fmt.Errorf("cached price for %s: %w", symbol, err)
	}
	ms, err := strconv.ParseInt(fmt.Sprint(vals[1]), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("cached fetch time for %s: %w", symbol, err)
	}
	if c.Now().Sub(time.UnixMilli(ms)) >= c.TTL {
		return 0, false, nil
	}
	return price, true, nil
}

func (c *PriceCache) Store(ctx context.Context, symbol string, price float64, at time.Time) error {
	key := c.key(symbol)
	_, err := c.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key,
			"price", strconv.FormatFloat(price, 'f', -1, 64),
			"fetched_at", strconv.FormatInt(at.UnixMilli(), 10),
		)
		p.Expire(ctx, key, c.TTL*retentionFactor)
		return nil
	})
	return err
}

// Clear removes every key under Prefix.
func (c *PriceCache) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.Client.Scan(ctx, cursor, c.Prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.Client.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
