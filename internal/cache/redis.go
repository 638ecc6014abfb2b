package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	rdb *redis.Client
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

func NewFromClient(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

const luaRateLimit = `
local current = redis.call("incr", KEYS[1])
if current == 1 then
  redis.call("expire", KEYS[1], ARGV[1])
end
return current
`

// AllowMessage counts one send for userID in a fixed window.
func (c *Client) AllowMessage(ctx context.Context, userID string, limit int, window time.Duration) (bool, error) {
	key := "rate:send:" + userID
	count, err := c.rdb.Eval(ctx, luaRateLimit, []string{key}, int(window.Seconds())).Int()
	if err != nil {
		return false, err
	}
	return count <= limit, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// SendLimiter adapts Client to a per-user send limit.
type SendLimiter struct {
	c      *Client
	limit  int
	window time.Duration
}

func NewSendLimiter(c *Client, perMinute int) *SendLimiter {
	return &SendLimiter{c: c, limit: perMinute, window: time.Minute}
}

func (l *SendLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	return l.c.AllowMessage(ctx, userID, l.limit, l.window)
}
