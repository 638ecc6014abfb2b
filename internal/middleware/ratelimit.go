package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fathima-sithara/campus-connect/internal/apperr"
)

// Limiter decides whether userID may perform one more send.
type Limiter interface {
	Allow(ctx context.Context, userID string) (bool, error)
}

// LocalLimiter is an in-process token bucket per user, used when redis is
// disabled. Limits are not shared between instances.
type LocalLimiter struct {
	visitors sync.Map
	rps      rate.Limit
	burst    int
}

type visitor struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocalLimiter(perMinute int) *LocalLimiter {
	burst := perMinute / 6
	if burst < 1 {
		burst = 1
	}
	return &LocalLimiter{
		rps:   rate.Limit(float64(perMinute) / 60.0),
		burst: burst,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, userID string) (bool, error) {
	v, _ := l.visitors.LoadOrStore(userID, &visitor{limiter: rate.NewLimiter(l.rps, l.burst)})
	vi := v.(*visitor)
	vi.mu.Lock()
	vi.lastSeen = time.Now()
	vi.mu.Unlock()
	return vi.limiter.Allow(), nil
}

// Cleanup drops users idle for longer than idle, every interval, until ctx ends.
func (l *LocalLimiter) Cleanup(ctx context.Context, interval, idle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.sweep(time.Now().Add(-idle))
		}
	}
}

func (l *LocalLimiter) sweep(cutoff time.Time) {
	l.visitors.Range(func(k, v any) bool {
		vi := v.(*visitor)
		vi.mu.Lock()
		stale := vi.lastSeen.Before(cutoff)
		vi.mu.Unlock()
		if stale {
			l.visitors.Delete(k)
		}
		return true
	})
}

// RateLimit rejects over-limit senders with 429. A failing limiter lets the
// request through.
func RateLimit(l Limiter, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid := UserID(c)
		if uid == "" {
			return c.Next()
		}
		ok, err := l.Allow(c.UserContext(), uid)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.String("user_id", uid), zap.Error(err))
			return c.Next()
		}
		if !ok {
			log.Warn("rate limit exceeded", zap.String("user_id", uid), zap.String("path", c.Path()))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
				"code":  apperr.KindRateLimited,
			})
		}
		return c.Next()
	}
}
