package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gamifylearn/gamification-api/utils/apperror"
	"github.com/gamifylearn/gamification-api/utils/cache"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

const attemptWindow = 15 * time.Minute

// BruteForceProtection locks out login attempts per IP using Redis.
// A nil receiver or a Redis outage lets every request through.
type BruteForceProtection struct {
	redisCache *cache.RedisCache
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(redisCache *cache.RedisCache) *BruteForceProtection {
	if redisCache == nil {
		return nil
	}
	return &BruteForceProtection{redisCache: redisCache}
}

func attemptKey(scope, ip string) string {
	return fmt.Sprintf("brute_force:%s:attempts:%s", scope, ip)
}

func lockKey(scope, ip string) string {
	return fmt.Sprintf("brute_force:%s:lock:%s", scope, ip)
}

// Guard rejects requests from a locked out IP. scope separates login endpoints.
func (b *BruteForceProtection) Guard(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if b == nil {
			return c.Next()
		}

		key := lockKey(scope, c.IP())
		locked, err := b.redisCache.Exists(c.UserContext(), key)
		if err != nil {
			log.Warnf("brute force check skipped: %v", err)
			return c.Next()
		}

		if locked {
			ttl, _ := b.redisCache.TTL(c.UserContext(), key)
			retryAfter := int(ttl.Seconds())
			if retryAfter < 0 {
				retryAfter = 60
			}

			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", retryAfter))
			return apperror.TooManyRequests(fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
		}

		return c.Next()
	}
}

// RecordFailure counts a failed login and applies progressive lockouts
func (b *BruteForceProtection) RecordFailure(ctx context.Context, scope, ip, email string) {
	if b == nil {
		return
	}

	attempts, err := b.redisCache.IncrementWithin(ctx, attemptKey(scope, ip), attemptWindow)
	if err != nil {
		return
	}

	var lockDuration time.Duration
	switch {
	case attempts >= 25:
		lockDuration = 24 * time.Hour
	case attempts >= 10:
		lockDuration = time.Hour
	case attempts >= 5:
		lockDuration = 2 * time.Minute
	default:
		return
	}

	log.Warnf("locking %s login for %s after %d failed attempts (last email %q)", scope, ip, attempts, strings.ToLower(email))
	_ = b.redisCache.Set(ctx, lockKey(scope, ip), "locked", lockDuration)
}

// RecordSuccess clears failed attempts on successful login
func (b *BruteForceProtection) RecordSuccess(ctx context.Context, scope, ip string) {
	if b == nil {
		return
	}
	_ = b.redisCache.Delete(ctx, attemptKey(scope, ip), lockKey(scope, ip))
}
