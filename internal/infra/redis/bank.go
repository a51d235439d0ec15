package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"christmas-quiz-service/internal/domain"
	"christmas-quiz-service/internal/infra/memory"
)

// BankLoader fetches active question templates from a backing store.
type BankLoader interface {
	LoadActive(ctx context.Context, types []domain.QuestionType) ([]domain.BankQuestion, error)
}

// BankCache caches the active question bank in Redis (one JSON blob per game
// mode) and falls back to a loader on cache miss, so all instances share one
// cached view of the bank.
type BankCache struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewBankCache(client *redis.Client, loader BankLoader, ttl time.Duration) *BankCache {
	return &BankCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func bankKey(mode domain.GameMode) string {
	return "bank:" + string(mode)
}

func (c *BankCache) ActiveQuestions(ctx context.Context, mode domain.GameMode) ([]domain.BankQuestion, error) {
	key := bankKey(mode)

	if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var questions []domain.BankQuestion
		if err := json.Unmarshal(cached, &questions); err == nil {
			return questions, nil
		}
		// Unreadable cache entries are treated as misses and rewritten below.
	}

	result, err, _ := c.sf.Do(string(mode), func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var questions []domain.BankQuestion
			if err := json.Unmarshal(cached, &questions); err == nil {
				return questions, nil
			}
		}

		questions, err := c.loader.LoadActive(ctx, memory.TypesForMode(mode))
		if err != nil {
			return nil, err
		}

		payload, err := json.Marshal(questions)
		if err != nil {
			return nil, fmt.Errorf("marshal bank: %w", err)
		}
		_ = c.client.Set(ctx, key, payload, c.ttlWithJitter()).Err()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.BankQuestion), nil
}

// Invalidate drops the cached bank for every mode; called after admin writes.
func (c *BankCache) Invalidate(ctx context.Context) error {
	keys := []string{
		bankKey(domain.ModeQuiz),
		bankKey(domain.ModeBlindtest),
		bankKey(domain.ModeMixed),
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *BankCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
