package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"christmas-quiz-service/internal/domain"
)

// BankLoader fetches active question templates from a backing store.
type BankLoader interface {
	LoadActive(ctx context.Context, types []domain.QuestionType) ([]domain.BankQuestion, error)
}

// TypesForMode maps a game mode to the bank question types it samples from.
func TypesForMode(mode domain.GameMode) []domain.QuestionType {
	switch mode {
	case domain.ModeBlindtest:
		return []domain.QuestionType{domain.TypeBlindtest}
	case domain.ModeMixed:
		return []domain.QuestionType{domain.TypeQuiz, domain.TypeBlindtest}
	default:
		return []domain.QuestionType{domain.TypeQuiz}
	}
}

// BankCache caches bank queries per game mode with TTL to avoid hitting the
// backing store on every session creation.
type BankCache struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[domain.GameMode]cachedBank
}

type cachedBank struct {
	questions []domain.BankQuestion
	expiresAt time.Time
}

func NewBankCache(loader BankLoader, ttl time.Duration) *BankCache {
	return &BankCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[domain.GameMode]cachedBank),
	}
}

func (c *BankCache) ActiveQuestions(ctx context.Context, mode domain.GameMode) ([]domain.BankQuestion, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[mode]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.questions, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(string(mode), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[mode]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		questions, err := c.loader.LoadActive(ctx, TypesForMode(mode))
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[mode] = cachedBank{
			questions: questions,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.BankQuestion), nil
}

// Invalidate drops every cached mode; called after admin writes.
func (c *BankCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	c.cache = make(map[domain.GameMode]cachedBank)
	c.mu.Unlock()
	return nil
}

func (c *BankCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// BankCatalog is an in-memory question-bank catalog. It backs both the admin
// CRUD surface (app.BankStore) and the loader side of BankCache in dev mode.
type BankCatalog struct {
	mu        sync.RWMutex
	questions map[string]domain.BankQuestion
	order     []string
}

func NewBankCatalog(seed []domain.BankQuestion) *BankCatalog {
	c := &BankCatalog{questions: make(map[string]domain.BankQuestion)}
	for _, q := range seed {
		c.questions[q.ID] = q
		c.order = append(c.order, q.ID)
	}
	return c
}

func (c *BankCatalog) LoadActive(_ context.Context, types []domain.QuestionType) ([]domain.BankQuestion, error) {
	wanted := make(map[domain.QuestionType]struct{}, len(types))
	for _, t := range types {
		wanted[t] = struct{}{}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.BankQuestion
	for _, id := range c.order {
		q := c.questions[id]
		if _, ok := wanted[q.Type]; ok && q.IsActive {
			out = append(out, q)
		}
	}
	return out, nil
}

func (c *BankCatalog) ListBankQuestions(_ context.Context, includeInactive bool) ([]domain.BankQuestion, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.BankQuestion
	for _, id := range c.order {
		q := c.questions[id]
		if q.IsActive || includeInactive {
			out = append(out, q)
		}
	}
	return out, nil
}

func (c *BankCatalog) CreateBankQuestion(_ context.Context, q *domain.BankQuestion) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.questions[q.ID]; !ok {
		c.order = append(c.order, q.ID)
	}
	c.questions[q.ID] = *q
	return nil
}

func (c *BankCatalog) UpdateBankQuestion(_ context.Context, q *domain.BankQuestion) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.questions[q.ID]; !ok {
		return domain.ErrBankQuestionNotFound
	}
	c.questions[q.ID] = *q
	return nil
}

func (c *BankCatalog) ImportBankQuestions(_ context.Context, questions []domain.BankQuestion) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range questions {
		if _, ok := c.questions[q.ID]; !ok {
			c.order = append(c.order, q.ID)
		}
		c.questions[q.ID] = q
	}
	return nil
}

func (c *BankCatalog) DeleteBankQuestion(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.questions[id]; !ok {
		return domain.ErrBankQuestionNotFound
	}
	delete(c.questions, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}
