package redis

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"christmas-quiz-service/internal/domain"
)

type countingLoader struct {
	calls int32
	bank  []domain.BankQuestion
}

func (l *countingLoader) LoadActive(_ context.Context, types []domain.QuestionType) ([]domain.BankQuestion, error) {
	atomic.AddInt32(&l.calls, 1)
	wanted := make(map[domain.QuestionType]struct{}, len(types))
	for _, tp := range types {
		wanted[tp] = struct{}{}
	}
	var out []domain.BankQuestion
	for _, q := range l.bank {
		if _, ok := wanted[q.Type]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func TestBankCacheWritesThrough(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	loader := &countingLoader{bank: []domain.BankQuestion{
		{ID: "q1", Type: domain.TypeQuiz, Text: "Q", Options: []string{"a", "b"}, IsActive: true},
	}}
	cache := NewBankCache(client, loader, time.Minute)
	ctx := context.Background()

	first, err := cache.ActiveQuestions(ctx, domain.ModeQuiz)
	if err != nil || len(first) != 1 {
		t.Fatalf("first load: %v %+v", err, first)
	}
	if !mr.Exists("bank:QUIZ") {
		t.Fatalf("expected cached blob in redis")
	}

	if _, err := cache.ActiveQuestions(ctx, domain.ModeQuiz); err != nil {
		t.Fatalf("cached load: %v", err)
	}
	if calls := atomic.LoadInt32(&loader.calls); calls != 1 {
		t.Fatalf("expected one backing load, got %d", calls)
	}
}

func TestBankCacheExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	loader := &countingLoader{bank: []domain.BankQuestion{
		{ID: "q1", Type: domain.TypeQuiz, Text: "Q", Options: []string{"a", "b"}, IsActive: true},
	}}
	cache := NewBankCache(client, loader, time.Minute)
	ctx := context.Background()

	if _, err := cache.ActiveQuestions(ctx, domain.ModeQuiz); err != nil {
		t.Fatalf("load: %v", err)
	}
	mr.FastForward(2 * time.Minute) // past TTL even with jitter
	if _, err := cache.ActiveQuestions(ctx, domain.ModeQuiz); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if calls := atomic.LoadInt32(&loader.calls); calls != 2 {
		t.Fatalf("expected reload after expiry, got %d", calls)
	}
}

func TestBankCacheInvalidateDropsAllModes(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	loader := &countingLoader{bank: []domain.BankQuestion{
		{ID: "q1", Type: domain.TypeQuiz, Text: "Q", Options: []string{"a", "b"}, IsActive: true},
		{ID: "b1", Type: domain.TypeBlindtest, Options: []string{"s1", "s2"}, IsActive: true, YouTubeVideoID: "vid"},
	}}
	cache := NewBankCache(client, loader, time.Minute)
	ctx := context.Background()

	if _, err := cache.ActiveQuestions(ctx, domain.ModeQuiz); err != nil {
		t.Fatalf("quiz load: %v", err)
	}
	if _, err := cache.ActiveQuestions(ctx, domain.ModeBlindtest); err != nil {
		t.Fatalf("blindtest load: %v", err)
	}

	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("bank:QUIZ") || mr.Exists("bank:BLINDTEST") {
		t.Fatalf("expected cache keys dropped")
	}
}

func TestBankCacheRecoversFromCorruptEntry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	loader := &countingLoader{bank: []domain.BankQuestion{
		{ID: "q1", Type: domain.TypeQuiz, Text: "Q", Options: []string{"a", "b"}, IsActive: true},
	}}
	cache := NewBankCache(client, loader, time.Minute)
	ctx := context.Background()

	if err := mr.Set("bank:QUIZ", "garbage"); err != nil {
		t.Fatalf("seed garbage: %v", err)
	}
	questions, err := cache.ActiveQuestions(ctx, domain.ModeQuiz)
	if err != nil || len(questions) != 1 {
		t.Fatalf("expected fallback to loader, got %v %+v", err, questions)
	}
	if calls := atomic.LoadInt32(&loader.calls); calls != 1 {
		t.Fatalf("expected loader hit, got %d", calls)
	}
}
