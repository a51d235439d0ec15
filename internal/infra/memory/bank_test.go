package memory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

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

func sampleBank() []domain.BankQuestion {
	return []domain.BankQuestion{
		{ID: "q1", Type: domain.TypeQuiz, Text: "Q", Options: []string{"a", "b"}, CorrectIndex: 0, IsActive: true},
		{ID: "b1", Type: domain.TypeBlindtest, Options: []string{"s1", "s2"}, CorrectIndex: 1, IsActive: true, YouTubeVideoID: "vid"},
	}
}

func TestTypesForMode(t *testing.T) {
	if got := TypesForMode(domain.ModeQuiz); len(got) != 1 || got[0] != domain.TypeQuiz {
		t.Fatalf("quiz mode: %v", got)
	}
	if got := TypesForMode(domain.ModeBlindtest); len(got) != 1 || got[0] != domain.TypeBlindtest {
		t.Fatalf("blindtest mode: %v", got)
	}
	if got := TypesForMode(domain.ModeMixed); len(got) != 2 {
		t.Fatalf("mixed mode: %v", got)
	}
}

func TestBankCacheServesFromCache(t *testing.T) {
	loader := &countingLoader{bank: sampleBank()}
	cache := NewBankCache(loader, time.Minute)
	ctx := context.Background()

	first, err := cache.ActiveQuestions(ctx, domain.ModeQuiz)
	if err != nil || len(first) != 1 {
		t.Fatalf("first load: %v %v", err, first)
	}
	if _, err := cache.ActiveQuestions(ctx, domain.ModeQuiz); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if calls := atomic.LoadInt32(&loader.calls); calls != 1 {
		t.Fatalf("expected a single backing load, got %d", calls)
	}

	// Each mode is cached independently.
	if _, err := cache.ActiveQuestions(ctx, domain.ModeBlindtest); err != nil {
		t.Fatalf("blindtest load: %v", err)
	}
	if calls := atomic.LoadInt32(&loader.calls); calls != 2 {
		t.Fatalf("expected a load per mode, got %d", calls)
	}
}

func TestBankCacheExpires(t *testing.T) {
	loader := &countingLoader{bank: sampleBank()}
	cache := NewBankCache(loader, time.Minute)
	now := time.Date(2025, 12, 24, 18, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }
	ctx := context.Background()

	if _, err := cache.ActiveQuestions(ctx, domain.ModeQuiz); err != nil {
		t.Fatalf("load: %v", err)
	}
	now = now.Add(2 * time.Minute) // past TTL even with jitter
	if _, err := cache.ActiveQuestions(ctx, domain.ModeQuiz); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if calls := atomic.LoadInt32(&loader.calls); calls != 2 {
		t.Fatalf("expected reload after expiry, got %d calls", calls)
	}
}

func TestBankCacheInvalidate(t *testing.T) {
	loader := &countingLoader{bank: sampleBank()}
	cache := NewBankCache(loader, time.Minute)
	ctx := context.Background()

	if _, err := cache.ActiveQuestions(ctx, domain.ModeQuiz); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := cache.ActiveQuestions(ctx, domain.ModeQuiz); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if calls := atomic.LoadInt32(&loader.calls); calls != 2 {
		t.Fatalf("expected reload after invalidate, got %d calls", calls)
	}
}

func TestBankCatalogCRUD(t *testing.T) {
	catalog := NewBankCatalog(sampleBank())
	ctx := context.Background()

	active, err := catalog.LoadActive(ctx, []domain.QuestionType{domain.TypeQuiz})
	if err != nil || len(active) != 1 || active[0].ID != "q1" {
		t.Fatalf("load active: %v %+v", err, active)
	}

	if err := catalog.CreateBankQuestion(ctx, &domain.BankQuestion{
		ID: "q2", Type: domain.TypeQuiz, Text: "New", Options: []string{"a", "b"}, IsActive: false,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, _ := catalog.ListBankQuestions(ctx, true)
	if len(all) != 3 {
		t.Fatalf("expected 3 with inactive, got %d", len(all))
	}
	visible, _ := catalog.ListBankQuestions(ctx, false)
	if len(visible) != 2 {
		t.Fatalf("expected 2 active, got %d", len(visible))
	}

	if err := catalog.UpdateBankQuestion(ctx, &domain.BankQuestion{
		ID: "q2", Type: domain.TypeQuiz, Text: "Edited", Options: []string{"a", "b"}, IsActive: true,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := catalog.UpdateBankQuestion(ctx, &domain.BankQuestion{ID: "ghost"}); !errors.Is(err, domain.ErrBankQuestionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := catalog.DeleteBankQuestion(ctx, "q2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := catalog.DeleteBankQuestion(ctx, "q2"); !errors.Is(err, domain.ErrBankQuestionNotFound) {
		t.Fatalf("expected delete miss, got %v", err)
	}

	if err := catalog.ImportBankQuestions(ctx, sampleBank()); err != nil {
		t.Fatalf("import: %v", err)
	}
	all, _ = catalog.ListBankQuestions(ctx, true)
	if len(all) != 2 {
		t.Fatalf("import should upsert, got %d entries", len(all))
	}
}
