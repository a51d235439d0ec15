package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"christmas-quiz-service/internal/domain"
)

func seedSession(t *testing.T, store *SessionStore) *domain.Session {
	t.Helper()
	now := time.Date(2025, 12, 24, 18, 0, 0, 0, time.UTC)
	session := &domain.Session{
		ID:             "s1",
		Code:           "ABC234",
		HostID:         "host",
		Status:         domain.StatusWaiting,
		GameMode:       domain.ModeQuiz,
		TotalQuestions: 2,
		CreatedAt:      now,
		ExpiresAt:      now.Add(domain.SessionExpiry),
		Players: []*domain.Player{
			{ID: "host", SessionID: "s1", Nickname: "Host", IsHost: true, JoinedAt: now},
		},
		Questions: []*domain.Question{
			{ID: "q1", SessionID: "s1", Order: 0, Type: domain.TypeQuiz, Options: []string{"a", "b"}, CorrectIndex: 0},
			{ID: "q2", SessionID: "s1", Order: 1, Type: domain.TypeQuiz, Options: []string{"a", "b"}, CorrectIndex: 1},
		},
	}
	if err := store.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("create: %v", err)
	}
	return session
}

func TestSessionRoundTrip(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	seedSession(t, store)

	got, err := store.Session(ctx, "s1")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if got.Code != "ABC234" || len(got.Players) != 1 {
		t.Fatalf("unexpected session %+v", got)
	}

	byCode, err := store.SessionByCode(ctx, "ABC234")
	if err != nil || byCode.ID != "s1" {
		t.Fatalf("by code: %v %+v", err, byCode)
	}
	if taken, _ := store.CodeInUse(ctx, "ABC234"); !taken {
		t.Fatalf("expected code in use")
	}
	if _, err := store.Session(ctx, "nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTransitionStatusIsCompareAndSet(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	seedSession(t, store)

	if err := store.TransitionStatus(ctx, "s1", domain.StatusWaiting, domain.StatusQuestion, 0); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	// A second caller that still believes the session is WAITING loses.
	err := store.TransitionStatus(ctx, "s1", domain.StatusWaiting, domain.StatusQuestion, 0)
	if !errors.Is(err, domain.ErrStatusConflict) {
		t.Fatalf("expected status conflict, got %v", err)
	}

	got, _ := store.Session(ctx, "s1")
	if got.Status != domain.StatusQuestion || got.CurrentQuestion != 0 {
		t.Fatalf("state clobbered: %+v", got)
	}
}

func TestPlayersOrderedByJoin(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	session := seedSession(t, store)

	base := session.CreatedAt
	_ = store.AddPlayer(ctx, &domain.Player{ID: "p2", SessionID: "s1", Nickname: "Bob", JoinedAt: base.Add(2 * time.Second)})
	_ = store.AddPlayer(ctx, &domain.Player{ID: "p1", SessionID: "s1", Nickname: "Alice", JoinedAt: base.Add(time.Second)})

	players, err := store.Players(ctx, "s1")
	if err != nil {
		t.Fatalf("players: %v", err)
	}
	if len(players) != 3 || players[1].ID != "p1" || players[2].ID != "p2" {
		t.Fatalf("unexpected order %+v", players)
	}

	if err := store.RemovePlayer(ctx, "p1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := store.Player(ctx, "p1"); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected player gone, got %v", err)
	}
}

func TestAddScoreReturnsTotal(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	seedSession(t, store)

	if total, err := store.AddScore(ctx, "host", 500); err != nil || total != 500 {
		t.Fatalf("first add: %d %v", total, err)
	}
	if total, err := store.AddScore(ctx, "host", 250); err != nil || total != 750 {
		t.Fatalf("second add: %d %v", total, err)
	}
}

func TestAnswerDedup(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	seedSession(t, store)

	answer := &domain.Answer{ID: "a1", PlayerID: "host", QuestionID: "q1", Value: "0", IsCorrect: true, PointsAwarded: 1000}
	if err := store.AddAnswer(ctx, answer); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.AddAnswer(ctx, answer); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected dedup, got %v", err)
	}
	// Same player, different question is fine.
	if err := store.AddAnswer(ctx, &domain.Answer{ID: "a2", PlayerID: "host", QuestionID: "q2", Value: "1"}); err != nil {
		t.Fatalf("other question: %v", err)
	}

	if n, _ := store.CountAnswers(ctx, "q1"); n != 1 {
		t.Fatalf("expected 1 answer, got %d", n)
	}
	answers, _ := store.Answers(ctx, "q1")
	if len(answers) != 1 || answers[0].PointsAwarded != 1000 {
		t.Fatalf("unexpected answers %+v", answers)
	}
}

func TestQuestionLookup(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	seedSession(t, store)

	q, err := store.QuestionAt(ctx, "s1", 1)
	if err != nil || q.ID != "q2" {
		t.Fatalf("question at 1: %v %+v", err, q)
	}
	if _, err := store.QuestionAt(ctx, "s1", 2); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected out of range, got %v", err)
	}

	// Mutating the returned copy must not leak into the store.
	q.CorrectIndex = 99
	again, _ := store.Question(ctx, "q2")
	if again.CorrectIndex == 99 {
		t.Fatalf("store returned a shared pointer")
	}
}
