package app

import (
	"context"

	"christmas-quiz-service/internal/domain"
)

// SessionStore abstracts session persistence (in-memory, Postgres).
// Loaded sessions include their players; questions are fetched separately.
type SessionStore interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	Session(ctx context.Context, id string) (*domain.Session, error)
	SessionByCode(ctx context.Context, code string) (*domain.Session, error)
	CodeInUse(ctx context.Context, code string) (bool, error)

	// TransitionStatus performs a compare-and-set on (status, currentQuestion):
	// it succeeds only while the session is still in the from status, returning
	// domain.ErrStatusConflict otherwise. This is what makes a double-clicked
	// "next" lose instead of double-advancing.
	TransitionStatus(ctx context.Context, sessionID string, from, to domain.SessionStatus, currentQuestion int) error
	// SetStatus overwrites the status unconditionally (used by "stop").
	SetStatus(ctx context.Context, sessionID string, status domain.SessionStatus) error

	AddPlayer(ctx context.Context, player *domain.Player) error
	Player(ctx context.Context, playerID string) (*domain.Player, error)
	RemovePlayer(ctx context.Context, playerID string) error
	Players(ctx context.Context, sessionID string) ([]*domain.Player, error)
	// AddScore increments the player's score and returns the new total.
	AddScore(ctx context.Context, playerID string, delta int) (int, error)

	Question(ctx context.Context, questionID string) (*domain.Question, error)
	QuestionAt(ctx context.Context, sessionID string, index int) (*domain.Question, error)

	// AddAnswer persists an answer, returning domain.ErrAlreadyAnswered when one
	// already exists for the (player, question) pair.
	AddAnswer(ctx context.Context, answer *domain.Answer) error
	Answers(ctx context.Context, questionID string) ([]*domain.Answer, error)
	CountAnswers(ctx context.Context, questionID string) (int, error)
}

// QuestionBank serves active question templates for a game mode
// (cache layers in front of the backing store implement this).
type QuestionBank interface {
	ActiveQuestions(ctx context.Context, mode domain.GameMode) ([]domain.BankQuestion, error)
}

// BankStore is the writable question-bank catalog behind the admin surface.
type BankStore interface {
	ListBankQuestions(ctx context.Context, includeInactive bool) ([]domain.BankQuestion, error)
	CreateBankQuestion(ctx context.Context, q *domain.BankQuestion) error
	UpdateBankQuestion(ctx context.Context, q *domain.BankQuestion) error
	DeleteBankQuestion(ctx context.Context, id string) error
	ImportBankQuestions(ctx context.Context, questions []domain.BankQuestion) error
}

// Broadcaster publishes named events to a per-session channel and lets
// transports subscribe to it. The returned cancel must be called to avoid
// leaking the subscription.
type Broadcaster interface {
	Publish(ctx context.Context, sessionID string, events ...domain.Event) error
	Subscribe(ctx context.Context, sessionID string) (<-chan domain.Envelope, func(), error)
}
