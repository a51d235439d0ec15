package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"christmas-quiz-service/internal/domain"
)

// SessionStore is the bun-backed implementation of app.SessionStore.
type SessionStore struct {
	db *bun.DB
}

func NewSessionStore(db *bun.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) CreateSession(ctx context.Context, session *domain.Session) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(sessionToRow(session)).Exec(ctx); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		if len(session.Players) > 0 {
			rows := make([]*playerRow, 0, len(session.Players))
			for _, p := range session.Players {
				rows = append(rows, playerToRow(p))
			}
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return fmt.Errorf("insert players: %w", err)
			}
		}
		if len(session.Questions) > 0 {
			rows := make([]*questionRow, 0, len(session.Questions))
			for _, q := range session.Questions {
				rows = append(rows, questionToRow(q))
			}
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return fmt.Errorf("insert questions: %w", err)
			}
		}
		return nil
	})
}

func (s *SessionStore) Session(ctx context.Context, id string) (*domain.Session, error) {
	row := new(sessionRow)
	err := s.db.NewSelect().Model(row).Where("s.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return s.attachPlayers(ctx, rowToSession(row))
}

func (s *SessionStore) SessionByCode(ctx context.Context, code string) (*domain.Session, error) {
	row := new(sessionRow)
	err := s.db.NewSelect().Model(row).Where("s.code = ?", code).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session by code: %w", err)
	}
	return s.attachPlayers(ctx, rowToSession(row))
}

func (s *SessionStore) attachPlayers(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	players, err := s.Players(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	session.Players = players
	return session, nil
}

func (s *SessionStore) CodeInUse(ctx context.Context, code string) (bool, error) {
	return s.db.NewSelect().Model((*sessionRow)(nil)).Where("s.code = ?", code).Exists(ctx)
}

func (s *SessionStore) TransitionStatus(ctx context.Context, sessionID string, from, to domain.SessionStatus, currentQuestion int) error {
	res, err := s.db.NewUpdate().Model((*sessionRow)(nil)).
		Set("status = ?", string(to)).
		Set("current_question = ?", currentQuestion).
		Where("id = ?", sessionID).
		Where("status = ?", string(from)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("transition status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		exists, err := s.db.NewSelect().Model((*sessionRow)(nil)).Where("s.id = ?", sessionID).Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrSessionNotFound
		}
		return domain.ErrStatusConflict
	}
	return nil
}

func (s *SessionStore) SetStatus(ctx context.Context, sessionID string, status domain.SessionStatus) error {
	res, err := s.db.NewUpdate().Model((*sessionRow)(nil)).
		Set("status = ?", string(status)).
		Where("id = ?", sessionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) AddPlayer(ctx context.Context, player *domain.Player) error {
	_, err := s.db.NewInsert().Model(playerToRow(player)).Exec(ctx)
	if isUniqueViolation(err) {
		return domain.ErrNicknameTaken
	}
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

func (s *SessionStore) Player(ctx context.Context, playerID string) (*domain.Player, error) {
	row := new(playerRow)
	err := s.db.NewSelect().Model(row).Where("p.id = ?", playerID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}
	return rowToPlayer(row), nil
}

func (s *SessionStore) RemovePlayer(ctx context.Context, playerID string) error {
	res, err := s.db.NewDelete().Model((*playerRow)(nil)).Where("id = ?", playerID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrPlayerNotFound
	}
	return nil
}

func (s *SessionStore) Players(ctx context.Context, sessionID string) ([]*domain.Player, error) {
	var rows []*playerRow
	err := s.db.NewSelect().Model(&rows).
		Where("p.session_id = ?", sessionID).
		Order("p.joined_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	players := make([]*domain.Player, 0, len(rows))
	for _, r := range rows {
		players = append(players, rowToPlayer(r))
	}
	return players, nil
}

func (s *SessionStore) AddScore(ctx context.Context, playerID string, delta int) (int, error) {
	var score int
	err := s.db.NewUpdate().Model((*playerRow)(nil)).
		Set("score = score + ?", delta).
		Where("id = ?", playerID).
		Returning("score").
		Scan(ctx, &score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrPlayerNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("add score: %w", err)
	}
	return score, nil
}

func (s *SessionStore) Question(ctx context.Context, questionID string) (*domain.Question, error) {
	row := new(questionRow)
	err := s.db.NewSelect().Model(row).Where("q.id = ?", questionID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	return rowToQuestion(row), nil
}

func (s *SessionStore) QuestionAt(ctx context.Context, sessionID string, index int) (*domain.Question, error) {
	row := new(questionRow)
	err := s.db.NewSelect().Model(row).
		Where("q.session_id = ?", sessionID).
		Where("q.position = ?", index).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load question at %d: %w", index, err)
	}
	return rowToQuestion(row), nil
}

func (s *SessionStore) AddAnswer(ctx context.Context, answer *domain.Answer) error {
	_, err := s.db.NewInsert().Model(answerToRow(answer)).Exec(ctx)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyAnswered
	}
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

func (s *SessionStore) Answers(ctx context.Context, questionID string) ([]*domain.Answer, error) {
	var rows []*answerRow
	err := s.db.NewSelect().Model(&rows).
		Where("a.question_id = ?", questionID).
		Order("a.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	answers := make([]*domain.Answer, 0, len(rows))
	for _, r := range rows {
		answers = append(answers, rowToAnswer(r))
	}
	return answers, nil
}

func (s *SessionStore) CountAnswers(ctx context.Context, questionID string) (int, error) {
	return s.db.NewSelect().Model((*answerRow)(nil)).Where("a.question_id = ?", questionID).Count(ctx)
}

// isUniqueViolation detects Postgres unique-constraint errors (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}
