package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"christmas-quiz-service/internal/domain"
)

// BankStore manages the question-bank catalog through bun; this is the store
// behind the admin CRUD surface and the seed command.
type BankStore struct {
	db *bun.DB
}

func NewBankStore(db *bun.DB) *BankStore {
	return &BankStore{db: db}
}

func (s *BankStore) ListBankQuestions(ctx context.Context, includeInactive bool) ([]domain.BankQuestion, error) {
	var rows []*bankQuestionRow
	q := s.db.NewSelect().Model(&rows).Order("b.type ASC", "b.category ASC")
	if !includeInactive {
		q = q.Where("b.is_active")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list bank questions: %w", err)
	}
	out := make([]domain.BankQuestion, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToBank(r))
	}
	return out, nil
}

func (s *BankStore) CreateBankQuestion(ctx context.Context, q *domain.BankQuestion) error {
	if _, err := s.db.NewInsert().Model(bankToRow(q)).Exec(ctx); err != nil {
		return fmt.Errorf("insert bank question: %w", err)
	}
	return nil
}

func (s *BankStore) UpdateBankQuestion(ctx context.Context, q *domain.BankQuestion) error {
	res, err := s.db.NewUpdate().Model(bankToRow(q)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update bank question: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrBankQuestionNotFound
	}
	return nil
}

func (s *BankStore) DeleteBankQuestion(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*bankQuestionRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete bank question: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrBankQuestionNotFound
	}
	return nil
}

// ImportBankQuestions inserts a batch inside one transaction, skipping nothing:
// a bad row fails the whole import so admins can fix and retry.
func (s *BankStore) ImportBankQuestions(ctx context.Context, questions []domain.BankQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	rows := make([]*bankQuestionRow, 0, len(questions))
	for i := range questions {
		rows = append(rows, bankToRow(&questions[i]))
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("import bank questions: %w", err)
		}
		return nil
	})
}
