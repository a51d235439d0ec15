package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"christmas-quiz-service/internal/domain"
)

// BankLoader reads active question templates from Postgres over pgx. It sits
// behind the memory/Redis caches on the hot session-creation path.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadActive(ctx context.Context, types []domain.QuestionType) ([]domain.BankQuestion, error) {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}

	rows, err := l.pool.Query(ctx, `
		SELECT id, type, COALESCE(text, ''), options, correct_index, COALESCE(category, ''),
		       COALESCE(youtube_video_id, ''), COALESCE(audio_start_time, 0),
		       COALESCE(audio_end_time, 0), COALESCE(song_title, ''), COALESCE(song_artist, '')
		FROM question_bank
		WHERE is_active AND type = ANY($1)`, names)
	if err != nil {
		return nil, fmt.Errorf("query question bank: %w", err)
	}
	defer rows.Close()

	var out []domain.BankQuestion
	for rows.Next() {
		q := domain.BankQuestion{IsActive: true}
		var qType string
		if err := rows.Scan(&q.ID, &qType, &q.Text, &q.Options, &q.CorrectIndex, &q.Category,
			&q.YouTubeVideoID, &q.AudioStartTime, &q.AudioEndTime, &q.SongTitle, &q.SongArtist); err != nil {
			return nil, fmt.Errorf("scan bank question: %w", err)
		}
		q.Type = domain.QuestionType(qType)
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return out, nil
}
