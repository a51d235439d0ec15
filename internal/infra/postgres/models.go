package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"christmas-quiz-service/internal/domain"
)

// Row types carry the bun mapping so the domain structs stay free of
// persistence tags.

type sessionRow struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID                  string    `bun:"id,pk"`
	Code                string    `bun:"code"`
	HostID              string    `bun:"host_id"`
	Status              string    `bun:"status"`
	GameMode            string    `bun:"game_mode"`
	CurrentQuestion     int       `bun:"current_question"`
	TotalQuestions      int       `bun:"total_questions"`
	TimePerQuestion     int       `bun:"time_per_question"`
	AutoMode            bool      `bun:"auto_mode"`
	ShowLeaderboard     bool      `bun:"show_leaderboard"`
	RevealDuration      int       `bun:"reveal_duration"`
	LeaderboardDuration int       `bun:"leaderboard_duration"`
	CreatedAt           time.Time `bun:"created_at"`
	ExpiresAt           time.Time `bun:"expires_at"`
}

type playerRow struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID          string    `bun:"id,pk"`
	SessionID   string    `bun:"session_id"`
	Nickname    string    `bun:"nickname"`
	AvatarColor string    `bun:"avatar_color"`
	Score       int       `bun:"score"`
	IsHost      bool      `bun:"is_host"`
	JoinedAt    time.Time `bun:"joined_at"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID             string   `bun:"id,pk"`
	SessionID      string   `bun:"session_id"`
	Position       int      `bun:"position"`
	Type           string   `bun:"type"`
	Text           string   `bun:"text"`
	Options        []string `bun:"options,array"`
	CorrectIndex   int      `bun:"correct_index"`
	TimeLimit      int      `bun:"time_limit"`
	Points         int      `bun:"points"`
	YouTubeVideoID string   `bun:"youtube_video_id"`
	AudioStartTime int      `bun:"audio_start_time"`
	AudioEndTime   int      `bun:"audio_end_time"`
	SongTitle      string   `bun:"song_title"`
	SongArtist     string   `bun:"song_artist"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:answers,alias:a"`

	ID            string    `bun:"id,pk"`
	PlayerID      string    `bun:"player_id"`
	QuestionID    string    `bun:"question_id"`
	Answer        string    `bun:"answer"`
	IsCorrect     bool      `bun:"is_correct"`
	ResponseTime  int64     `bun:"response_time"`
	PointsAwarded int       `bun:"points_awarded"`
	CreatedAt     time.Time `bun:"created_at"`
}

type bankQuestionRow struct {
	bun.BaseModel `bun:"table:question_bank,alias:b"`

	ID             string   `bun:"id,pk"`
	Type           string   `bun:"type"`
	Text           string   `bun:"text"`
	Options        []string `bun:"options,array"`
	CorrectIndex   int      `bun:"correct_index"`
	Category       string   `bun:"category"`
	IsActive       bool     `bun:"is_active"`
	YouTubeVideoID string   `bun:"youtube_video_id"`
	AudioStartTime int      `bun:"audio_start_time"`
	AudioEndTime   int      `bun:"audio_end_time"`
	SongTitle      string   `bun:"song_title"`
	SongArtist     string   `bun:"song_artist"`
}

func sessionToRow(s *domain.Session) *sessionRow {
	return &sessionRow{
		ID:                  s.ID,
		Code:                s.Code,
		HostID:              s.HostID,
		Status:              string(s.Status),
		GameMode:            string(s.GameMode),
		CurrentQuestion:     s.CurrentQuestion,
		TotalQuestions:      s.TotalQuestions,
		TimePerQuestion:     s.TimePerQuestion,
		AutoMode:            s.AutoMode,
		ShowLeaderboard:     s.ShowLeaderboard,
		RevealDuration:      s.RevealDuration,
		LeaderboardDuration: s.LeaderboardDuration,
		CreatedAt:           s.CreatedAt,
		ExpiresAt:           s.ExpiresAt,
	}
}

func rowToSession(r *sessionRow) *domain.Session {
	return &domain.Session{
		ID:                  r.ID,
		Code:                r.Code,
		HostID:              r.HostID,
		Status:              domain.SessionStatus(r.Status),
		GameMode:            domain.GameMode(r.GameMode),
		CurrentQuestion:     r.CurrentQuestion,
		TotalQuestions:      r.TotalQuestions,
		TimePerQuestion:     r.TimePerQuestion,
		AutoMode:            r.AutoMode,
		ShowLeaderboard:     r.ShowLeaderboard,
		RevealDuration:      r.RevealDuration,
		LeaderboardDuration: r.LeaderboardDuration,
		CreatedAt:           r.CreatedAt,
		ExpiresAt:           r.ExpiresAt,
	}
}

func playerToRow(p *domain.Player) *playerRow {
	return &playerRow{
		ID:          p.ID,
		SessionID:   p.SessionID,
		Nickname:    p.Nickname,
		AvatarColor: p.AvatarColor,
		Score:       p.Score,
		IsHost:      p.IsHost,
		JoinedAt:    p.JoinedAt,
	}
}

func rowToPlayer(r *playerRow) *domain.Player {
	return &domain.Player{
		ID:          r.ID,
		SessionID:   r.SessionID,
		Nickname:    r.Nickname,
		AvatarColor: r.AvatarColor,
		Score:       r.Score,
		IsHost:      r.IsHost,
		JoinedAt:    r.JoinedAt,
	}
}

func questionToRow(q *domain.Question) *questionRow {
	return &questionRow{
		ID:             q.ID,
		SessionID:      q.SessionID,
		Position:       q.Order,
		Type:           string(q.Type),
		Text:           q.Text,
		Options:        q.Options,
		CorrectIndex:   q.CorrectIndex,
		TimeLimit:      q.TimeLimit,
		Points:         q.Points,
		YouTubeVideoID: q.YouTubeVideoID,
		AudioStartTime: q.AudioStartTime,
		AudioEndTime:   q.AudioEndTime,
		SongTitle:      q.SongTitle,
		SongArtist:     q.SongArtist,
	}
}

func rowToQuestion(r *questionRow) *domain.Question {
	return &domain.Question{
		ID:             r.ID,
		SessionID:      r.SessionID,
		Order:          r.Position,
		Type:           domain.QuestionType(r.Type),
		Text:           r.Text,
		Options:        r.Options,
		CorrectIndex:   r.CorrectIndex,
		TimeLimit:      r.TimeLimit,
		Points:         r.Points,
		YouTubeVideoID: r.YouTubeVideoID,
		AudioStartTime: r.AudioStartTime,
		AudioEndTime:   r.AudioEndTime,
		SongTitle:      r.SongTitle,
		SongArtist:     r.SongArtist,
	}
}

func answerToRow(a *domain.Answer) *answerRow {
	return &answerRow{
		ID:            a.ID,
		PlayerID:      a.PlayerID,
		QuestionID:    a.QuestionID,
		Answer:        a.Value,
		IsCorrect:     a.IsCorrect,
		ResponseTime:  a.ResponseTime,
		PointsAwarded: a.PointsAwarded,
		CreatedAt:     a.CreatedAt,
	}
}

func rowToAnswer(r *answerRow) *domain.Answer {
	return &domain.Answer{
		ID:            r.ID,
		PlayerID:      r.PlayerID,
		QuestionID:    r.QuestionID,
		Value:         r.Answer,
		IsCorrect:     r.IsCorrect,
		ResponseTime:  r.ResponseTime,
		PointsAwarded: r.PointsAwarded,
		CreatedAt:     r.CreatedAt,
	}
}

func bankToRow(q *domain.BankQuestion) *bankQuestionRow {
	return &bankQuestionRow{
		ID:             q.ID,
		Type:           string(q.Type),
		Text:           q.Text,
		Options:        q.Options,
		CorrectIndex:   q.CorrectIndex,
		Category:       q.Category,
		IsActive:       q.IsActive,
		YouTubeVideoID: q.YouTubeVideoID,
		AudioStartTime: q.AudioStartTime,
		AudioEndTime:   q.AudioEndTime,
		SongTitle:      q.SongTitle,
		SongArtist:     q.SongArtist,
	}
}

func rowToBank(r *bankQuestionRow) domain.BankQuestion {
	return domain.BankQuestion{
		ID:             r.ID,
		Type:           domain.QuestionType(r.Type),
		Text:           r.Text,
		Options:        r.Options,
		CorrectIndex:   r.CorrectIndex,
		Category:       r.Category,
		IsActive:       r.IsActive,
		YouTubeVideoID: r.YouTubeVideoID,
		AudioStartTime: r.AudioStartTime,
		AudioEndTime:   r.AudioEndTime,
		SongTitle:      r.SongTitle,
		SongArtist:     r.SongArtist,
	}
}
