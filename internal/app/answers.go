package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"christmas-quiz-service/internal/domain"
)

// SubmitAnswerParams mirrors the answer submission request body.
type SubmitAnswerParams struct {
	PlayerID     string
	QuestionID   string
	Value        string
	ResponseTime int64 // milliseconds, client-measured
}

// SubmitAnswerResult is echoed back to the submitting player only.
type SubmitAnswerResult struct {
	IsCorrect     bool  `json:"isCorrect"`
	PointsAwarded int   `json:"pointsAwarded"`
	TotalScore    int   `json:"totalScore"`
	ResponseTime  int64 `json:"responseTime"`
}

// SubmitAnswer records a player's answer exactly once, scores it by latency,
// updates the cumulative score, and broadcasts only the respondent count so
// other clients can show a live counter without leaking the chosen option.
func (s *GameService) SubmitAnswer(ctx context.Context, sessionID string, params SubmitAnswerParams) (SubmitAnswerResult, error) {
	if params.PlayerID == "" || params.QuestionID == "" || params.Value == "" {
		return SubmitAnswerResult{}, fmt.Errorf("%w: playerId, questionId and answer are required", domain.ErrValidation)
	}
	if params.ResponseTime < 0 {
		return SubmitAnswerResult{}, fmt.Errorf("%w: responseTime must not be negative", domain.ErrValidation)
	}

	question, err := s.store.Question(ctx, params.QuestionID)
	if err != nil {
		return SubmitAnswerResult{}, err
	}
	if question.SessionID != sessionID {
		return SubmitAnswerResult{}, domain.ErrQuestionNotFound
	}
	session, err := s.store.Session(ctx, sessionID)
	if err != nil {
		return SubmitAnswerResult{}, err
	}
	if session.Status != domain.StatusQuestion {
		return SubmitAnswerResult{}, domain.ErrQuestionClosed
	}

	// Blindtest options are quiz-style multiple choice over song names, so both
	// question types compare the same way.
	chosen, convErr := strconv.Atoi(params.Value)
	isCorrect := convErr == nil && chosen == question.CorrectIndex

	points := 0
	if isCorrect {
		points = Score(params.ResponseTime, int64(question.TimeLimit)*1000, question.Points)
	}

	answer := &domain.Answer{
		ID:            uuid.NewString(),
		PlayerID:      params.PlayerID,
		QuestionID:    params.QuestionID,
		Value:         params.Value,
		IsCorrect:     isCorrect,
		ResponseTime:  params.ResponseTime,
		PointsAwarded: points,
		CreatedAt:     s.now(),
	}
	if err := s.store.AddAnswer(ctx, answer); err != nil {
		return SubmitAnswerResult{}, err
	}

	total, err := s.store.AddScore(ctx, params.PlayerID, points)
	if err != nil {
		return SubmitAnswerResult{}, err
	}

	answered, err := s.store.CountAnswers(ctx, params.QuestionID)
	if err != nil {
		return SubmitAnswerResult{}, err
	}
	totalPlayers := 0
	for _, p := range session.Players {
		if !p.IsHost {
			totalPlayers++
		}
	}

	s.publish(ctx, sessionID, domain.AnswerReceived{
		PlayerID:      params.PlayerID,
		AnsweredCount: answered,
		TotalPlayers:  totalPlayers,
	})

	return SubmitAnswerResult{
		IsCorrect:     isCorrect,
		PointsAwarded: points,
		TotalScore:    total,
		ResponseTime:  params.ResponseTime,
	}, nil
}
