package app

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"christmas-quiz-service/internal/domain"
)

// NextAction is the optional hint carried by the "next" endpoint.
type NextAction string

const (
	ActionAdvance     NextAction = ""
	ActionReveal      NextAction = "reveal"
	ActionLeaderboard NextAction = "leaderboard"
)

// NextResult reports what the state machine did and the payload it broadcast.
type NextResult struct {
	Status          domain.SessionStatus      `json:"status"`
	CurrentQuestion int                       `json:"currentQuestion"`
	Question        *domain.NewQuestionHost   `json:"question,omitempty"`
	Reveal          *domain.QuestionEnded     `json:"reveal,omitempty"`
	Leaderboard     []domain.LeaderboardEntry `json:"leaderboard,omitempty"`
	FinalRankings   []domain.LeaderboardEntry `json:"finalRankings,omitempty"`
	Winner          *domain.Winner            `json:"winner,omitempty"`
}

// Start moves a waiting session to its first question and broadcasts the
// dual question payloads (player-safe and host).
func (s *GameService) Start(ctx context.Context, sessionID, hostID string) (NextResult, error) {
	session, err := s.store.Session(ctx, sessionID)
	if err != nil {
		return NextResult{}, err
	}
	if session.HostID != hostID {
		return NextResult{}, domain.ErrNotHost
	}
	if session.Status != domain.StatusWaiting {
		return NextResult{}, domain.ErrAlreadyStarted
	}

	question, err := s.store.QuestionAt(ctx, sessionID, 0)
	if err != nil {
		if errors.Is(err, domain.ErrQuestionNotFound) {
			return NextResult{}, domain.ErrNoQuestions
		}
		return NextResult{}, err
	}

	if err := s.store.TransitionStatus(ctx, sessionID, domain.StatusWaiting, domain.StatusQuestion, 0); err != nil {
		return NextResult{}, err
	}

	forPlayers, forHost := questionPayloads(question, session.TotalQuestions)
	s.publish(ctx, sessionID,
		domain.GameStarted{
			Status:          domain.StatusQuestion,
			CurrentQuestion: 0,
			TotalQuestions:  session.TotalQuestions,
		},
		forPlayers,
		forHost,
	)
	s.log.Info().Str("session", sessionID).Msg("game started")
	return NextResult{Status: domain.StatusQuestion, CurrentQuestion: 0, Question: &forHost}, nil
}

// Next advances the session: QUESTION -> REVEAL -> LEADERBOARD -> next
// QUESTION (or FINISHED past the last index). The action hint forces the
// reveal/leaderboard branches the same way the implicit status check does.
// Each transition is guarded by a status precondition so that two
// near-simultaneous calls cannot double-advance: the loser gets
// domain.ErrStatusConflict.
func (s *GameService) Next(ctx context.Context, sessionID, hostID string, action NextAction) (NextResult, error) {
	session, err := s.store.Session(ctx, sessionID)
	if err != nil {
		return NextResult{}, err
	}
	if session.HostID != hostID {
		return NextResult{}, domain.ErrNotHost
	}

	if action == ActionReveal || session.Status == domain.StatusQuestion {
		return s.reveal(ctx, session)
	}
	if action == ActionLeaderboard || session.Status == domain.StatusReveal {
		return s.leaderboard(ctx, session)
	}
	return s.advance(ctx, session)
}

func (s *GameService) reveal(ctx context.Context, session *domain.Session) (NextResult, error) {
	question, err := s.store.QuestionAt(ctx, session.ID, session.CurrentQuestion)
	if err != nil {
		return NextResult{}, err
	}
	answers, err := s.store.Answers(ctx, question.ID)
	if err != nil {
		return NextResult{}, err
	}

	stats := domain.AnswerStats{TotalAnswers: len(answers)}
	for _, a := range answers {
		if a.IsCorrect {
			stats.CorrectAnswers++
		}
		if idx, err := strconv.Atoi(a.Value); err == nil && idx >= 0 && idx < len(stats.AnswerDistribution) {
			stats.AnswerDistribution[idx]++
		}
	}
	ended := domain.QuestionEnded{
		CorrectIndex: question.CorrectIndex,
		Stats:        stats,
	}
	if question.CorrectIndex >= 0 && question.CorrectIndex < len(question.Options) {
		ended.CorrectAnswer = question.Options[question.CorrectIndex]
	}

	if err := s.store.TransitionStatus(ctx, session.ID, session.Status, domain.StatusReveal, session.CurrentQuestion); err != nil {
		return NextResult{}, err
	}
	s.publish(ctx, session.ID, ended)
	return NextResult{Status: domain.StatusReveal, CurrentQuestion: session.CurrentQuestion, Reveal: &ended}, nil
}

func (s *GameService) leaderboard(ctx context.Context, session *domain.Session) (NextResult, error) {
	question, err := s.store.QuestionAt(ctx, session.ID, session.CurrentQuestion)
	if err != nil {
		return NextResult{}, err
	}
	answers, err := s.store.Answers(ctx, question.ID)
	if err != nil {
		return NextResult{}, err
	}
	players, err := s.store.Players(ctx, session.ID)
	if err != nil {
		return NextResult{}, err
	}
	rankings := rankPlayers(players, answers)

	if err := s.store.TransitionStatus(ctx, session.ID, session.Status, domain.StatusLeaderboard, session.CurrentQuestion); err != nil {
		return NextResult{}, err
	}
	s.publish(ctx, session.ID, domain.LeaderboardUpdate{Rankings: rankings})
	return NextResult{Status: domain.StatusLeaderboard, CurrentQuestion: session.CurrentQuestion, Leaderboard: rankings}, nil
}

func (s *GameService) advance(ctx context.Context, session *domain.Session) (NextResult, error) {
	nextIndex := session.CurrentQuestion + 1
	if nextIndex >= session.TotalQuestions {
		return s.finish(ctx, session)
	}

	question, err := s.store.QuestionAt(ctx, session.ID, nextIndex)
	if err != nil {
		return NextResult{}, err
	}
	if err := s.store.TransitionStatus(ctx, session.ID, session.Status, domain.StatusQuestion, nextIndex); err != nil {
		return NextResult{}, err
	}

	forPlayers, forHost := questionPayloads(question, session.TotalQuestions)
	s.publish(ctx, session.ID, forPlayers, forHost)
	return NextResult{Status: domain.StatusQuestion, CurrentQuestion: nextIndex, Question: &forHost}, nil
}

func (s *GameService) finish(ctx context.Context, session *domain.Session) (NextResult, error) {
	players, err := s.store.Players(ctx, session.ID)
	if err != nil {
		return NextResult{}, err
	}
	rankings := rankPlayers(players, nil)
	winner := pickWinner(rankings)

	if err := s.store.TransitionStatus(ctx, session.ID, session.Status, domain.StatusFinished, session.CurrentQuestion); err != nil {
		return NextResult{}, err
	}
	s.publish(ctx, session.ID, domain.GameFinished{FinalRankings: rankings, Winner: winner})
	s.log.Info().Str("session", session.ID).Str("winner", winner.Nickname).Msg("game finished")
	return NextResult{Status: domain.StatusFinished, FinalRankings: rankings, Winner: &winner}, nil
}

// Stop forces the session to FINISHED from any state. Stopping an already
// finished session returns the existing final rankings without re-broadcasting.
func (s *GameService) Stop(ctx context.Context, sessionID, hostID string) (NextResult, error) {
	session, err := s.store.Session(ctx, sessionID)
	if err != nil {
		return NextResult{}, err
	}
	if session.HostID != hostID {
		return NextResult{}, domain.ErrNotHost
	}

	rankings := rankPlayers(session.Players, nil)
	winner := pickWinner(rankings)
	if session.Status == domain.StatusFinished {
		return NextResult{Status: domain.StatusFinished, FinalRankings: rankings, Winner: &winner}, nil
	}

	if err := s.store.SetStatus(ctx, sessionID, domain.StatusFinished); err != nil {
		return NextResult{}, err
	}
	// Both event names fire so host- and player-side listeners converge.
	s.publish(ctx, sessionID,
		domain.GameStopped{FinalRankings: rankings, Winner: winner},
		domain.GameFinished{FinalRankings: rankings, Winner: winner},
	)
	s.log.Info().Str("session", sessionID).Msg("game stopped by host")
	return NextResult{Status: domain.StatusFinished, FinalRankings: rankings, Winner: &winner}, nil
}

// StartTimer broadcasts the question-timer-start signal once the host's audio
// playback is done, decoupling media play time from answer time.
func (s *GameService) StartTimer(ctx context.Context, sessionID, hostID string) error {
	session, err := s.store.Session(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.HostID != hostID {
		return domain.ErrNotHost
	}
	s.publish(ctx, sessionID, domain.QuestionTimerStart{QuestionIndex: session.CurrentQuestion})
	return nil
}

func questionPayloads(q *domain.Question, totalQuestions int) (domain.NewQuestion, domain.NewQuestionHost) {
	base := domain.QuestionPayload{
		ID:             q.ID,
		QuestionNumber: q.Order + 1,
		TotalQuestions: totalQuestions,
		Type:           q.Type,
		Text:           q.Text,
		Options:        q.Options,
		TimeLimit:      q.TimeLimit,
		MaxPoints:      q.Points,
		YouTubeVideoID: q.YouTubeVideoID,
		AudioStartTime: q.AudioStartTime,
		AudioEndTime:   q.AudioEndTime,
	}
	return domain.NewQuestion{QuestionPayload: base}, domain.NewQuestionHost{
		QuestionPayload: base,
		CorrectIndex:    q.CorrectIndex,
		SongTitle:       q.SongTitle,
		SongArtist:      q.SongArtist,
	}
}

// rankPlayers orders non-host players by score (ties broken by earliest join,
// then nickname) and annotates points gained on the just-revealed question.
func rankPlayers(players []*domain.Player, answers []*domain.Answer) []domain.LeaderboardEntry {
	gained := make(map[string]int, len(answers))
	for _, a := range answers {
		gained[a.PlayerID] = a.PointsAwarded
	}

	ranked := make([]*domain.Player, 0, len(players))
	for _, p := range players {
		if !p.IsHost {
			ranked = append(ranked, p)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if !ranked[i].JoinedAt.Equal(ranked[j].JoinedAt) {
			return ranked[i].JoinedAt.Before(ranked[j].JoinedAt)
		}
		return ranked[i].Nickname < ranked[j].Nickname
	})

	entries := make([]domain.LeaderboardEntry, 0, len(ranked))
	for i, p := range ranked {
		entries = append(entries, domain.LeaderboardEntry{
			PlayerID:     p.ID,
			Nickname:     p.Nickname,
			AvatarColor:  p.AvatarColor,
			Score:        p.Score,
			Rank:         i + 1,
			PointsGained: gained[p.ID],
		})
	}
	return entries
}

func pickWinner(rankings []domain.LeaderboardEntry) domain.Winner {
	if len(rankings) == 0 {
		return domain.Winner{Nickname: "Nobody"}
	}
	top := rankings[0]
	return domain.Winner{PlayerID: top.PlayerID, Nickname: top.Nickname, Score: top.Score}
}
