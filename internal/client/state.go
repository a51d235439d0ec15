// Package client holds the client-side view of a running game: a pure reducer
// over the broadcast event union plus derived per-player statistics. It owns
// no authority over game progression; it only reflects what the server
// broadcasts.
package client

import (
	"christmas-quiz-service/internal/app"
	"christmas-quiz-service/internal/domain"
)

// Status is the local UI status, a superset of the server-side session status:
// "audio" and "answered" exist only client-side.
type Status string

const (
	StatusConnecting  Status = "connecting"
	StatusWaiting     Status = "waiting"
	StatusAudio       Status = "audio"
	StatusQuestion    Status = "question"
	StatusAnswered    Status = "answered"
	StatusReveal      Status = "reveal"
	StatusLeaderboard Status = "leaderboard"
	StatusFinished    Status = "finished"
)

// Stats accumulates client-only per-player statistics for the end-of-game
// screen. The server never sees these.
type Stats struct {
	CorrectAnswers int
	TotalQuestions int
	ResponseTimes  []int64 // milliseconds
	CurrentStreak  int
	BestStreak     int
}

// State is the full client view. All updates go through the pure functions in
// this package so the state stays testable in isolation.
type State struct {
	Status    Status
	SessionID string
	PlayerID  string
	IsHost    bool

	Players         []domain.PlayerInfo
	CurrentQuestion *domain.QuestionPayload
	CorrectIndex    *int // known after reveal (players) or with the host payload
	Leaderboard     []domain.LeaderboardEntry
	AnsweredCount   int
	TotalPlayers    int
	// TimerStarts counts question-timer-start signals; it increments when the
	// host reports audio playback finished, so blindtest countdowns begin on
	// the signal rather than on question display.
	TimerStarts int

	LastAnswer *app.SubmitAnswerResult
	Stats      Stats
}

// NewState returns the initial, not-yet-subscribed view.
func NewState(sessionID, playerID string, isHost bool) State {
	return State{
		Status:    StatusConnecting,
		SessionID: sessionID,
		PlayerID:  playerID,
		IsHost:    isHost,
	}
}

// Connected marks the subscription as established.
func Connected(s State) State {
	s.Status = StatusWaiting
	return s
}

// Apply folds one broadcast event into the view. It is pure: the input state
// is never mutated.
func Apply(s State, ev domain.Event) State {
	switch e := ev.(type) {
	case *domain.PlayerJoined:
		s.Players = upsertPlayer(s.Players, e.Player)
	case *domain.PlayerLeft:
		s.Players = removePlayer(s.Players, e.PlayerID)
	case *domain.GameStarted:
		s.Status = StatusQuestion
	case *domain.NewQuestion:
		if !s.IsHost {
			s = withQuestion(s, e.QuestionPayload, nil)
		}
	case *domain.NewQuestionHost:
		if s.IsHost {
			idx := e.CorrectIndex
			s = withQuestion(s, e.QuestionPayload, &idx)
		}
	case *domain.QuestionTimerStart:
		if !s.IsHost {
			s.TimerStarts++
		}
	case *domain.AnswerReceived:
		s.AnsweredCount = e.AnsweredCount
		s.TotalPlayers = e.TotalPlayers
	case *domain.QuestionEnded:
		s.Status = StatusReveal
		idx := e.CorrectIndex
		s.CorrectIndex = &idx
	case *domain.LeaderboardUpdate:
		s.Status = StatusLeaderboard
		s.Leaderboard = e.Rankings
	case *domain.GameFinished:
		s.Status = StatusFinished
		s.Leaderboard = e.FinalRankings
	case *domain.GameStopped:
		s.Status = StatusFinished
		s.Leaderboard = e.FinalRankings
	}
	return s
}

// ApplyAnswer records the player's own submission outcome and updates the
// streak / response-time history.
func ApplyAnswer(s State, res app.SubmitAnswerResult) State {
	s.Status = StatusAnswered
	s.LastAnswer = &res

	stats := s.Stats
	stats.TotalQuestions++
	if res.IsCorrect {
		stats.CorrectAnswers++
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.BestStreak {
			stats.BestStreak = stats.CurrentStreak
		}
	} else {
		stats.CurrentStreak = 0
	}
	times := make([]int64, len(stats.ResponseTimes), len(stats.ResponseTimes)+1)
	copy(times, stats.ResponseTimes)
	stats.ResponseTimes = append(times, res.ResponseTime)
	s.Stats = stats
	return s
}

// FinalStats is the end-of-game summary derived from the accumulated stats.
type FinalStats struct {
	CorrectAnswers      int
	TotalQuestions      int
	AverageResponseTime float64 // seconds
	BestStreak          int
}

// Summarize computes the end-of-game statistics view.
func Summarize(s State) FinalStats {
	out := FinalStats{
		CorrectAnswers: s.Stats.CorrectAnswers,
		TotalQuestions: s.Stats.TotalQuestions,
		BestStreak:     s.Stats.BestStreak,
	}
	if len(s.Stats.ResponseTimes) > 0 {
		var sum int64
		for _, t := range s.Stats.ResponseTimes {
			sum += t
		}
		out.AverageResponseTime = float64(sum) / float64(len(s.Stats.ResponseTimes)) / 1000
	}
	return out
}

func upsertPlayer(players []domain.PlayerInfo, p domain.PlayerInfo) []domain.PlayerInfo {
	out := make([]domain.PlayerInfo, 0, len(players)+1)
	for _, existing := range players {
		if existing.ID != p.ID {
			out = append(out, existing)
		}
	}
	return append(out, p)
}

func removePlayer(players []domain.PlayerInfo, id string) []domain.PlayerInfo {
	out := make([]domain.PlayerInfo, 0, len(players))
	for _, existing := range players {
		if existing.ID != id {
			out = append(out, existing)
		}
	}
	return out
}

func withQuestion(s State, q domain.QuestionPayload, correctIndex *int) State {
	s.Status = StatusQuestion
	s.CurrentQuestion = &q
	s.CorrectIndex = correctIndex
	s.LastAnswer = nil
	s.AnsweredCount = 0
	return s
}
