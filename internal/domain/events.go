package domain

import (
	"encoding/json"
	"fmt"
)

// Event names carried on a session's broadcast channel.
const (
	EventPlayerJoined       = "player-joined"
	EventPlayerLeft         = "player-left"
	EventGameStarted        = "game-started"
	EventNewQuestion        = "new-question"
	EventNewQuestionHost    = "new-question-host"
	EventQuestionTimerStart = "question-timer-start"
	EventAnswerReceived     = "answer-received"
	EventQuestionEnded      = "question-ended"
	EventLeaderboardUpdate  = "leaderboard-update"
	EventGameFinished       = "game-finished"
	EventGameStopped        = "game-stopped"
)

// Event is the closed set of broadcast payloads. Implementations live in this
// file only; transports should switch on the concrete type, not on strings.
type Event interface {
	EventName() string
}

// PlayerInfo is the roster view of a player shared with all clients.
type PlayerInfo struct {
	ID          string `json:"id"`
	Nickname    string `json:"nickname"`
	AvatarColor string `json:"avatarColor"`
}

// PlayerJoined announces a new roster member.
type PlayerJoined struct {
	Player      PlayerInfo `json:"player"`
	PlayerCount int        `json:"playerCount"`
}

// PlayerLeft announces a departure.
type PlayerLeft struct {
	PlayerID    string `json:"playerId"`
	Nickname    string `json:"nickname"`
	PlayerCount int    `json:"playerCount"`
}

// GameStarted signals the WAITING -> QUESTION transition.
type GameStarted struct {
	Status          SessionStatus `json:"status"`
	CurrentQuestion int           `json:"currentQuestion"`
	TotalQuestions  int           `json:"totalQuestions"`
}

// QuestionPayload is the player-safe question view: no correct answer, no song
// metadata (blindtest answers would leak through the title).
type QuestionPayload struct {
	ID             string       `json:"id"`
	QuestionNumber int          `json:"questionNumber"` // 1-based
	TotalQuestions int          `json:"totalQuestions"`
	Type           QuestionType `json:"type"`
	Text           string       `json:"text,omitempty"`
	Options        []string     `json:"options"`
	TimeLimit      int          `json:"timeLimit"`
	MaxPoints      int          `json:"maxPoints"`
	YouTubeVideoID string       `json:"youtubeVideoId,omitempty"`
	AudioStartTime int          `json:"audioStartTime,omitempty"`
	AudioEndTime   int          `json:"audioEndTime,omitempty"`
}

// NewQuestion carries the player-safe payload.
type NewQuestion struct {
	QuestionPayload
}

// NewQuestionHost is the enriched host view, including the answer key.
type NewQuestionHost struct {
	QuestionPayload
	CorrectIndex int    `json:"correctIndex"`
	SongTitle    string `json:"songTitle,omitempty"`
	SongArtist   string `json:"songArtist,omitempty"`
}

// QuestionTimerStart is emitted when the host signals that audio playback is
// done and the per-player countdown should begin.
type QuestionTimerStart struct {
	QuestionIndex int `json:"questionIndex"`
}

// AnswerReceived carries only the running respondent count, never the answer.
type AnswerReceived struct {
	PlayerID      string `json:"playerId"`
	AnsweredCount int    `json:"answeredCount"`
	TotalPlayers  int    `json:"totalPlayers"`
}

// AnswerStats summarizes the answers to one question at reveal time.
type AnswerStats struct {
	TotalAnswers       int    `json:"totalAnswers"`
	CorrectAnswers     int    `json:"correctAnswers"`
	AnswerDistribution [4]int `json:"answerDistribution"`
}

// QuestionEnded reveals the correct answer plus aggregate stats.
type QuestionEnded struct {
	CorrectIndex  int         `json:"correctIndex"`
	CorrectAnswer string      `json:"correctAnswer,omitempty"`
	Stats         AnswerStats `json:"stats"`
}

// LeaderboardUpdate carries the ranked standings after a reveal.
type LeaderboardUpdate struct {
	Rankings []LeaderboardEntry `json:"rankings"`
}

// GameFinished carries the final standings and the winner.
type GameFinished struct {
	FinalRankings []LeaderboardEntry `json:"finalRankings"`
	Winner        Winner             `json:"winner"`
}

// GameStopped mirrors GameFinished; it is emitted (alongside GameFinished)
// when the host aborts the game early so both listener paths converge.
type GameStopped struct {
	FinalRankings []LeaderboardEntry `json:"finalRankings"`
	Winner        Winner             `json:"winner"`
}

func (PlayerJoined) EventName() string       { return EventPlayerJoined }
func (PlayerLeft) EventName() string         { return EventPlayerLeft }
func (GameStarted) EventName() string        { return EventGameStarted }
func (NewQuestion) EventName() string        { return EventNewQuestion }
func (NewQuestionHost) EventName() string    { return EventNewQuestionHost }
func (QuestionTimerStart) EventName() string { return EventQuestionTimerStart }
func (AnswerReceived) EventName() string     { return EventAnswerReceived }
func (QuestionEnded) EventName() string      { return EventQuestionEnded }
func (LeaderboardUpdate) EventName() string  { return EventLeaderboardUpdate }
func (GameFinished) EventName() string       { return EventGameFinished }
func (GameStopped) EventName() string        { return EventGameStopped }

// Envelope is the wire form of an event on the broadcast channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// EncodeEvent wraps an event into its wire envelope.
func EncodeEvent(ev Event) (Envelope, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", ev.EventName(), err)
	}
	return Envelope{Event: ev.EventName(), Data: data}, nil
}

// DecodeEvent restores the typed event from an envelope. Unknown names are an
// error so that protocol drift fails loudly instead of being silently dropped.
func DecodeEvent(env Envelope) (Event, error) {
	var ev Event
	switch env.Event {
	case EventPlayerJoined:
		ev = &PlayerJoined{}
	case EventPlayerLeft:
		ev = &PlayerLeft{}
	case EventGameStarted:
		ev = &GameStarted{}
	case EventNewQuestion:
		ev = &NewQuestion{}
	case EventNewQuestionHost:
		ev = &NewQuestionHost{}
	case EventQuestionTimerStart:
		ev = &QuestionTimerStart{}
	case EventAnswerReceived:
		ev = &AnswerReceived{}
	case EventQuestionEnded:
		ev = &QuestionEnded{}
	case EventLeaderboardUpdate:
		ev = &LeaderboardUpdate{}
	case EventGameFinished:
		ev = &GameFinished{}
	case EventGameStopped:
		ev = &GameStopped{}
	default:
		return nil, fmt.Errorf("unknown event %q", env.Event)
	}
	if err := json.Unmarshal(env.Data, ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Event, err)
	}
	return ev, nil
}
