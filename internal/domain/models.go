package domain

import "time"

// SessionStatus is the server-side lifecycle state of a game session.
type SessionStatus string

const (
	StatusWaiting     SessionStatus = "WAITING"
	StatusQuestion    SessionStatus = "QUESTION"
	StatusReveal      SessionStatus = "REVEAL"
	StatusLeaderboard SessionStatus = "LEADERBOARD"
	StatusFinished    SessionStatus = "FINISHED"
)

// GameMode selects which question types a session samples from the bank.
type GameMode string

const (
	ModeQuiz      GameMode = "QUIZ"
	ModeBlindtest GameMode = "BLINDTEST"
	ModeMixed     GameMode = "MIXED"
)

// QuestionType distinguishes standard MCQ from music-recognition questions.
type QuestionType string

const (
	TypeQuiz      QuestionType = "QUIZ"
	TypeBlindtest QuestionType = "BLINDTEST"
)

// Game rule limits.
const (
	SessionExpiry       = 4 * time.Hour
	MinPlayers          = 1
	MaxPlayers          = 10
	DefaultQuestions    = 10
	MinQuestions        = 5
	MaxQuestions        = 200
	DefaultTimePerQn    = 20 // seconds
	MinTimePerQn        = 10
	MaxTimePerQn        = 60
	RevealDuration      = 3 // seconds
	LeaderboardDuration = 5 // seconds
	MaxPointsPerQn      = 1000
	MinPointsPerQn      = 100
	MaxNicknameLen      = 20
)

// AvatarColors is the fixed palette players are assigned from.
var AvatarColors = []string{
	"#E21B3C", "#1368CE", "#D89E00", "#26890C",
	"#9C27B0", "#FF6F00", "#00BCD4", "#E91E63",
}

// Session owns an ordered question sequence and a set of players. The state
// machine mutates status/currentQuestion; nothing is physically deleted by the
// core logic (expiry is advisory).
type Session struct {
	ID                  string        `json:"id"`
	Code                string        `json:"code"`
	HostID              string        `json:"hostId,omitempty"`
	Status              SessionStatus `json:"status"`
	GameMode            GameMode      `json:"gameMode"`
	CurrentQuestion     int           `json:"currentQuestion"`
	TotalQuestions      int           `json:"totalQuestions"`
	TimePerQuestion     int           `json:"timePerQuestion"` // seconds
	AutoMode            bool          `json:"autoMode"`
	ShowLeaderboard     bool          `json:"showLeaderboard"`
	RevealDuration      int           `json:"revealDuration"`      // seconds
	LeaderboardDuration int           `json:"leaderboardDuration"` // seconds
	CreatedAt           time.Time     `json:"createdAt"`
	ExpiresAt           time.Time     `json:"expiresAt"`

	Players   []*Player   `json:"players,omitempty"`
	Questions []*Question `json:"questions,omitempty"`
}

// Expired reports whether the session is past its advisory expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Player belongs to exactly one session. Nickname is unique per session
// (case-insensitive); score only ever increases.
type Player struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	Nickname    string    `json:"nickname"`
	AvatarColor string    `json:"avatarColor"`
	Score       int       `json:"score"`
	IsHost      bool      `json:"isHost"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// Question is immutable once its session starts. Blindtest questions carry a
// media reference and display metadata on top of the MCQ fields.
type Question struct {
	ID           string       `json:"id"`
	SessionID    string       `json:"sessionId"`
	Order        int          `json:"order"`
	Type         QuestionType `json:"type"`
	Text         string       `json:"text,omitempty"`
	Options      []string     `json:"options"`
	CorrectIndex int          `json:"correctIndex"`
	TimeLimit    int          `json:"timeLimit"` // seconds
	Points       int          `json:"points"`

	YouTubeVideoID string `json:"youtubeVideoId,omitempty"`
	AudioStartTime int    `json:"audioStartTime,omitempty"` // seconds into the video
	AudioEndTime   int    `json:"audioEndTime,omitempty"`
	SongTitle      string `json:"songTitle,omitempty"`
	SongArtist     string `json:"songArtist,omitempty"`
}

// Answer is created exactly once per (player, question) pair and never mutated.
type Answer struct {
	ID            string    `json:"id"`
	PlayerID      string    `json:"playerId"`
	QuestionID    string    `json:"questionId"`
	Value         string    `json:"answer"`
	IsCorrect     bool      `json:"isCorrect"`
	ResponseTime  int64     `json:"responseTime"` // milliseconds, client-measured
	PointsAwarded int       `json:"pointsAwarded"`
	CreatedAt     time.Time `json:"createdAt"`
}

// BankQuestion is a reusable template in the question bank, independent of any
// session. Sessions sample from active templates at creation time.
type BankQuestion struct {
	ID           string       `json:"id"`
	Type         QuestionType `json:"type"`
	Text         string       `json:"text,omitempty"`
	Options      []string     `json:"options"`
	CorrectIndex int          `json:"correctIndex"`
	Category     string       `json:"category,omitempty"`
	IsActive     bool         `json:"isActive"`

	YouTubeVideoID string `json:"youtubeVideoId,omitempty"`
	AudioStartTime int    `json:"audioStartTime,omitempty"`
	AudioEndTime   int    `json:"audioEndTime,omitempty"`
	SongTitle      string `json:"songTitle,omitempty"`
	SongArtist     string `json:"songArtist,omitempty"`
}

// LeaderboardEntry is a ranked view of one player.
type LeaderboardEntry struct {
	PlayerID     string `json:"playerId"`
	Nickname     string `json:"nickname"`
	AvatarColor  string `json:"avatarColor"`
	Score        int    `json:"score"`
	Rank         int    `json:"rank"`
	PointsGained int    `json:"pointsGained,omitempty"`
}

// Winner identifies the top-ranked player at game end.
type Winner struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}
