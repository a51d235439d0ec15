package app

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"christmas-quiz-service/internal/domain"
)

// GameService contains the core game use cases: session lifecycle, joins,
// the host-driven state machine, and answer submission.
type GameService struct {
	store     SessionStore
	bank      QuestionBank
	broadcast Broadcaster
	log       zerolog.Logger
	now       func() time.Time

	mu  sync.Mutex // guards rnd
	rnd *rand.Rand
}

func NewGameService(store SessionStore, bank QuestionBank, broadcast Broadcaster, log zerolog.Logger) *GameService {
	return NewGameServiceWithClock(store, bank, broadcast, log, time.Now)
}

// NewGameServiceWithClock allows deterministic timestamps in tests.
func NewGameServiceWithClock(store SessionStore, bank QuestionBank, broadcast Broadcaster, log zerolog.Logger, now func() time.Time) *GameService {
	return &GameService{
		store:     store,
		bank:      bank,
		broadcast: broadcast,
		log:       log,
		now:       now,
		rnd:       rand.New(rand.NewSource(now().UnixNano())),
	}
}

// CreateSessionParams mirrors the create-session request body.
type CreateSessionParams struct {
	GameMode            domain.GameMode
	TotalQuestions      int
	TimePerQuestion     int
	HostNickname        string
	AutoMode            bool
	ShowLeaderboard     *bool
	RevealDuration      int
	LeaderboardDuration int
}

// CreateSession builds a session with questions sampled from the bank and the
// host registered as the first player.
func (s *GameService) CreateSession(ctx context.Context, params CreateSessionParams) (*domain.Session, error) {
	nickname := strings.TrimSpace(params.HostNickname)
	if nickname == "" {
		return nil, fmt.Errorf("%w: nickname is required", domain.ErrValidation)
	}
	if len(nickname) > domain.MaxNicknameLen {
		return nil, fmt.Errorf("%w: nickname must be at most %d characters", domain.ErrValidation, domain.MaxNicknameLen)
	}

	mode := params.GameMode
	if mode == "" {
		mode = domain.ModeQuiz
	}
	switch mode {
	case domain.ModeQuiz, domain.ModeBlindtest, domain.ModeMixed:
	default:
		return nil, fmt.Errorf("%w: unknown game mode %q", domain.ErrValidation, mode)
	}

	questionCount := clamp(params.TotalQuestions, domain.DefaultQuestions, domain.MinQuestions, domain.MaxQuestions)
	timeLimit := clamp(params.TimePerQuestion, domain.DefaultTimePerQn, domain.MinTimePerQn, domain.MaxTimePerQn)
	revealDuration := params.RevealDuration
	if revealDuration <= 0 {
		revealDuration = domain.RevealDuration
	}
	leaderboardDuration := params.LeaderboardDuration
	if leaderboardDuration <= 0 {
		leaderboardDuration = domain.LeaderboardDuration
	}
	showLeaderboard := true
	if params.ShowLeaderboard != nil {
		showLeaderboard = *params.ShowLeaderboard
	}

	code, err := s.uniqueCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	templates, err := s.bank.ActiveQuestions(ctx, mode)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	if len(templates) == 0 {
		return nil, domain.ErrNoQuestions
	}
	s.shuffle(len(templates), func(i, j int) {
		templates[i], templates[j] = templates[j], templates[i]
	})
	if len(templates) > questionCount {
		templates = templates[:questionCount]
	}

	now := s.now()
	sessionID := uuid.NewString()
	hostID := uuid.NewString()

	session := &domain.Session{
		ID:                  sessionID,
		Code:                code,
		HostID:              hostID,
		Status:              domain.StatusWaiting,
		GameMode:            mode,
		CurrentQuestion:     0,
		TotalQuestions:      len(templates),
		TimePerQuestion:     timeLimit,
		AutoMode:            params.AutoMode,
		ShowLeaderboard:     showLeaderboard,
		RevealDuration:      revealDuration,
		LeaderboardDuration: leaderboardDuration,
		CreatedAt:           now,
		ExpiresAt:           now.Add(domain.SessionExpiry),
		Players: []*domain.Player{{
			ID:          hostID,
			SessionID:   sessionID,
			Nickname:    nickname,
			AvatarColor: s.randomAvatarColor(domain.AvatarColors),
			IsHost:      true,
			JoinedAt:    now,
		}},
	}
	for i, tpl := range templates {
		session.Questions = append(session.Questions, &domain.Question{
			ID:             uuid.NewString(),
			SessionID:      sessionID,
			Order:          i,
			Type:           tpl.Type,
			Text:           tpl.Text,
			Options:        tpl.Options,
			CorrectIndex:   tpl.CorrectIndex,
			TimeLimit:      timeLimit,
			Points:         domain.MaxPointsPerQn,
			YouTubeVideoID: tpl.YouTubeVideoID,
			AudioStartTime: tpl.AudioStartTime,
			AudioEndTime:   tpl.AudioEndTime,
			SongTitle:      tpl.SongTitle,
			SongArtist:     tpl.SongArtist,
		})
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.log.Info().Str("session", sessionID).Str("code", code).
		Str("mode", string(mode)).Int("questions", len(templates)).Msg("session created")
	return session, nil
}

// Join registers a player into a waiting session and announces it.
func (s *GameService) Join(ctx context.Context, sessionID, nickname string) (*domain.Player, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, fmt.Errorf("%w: nickname is required", domain.ErrValidation)
	}
	if len(nickname) > domain.MaxNicknameLen {
		return nil, fmt.Errorf("%w: nickname must be at most %d characters", domain.ErrValidation, domain.MaxNicknameLen)
	}

	session, err := s.store.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.StatusWaiting {
		return nil, domain.ErrAlreadyStarted
	}
	if session.Expired(s.now()) {
		return nil, domain.ErrSessionExpired
	}
	if len(session.Players) >= domain.MaxPlayers {
		return nil, domain.ErrSessionFull
	}
	for _, p := range session.Players {
		if strings.EqualFold(p.Nickname, nickname) {
			return nil, domain.ErrNicknameTaken
		}
	}

	player := &domain.Player{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Nickname:    nickname,
		AvatarColor: s.randomAvatarColor(domain.AvatarColors),
		JoinedAt:    s.now(),
	}
	if err := s.store.AddPlayer(ctx, player); err != nil {
		return nil, err
	}

	s.publish(ctx, sessionID, domain.PlayerJoined{
		Player: domain.PlayerInfo{
			ID:          player.ID,
			Nickname:    player.Nickname,
			AvatarColor: player.AvatarColor,
		},
		PlayerCount: len(session.Players) + 1,
	})
	return player, nil
}

// Leave removes a player from the session and announces the departure.
func (s *GameService) Leave(ctx context.Context, sessionID, playerID string) error {
	player, err := s.store.Player(ctx, playerID)
	if err != nil {
		return err
	}
	if err := s.store.RemovePlayer(ctx, playerID); err != nil {
		return err
	}

	remaining, err := s.store.Players(ctx, sessionID)
	if err != nil {
		remaining = nil
	}
	s.publish(ctx, sessionID, domain.PlayerLeft{
		PlayerID:    playerID,
		Nickname:    player.Nickname,
		PlayerCount: len(remaining),
	})
	return nil
}

// Session fetches a session with its players, enforcing expiry.
func (s *GameService) Session(ctx context.Context, id string) (*domain.Session, error) {
	session, err := s.store.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, domain.ErrSessionExpired
	}
	return session, nil
}

// SessionByCode fetches a session by its join code (case-insensitive).
func (s *GameService) SessionByCode(ctx context.Context, code string) (*domain.Session, error) {
	session, err := s.store.SessionByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, domain.ErrSessionExpired
	}
	return session, nil
}

// publish is best effort: state changes are already persisted when we get
// here, and delivery guarantees are the broker's concern.
func (s *GameService) publish(ctx context.Context, sessionID string, events ...domain.Event) {
	if err := s.broadcast.Publish(ctx, sessionID, events...); err != nil {
		s.log.Warn().Err(err).Str("session", sessionID).Msg("broadcast failed")
	}
}

func clamp(v, def, min, max int) int {
	if v == 0 {
		v = def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
