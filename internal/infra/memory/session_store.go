package memory

import (
	"context"
	"sort"
	"sync"

	"christmas-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore, used in
// dev mode (no Postgres configured) and in unit tests.
type SessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]*domain.Session
	codes     map[string]string // code -> session id
	players   map[string]*domain.Player
	roster    map[string][]string // session id -> player ids, join order
	questions map[string]*domain.Question
	sequence  map[string][]string // session id -> question ids, by order
	answers   map[string][]*domain.Answer // question id -> answers
	answered  map[string]struct{}         // playerID+"|"+questionID
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:  make(map[string]*domain.Session),
		codes:     make(map[string]string),
		players:   make(map[string]*domain.Player),
		roster:    make(map[string][]string),
		questions: make(map[string]*domain.Question),
		sequence:  make(map[string][]string),
		answers:   make(map[string][]*domain.Answer),
		answered:  make(map[string]struct{}),
	}
}

func (s *SessionStore) CreateSession(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *session
	stored.Players = nil
	stored.Questions = nil
	s.sessions[session.ID] = &stored
	s.codes[session.Code] = session.ID

	for _, p := range session.Players {
		cp := *p
		s.players[p.ID] = &cp
		s.roster[session.ID] = append(s.roster[session.ID], p.ID)
	}
	for _, q := range session.Questions {
		cq := *q
		s.questions[q.ID] = &cq
		s.sequence[session.ID] = append(s.sequence[session.ID], q.ID)
	}
	return nil
}

func (s *SessionStore) Session(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionLocked(id)
}

func (s *SessionStore) SessionByCode(_ context.Context, code string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codes[code]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s.sessionLocked(id)
}

func (s *SessionStore) sessionLocked(id string) (*domain.Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := *session
	out.Players = s.playersLocked(id)
	return &out, nil
}

func (s *SessionStore) CodeInUse(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.codes[code]
	return ok, nil
}

func (s *SessionStore) TransitionStatus(_ context.Context, sessionID string, from, to domain.SessionStatus, currentQuestion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if session.Status != from {
		return domain.ErrStatusConflict
	}
	session.Status = to
	session.CurrentQuestion = currentQuestion
	return nil
}

func (s *SessionStore) SetStatus(_ context.Context, sessionID string, status domain.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Status = status
	return nil
}

func (s *SessionStore) AddPlayer(_ context.Context, player *domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[player.SessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	cp := *player
	s.players[player.ID] = &cp
	s.roster[player.SessionID] = append(s.roster[player.SessionID], player.ID)
	return nil
}

func (s *SessionStore) Player(_ context.Context, playerID string) (*domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[playerID]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	out := *player
	return &out, nil
}

func (s *SessionStore) RemovePlayer(_ context.Context, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	delete(s.players, playerID)
	ids := s.roster[player.SessionID]
	for i, id := range ids {
		if id == playerID {
			s.roster[player.SessionID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (s *SessionStore) Players(_ context.Context, sessionID string) ([]*domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s.playersLocked(sessionID), nil
}

func (s *SessionStore) playersLocked(sessionID string) []*domain.Player {
	out := make([]*domain.Player, 0, len(s.roster[sessionID]))
	for _, id := range s.roster[sessionID] {
		if p, ok := s.players[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

func (s *SessionStore) AddScore(_ context.Context, playerID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[playerID]
	if !ok {
		return 0, domain.ErrPlayerNotFound
	}
	player.Score += delta
	return player.Score, nil
}

func (s *SessionStore) Question(_ context.Context, questionID string) (*domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	question, ok := s.questions[questionID]
	if !ok {
		return nil, domain.ErrQuestionNotFound
	}
	out := *question
	return &out, nil
}

func (s *SessionStore) QuestionAt(_ context.Context, sessionID string, index int) (*domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.sequence[sessionID]
	if index < 0 || index >= len(ids) {
		return nil, domain.ErrQuestionNotFound
	}
	question, ok := s.questions[ids[index]]
	if !ok {
		return nil, domain.ErrQuestionNotFound
	}
	out := *question
	return &out, nil
}

func (s *SessionStore) AddAnswer(_ context.Context, answer *domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := answer.PlayerID + "|" + answer.QuestionID
	if _, ok := s.answered[key]; ok {
		return domain.ErrAlreadyAnswered
	}
	s.answered[key] = struct{}{}
	cp := *answer
	s.answers[answer.QuestionID] = append(s.answers[answer.QuestionID], &cp)
	return nil
}

func (s *SessionStore) Answers(_ context.Context, questionID string) ([]*domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.answers[questionID]
	out := make([]*domain.Answer, 0, len(stored))
	for _, a := range stored {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (s *SessionStore) CountAnswers(_ context.Context, questionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.answers[questionID]), nil
}
