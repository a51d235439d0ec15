package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no session matches the given id or code.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired marks sessions past their advisory expiry.
	ErrSessionExpired = errors.New("session has expired")
	// ErrSessionFull is returned when MaxPlayers has been reached.
	ErrSessionFull = errors.New("session is full")
	// ErrAlreadyStarted rejects joins once the session left WAITING.
	ErrAlreadyStarted = errors.New("game has already started")
	// ErrNicknameTaken rejects duplicate nicknames within a session.
	ErrNicknameTaken = errors.New("nickname is already taken")
	// ErrNotHost is returned when a game-control action comes from a non-host caller.
	ErrNotHost = errors.New("only the host can control the game")
	// ErrPlayerNotFound is returned when a player id does not exist.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrQuestionNotFound indicates an unknown question id or index.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNoQuestions rejects starting a session without questions.
	ErrNoQuestions = errors.New("no questions available")
	// ErrQuestionClosed rejects answers when the session is not in QUESTION status.
	ErrQuestionClosed = errors.New("question is no longer active")
	// ErrAlreadyAnswered enforces one answer per (player, question) pair.
	ErrAlreadyAnswered = errors.New("answer already submitted for this question")
	// ErrStatusConflict signals a lost optimistic status transition (e.g. a
	// double-clicked "next" where another request advanced the session first).
	ErrStatusConflict = errors.New("session status changed concurrently")
	// ErrBankQuestionNotFound indicates an unknown question-bank template id.
	ErrBankQuestionNotFound = errors.New("bank question not found")
	// ErrValidation wraps malformed or out-of-range request input.
	ErrValidation = errors.New("invalid input")
)
