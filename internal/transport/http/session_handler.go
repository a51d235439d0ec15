package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"christmas-quiz-service/internal/app"
	"christmas-quiz-service/internal/domain"
)

// SessionHandler exposes the game use cases over REST.
type SessionHandler struct {
	service *app.GameService
}

func NewSessionHandler(service *app.GameService) *SessionHandler {
	return &SessionHandler{service: service}
}

type createSessionRequest struct {
	GameMode            domain.GameMode `json:"gameMode"`
	TotalQuestions      int             `json:"totalQuestions"`
	TimePerQuestion     int             `json:"timePerQuestion"`
	HostNickname        string          `json:"hostNickname"`
	AutoMode            bool            `json:"autoMode"`
	ShowLeaderboard     *bool           `json:"showLeaderboard"`
	RevealDuration      int             `json:"revealDuration"`
	LeaderboardDuration int             `json:"leaderboardDuration"`
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	session, err := h.service.CreateSession(c.Request.Context(), app.CreateSessionParams{
		GameMode:            req.GameMode,
		TotalQuestions:      req.TotalQuestions,
		TimePerQuestion:     req.TimePerQuestion,
		HostNickname:        req.HostNickname,
		AutoMode:            req.AutoMode,
		ShowLeaderboard:     req.ShowLeaderboard,
		RevealDuration:      req.RevealDuration,
		LeaderboardDuration: req.LeaderboardDuration,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	// The creator is the host, so the full session including the answer key
	// is safe to return here.
	c.JSON(http.StatusCreated, session)
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.service.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, publicSession(session))
}

func (h *SessionHandler) GetSessionByCode(c *gin.Context) {
	session, err := h.service.SessionByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, publicSession(session))
}

type joinRequest struct {
	Nickname string `json:"nickname"`
}

func (h *SessionHandler) Join(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	player, err := h.service.Join(c.Request.Context(), c.Param("id"), req.Nickname)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, player)
}

type hostRequest struct {
	HostID string `json:"hostId"`
}

func (h *SessionHandler) Start(c *gin.Context) {
	var req hostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.service.Start(c.Request.Context(), c.Param("id"), req.HostID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type nextRequest struct {
	HostID string `json:"hostId"`
	Action string `json:"action"`
}

func (h *SessionHandler) Next(c *gin.Context) {
	var req nextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.service.Next(c.Request.Context(), c.Param("id"), req.HostID, app.NextAction(req.Action))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SessionHandler) Stop(c *gin.Context) {
	var req hostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.service.Stop(c.Request.Context(), c.Param("id"), req.HostID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SessionHandler) StartTimer(c *gin.Context) {
	var req hostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.service.StartTimer(c.Request.Context(), c.Param("id"), req.HostID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type answerRequest struct {
	PlayerID     string `json:"playerId"`
	QuestionID   string `json:"questionId"`
	Answer       string `json:"answer"`
	ResponseTime int64  `json:"responseTime"`
}

func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.service.SubmitAnswer(c.Request.Context(), c.Param("id"), app.SubmitAnswerParams{
		PlayerID:     req.PlayerID,
		QuestionID:   req.QuestionID,
		Value:        req.Answer,
		ResponseTime: req.ResponseTime,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type leaveRequest struct {
	PlayerID string `json:"playerId"`
}

func (h *SessionHandler) Leave(c *gin.Context) {
	var req leaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.service.Leave(c.Request.Context(), c.Param("id"), req.PlayerID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// publicSession strips the question list (it carries the answer key) and the
// host id (it authorizes start/next/stop) before returning a session to an
// arbitrary caller. Only CreateSession hands the host id out.
func publicSession(s *domain.Session) *domain.Session {
	clone := *s
	clone.Questions = nil
	clone.HostID = ""
	return &clone
}
