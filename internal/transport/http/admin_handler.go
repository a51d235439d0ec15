package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"christmas-quiz-service/internal/app"
	"christmas-quiz-service/internal/domain"
)

// BankInvalidator drops any cached view of the question bank after a write.
type BankInvalidator interface {
	Invalidate(ctx context.Context) error
}

// AdminHandler exposes question-bank CRUD. There is no auth layer here: the
// admin routes are expected to be fenced off at the ingress.
type AdminHandler struct {
	bank       app.BankStore
	invalidate BankInvalidator
}

func NewAdminHandler(bank app.BankStore, invalidate BankInvalidator) *AdminHandler {
	return &AdminHandler{bank: bank, invalidate: invalidate}
}

func (h *AdminHandler) List(c *gin.Context) {
	includeInactive := c.Query("includeInactive") == "true"
	questions, err := h.bank.ListBankQuestions(c.Request.Context(), includeInactive)
	if err != nil {
		writeError(c, err)
		return
	}
	if questions == nil {
		questions = []domain.BankQuestion{}
	}
	c.JSON(http.StatusOK, questions)
}

func (h *AdminHandler) Create(c *gin.Context) {
	var q domain.BankQuestion
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := validateBankQuestion(&q); err != nil {
		writeError(c, err)
		return
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if err := h.bank.CreateBankQuestion(c.Request.Context(), &q); err != nil {
		writeError(c, err)
		return
	}
	h.dropCache(c)
	c.JSON(http.StatusCreated, q)
}

func (h *AdminHandler) Update(c *gin.Context) {
	var q domain.BankQuestion
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	q.ID = c.Param("id")
	if err := validateBankQuestion(&q); err != nil {
		writeError(c, err)
		return
	}
	if err := h.bank.UpdateBankQuestion(c.Request.Context(), &q); err != nil {
		writeError(c, err)
		return
	}
	h.dropCache(c)
	c.JSON(http.StatusOK, q)
}

func (h *AdminHandler) Delete(c *gin.Context) {
	if err := h.bank.DeleteBankQuestion(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	h.dropCache(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *AdminHandler) Import(c *gin.Context) {
	var questions []domain.BankQuestion
	if err := c.ShouldBindJSON(&questions); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	for i := range questions {
		if err := validateBankQuestion(&questions[i]); err != nil {
			writeError(c, err)
			return
		}
		if questions[i].ID == "" {
			questions[i].ID = uuid.NewString()
		}
	}
	if err := h.bank.ImportBankQuestions(c.Request.Context(), questions); err != nil {
		writeError(c, err)
		return
	}
	h.dropCache(c)
	c.JSON(http.StatusCreated, gin.H{"imported": len(questions)})
}

func (h *AdminHandler) dropCache(c *gin.Context) {
	if h.invalidate != nil {
		_ = h.invalidate.Invalidate(c.Request.Context())
	}
}

func validateBankQuestion(q *domain.BankQuestion) error {
	switch q.Type {
	case domain.TypeQuiz, domain.TypeBlindtest:
	default:
		return fmt.Errorf("%w: unknown question type %q", domain.ErrValidation, q.Type)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: at least two options are required", domain.ErrValidation)
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("%w: correctIndex out of range", domain.ErrValidation)
	}
	if q.Type == domain.TypeQuiz && q.Text == "" {
		return fmt.Errorf("%w: quiz questions need text", domain.ErrValidation)
	}
	if q.Type == domain.TypeBlindtest && q.YouTubeVideoID == "" {
		return fmt.Errorf("%w: blindtest questions need a video id", domain.ErrValidation)
	}
	return nil
}
