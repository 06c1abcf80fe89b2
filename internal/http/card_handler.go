package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"card-advisor/internal/repository"
)

// CardHandler expone el catálogo filtrado por elegibilidad.
type CardHandler struct {
	logger *zap.Logger
	cards  repository.CardRepository
}

func NewCardHandler(logger *zap.Logger, cards repository.CardRepository) *CardHandler {
	return &CardHandler{logger: logger, cards: cards}
}

// ListCards maneja GET /cards.
func (h *CardHandler) ListCards(c *gin.Context) {
	// Sin "required": income=0 y credit_score=0 son umbrales válidos.
	var req struct {
		Income      float64 `form:"income"`
		CreditScore int     `form:"credit_score"`
		Benefits    string  `form:"benefits"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("invalid list cards request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Income < 0 || req.CreditScore < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid criteria"})
		return
	}

	var benefits []string
	for _, b := range strings.Split(req.Benefits, ",") {
		if b = strings.TrimSpace(b); b != "" {
			benefits = append(benefits, b)
		}
	}

	cards, err := h.cards.FindEligible(c.Request.Context(), req.Income, req.CreditScore, benefits)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCriteria) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid criteria"})
			return
		}
		h.logger.Error("list cards failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list cards"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cards": cards, "count": len(cards)})
}
