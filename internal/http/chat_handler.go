package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"card-advisor/internal/domain"
	"card-advisor/internal/repository"
	"card-advisor/internal/service"
)

// ChatHandler mantiene dependencias para endpoints de sesiones y turnos de chat.
type ChatHandler struct {
	logger      *zap.Logger
	sessions    repository.SessionRepository
	profiles    service.ProfileStore
	messageServ *service.MessageService
	advisorServ *service.AdvisorService
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(
	logger *zap.Logger,
	sessions repository.SessionRepository,
	profiles service.ProfileStore,
	messageServ *service.MessageService,
	advisorServ *service.AdvisorService,
) *ChatHandler {
	return &ChatHandler{
		logger:      logger,
		sessions:    sessions,
		profiles:    profiles,
		messageServ: messageServ,
		advisorServ: advisorServ,
	}
}

// CreateSession maneja POST /session.
func (h *ChatHandler) CreateSession(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    claims.UserID,
		ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
		CreatedAt: time.Now().UTC(),
	}

	if err := h.sessions.Create(c.Request.Context(), session); err != nil {
		h.logger.Error("create session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}

	// Sesión nueva arranca con perfil vacío.
	if err := h.profiles.Reset(c.Request.Context(), session.ID); err != nil {
		h.logger.Warn("profile reset failed", zap.Error(err), zap.String("session_id", session.ID))
	}

	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// SessionMessages maneja GET /session/:id/messages. El transcript sigue
// legible después de que la sesión expira.
func (h *ChatHandler) SessionMessages(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	session, err := h.sessions.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		h.logger.Error("get session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load session"})
		return
	}
	if session.UserID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "session does not belong to user"})
		return
	}

	messages, err := h.messageServ.History(c.Request.Context(), session.ID)
	if err != nil {
		h.logger.Error("load transcript failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load messages"})
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages, "count": len(messages)})
}

// Chat maneja POST /chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		SessionID string `json:"session_id" binding:"required"`
		Message   string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, err := h.sessions.GetByID(c.Request.Context(), req.SessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		h.logger.Error("get session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load session"})
		return
	}
	if session.UserID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "session does not belong to user"})
		return
	}
	if session.IsExpired(time.Now().UTC()) {
		c.JSON(http.StatusGone, gin.H{"error": "session expired"})
		return
	}

	userMsg := domain.Message{
		ID:        uuid.NewString(),
		UserID:    claims.UserID,
		SessionID: session.ID,
		Content:   req.Message,
		Role:      domain.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.messageServ.Save(c.Request.Context(), userMsg); err != nil {
		h.logger.Error("save user message failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save message"})
		return
	}

	turn, err := h.advisorServ.Chat(c.Request.Context(), claims.UserID, session.ID, req.Message)
	if err != nil {
		h.logger.Error("advisor turn failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate advisor response"})
		return
	}

	if turn.Recommendations == nil {
		turn.Recommendations = []domain.Recommendation{}
	}

	c.JSON(http.StatusOK, gin.H{
		"response":        turn.Reply,
		"recommendations": turn.Recommendations,
		"profile":         turn.Profile,
	})
}
