package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"torch-indexer/internal/projection"
	"torch-indexer/internal/services"
	"torch-indexer/internal/store"
)

type AdminHandler struct {
	store      store.EntityStore
	projector  *projection.Projector
	jwtService *services.JWTService
	adminKey   string
}

func NewAdminHandler(entityStore store.EntityStore, projector *projection.Projector, jwtService *services.JWTService, adminKey string) *AdminHandler {
	return &AdminHandler{
		store:      entityStore,
		projector:  projector,
		jwtService: jwtService,
		adminKey:   adminKey,
	}
}

// Authenticate exchanges the shared admin key for a bearer token.
func (h *AdminHandler) Authenticate(c *gin.Context) {
	var req struct {
		Key     string `json:"key" binding:"required"`
		Subject string `json:"subject"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Key), []byte(h.adminKey)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin key"})
		return
	}

	subject := req.Subject
	if subject == "" {
		subject = "admin"
	}

	token, err := h.jwtService.GenerateToken(subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
	})
}

func (h *AdminHandler) Status(c *gin.Context) {
	checkpoint, err := h.store.Checkpoint(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to read checkpoint",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"subject":    c.GetString("subject"),
		"checkpoint": checkpoint,
		"counters":   h.projector.Stats(),
	})
}
