package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"torch-indexer/internal/models"
	"torch-indexer/internal/store"
)

type QueryHandler struct {
	store store.EntityStore
}

func NewQueryHandler(entityStore store.EntityStore) *QueryHandler {
	return &QueryHandler{store: entityStore}
}

func (h *QueryHandler) GetUser(c *gin.Context) {
	address := models.NormalizeAddress(c.Param("address"))

	user, found, err := h.store.GetUser(c.Request.Context(), address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get user",
			"details": err.Error(),
		})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	stats, _, err := h.store.GetUserStats(c.Request.Context(), address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get user stats",
			"details": err.Error(),
		})
		return
	}
	if stats == nil {
		stats = models.NewUserStats(address)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
		"stats":   stats,
	})
}

func (h *QueryHandler) GetUserStats(c *gin.Context) {
	address := models.NormalizeAddress(c.Param("address"))

	stats, found, err := h.store.GetUserStats(c.Request.Context(), address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get user stats",
			"details": err.Error(),
		})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

func (h *QueryHandler) GetUserBets(c *gin.Context) {
	address := models.NormalizeAddress(c.Param("address"))

	bets, err := h.store.ListBetsByUser(c.Request.Context(), address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list bets",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"bets":    bets,
		"count":   len(bets),
	})
}

func (h *QueryHandler) GetBet(c *gin.Context) {
	bet, found, err := h.store.GetBet(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get bet",
			"details": err.Error(),
		})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bet not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"bet":     bet,
	})
}

func (h *QueryHandler) ListBets(c *gin.Context) {
	ctx := c.Request.Context()

	var bets []*models.Bet
	var err error

	if bucketStr := c.Query("bucket"); bucketStr != "" {
		bucket, parseErr := strconv.ParseInt(bucketStr, 10, 64)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bucket"})
			return
		}
		bets, err = h.store.ListBetsByBucket(ctx, bucket)
	} else {
		bets, err = h.store.ListBets(ctx, parseLimit(c))
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list bets",
			"details": err.Error(),
		})
		return
	}

	if finalizedStr := c.Query("finalized"); finalizedStr != "" {
		finalized, parseErr := strconv.ParseBool(finalizedStr)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid finalized filter"})
			return
		}
		filtered := bets[:0]
		for _, bet := range bets {
			if bet.Finalized == finalized {
				filtered = append(filtered, bet)
			}
		}
		bets = filtered
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"bets":    bets,
		"count":   len(bets),
	})
}

func (h *QueryHandler) ListFees(c *gin.Context) {
	fees, err := h.store.ListFees(c.Request.Context(), parseLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list fees",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"fees":    fees,
		"count":   len(fees),
	})
}

func (h *QueryHandler) Health(c *gin.Context) {
	checkpoint, err := h.store.Checkpoint(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "degraded",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"checkpoint": checkpoint,
	})
}

func parseLimit(c *gin.Context) int64 {
	limitStr := c.DefaultQuery("limit", strconv.Itoa(store.DefaultListLimit))
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || limit <= 0 || limit > store.MaxListLimit {
		return store.DefaultListLimit
	}
	return limit
}
