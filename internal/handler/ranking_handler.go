package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/planit-app/ranking-backend/internal/leaderboard"
	"github.com/planit-app/ranking-backend/internal/models"
	"github.com/planit-app/ranking-backend/internal/service"
)

type RankingHandler struct {
	rankingSvc service.RankingService
}

func NewRankingHandler(rankingSvc service.RankingService) *RankingHandler {
	return &RankingHandler{
		rankingSvc: rankingSvc,
	}
}

// SubmitAward godoc
// @Summary Ingest a point award
// @Description Applies an award to the weekly, monthly and all-time boards
// @Tags rankings
// @Accept json
// @Produce json
// @Param body body models.AwardRequest true "Award"
// @Success 200 {object} map[string]interface{}
// @Router /awards [post]
func (h *RankingHandler) SubmitAward(c *gin.Context) {
	var req models.AwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	events, err := h.rankingSvc.OnAward(req.UserID, req.LoginID, req.Nickname, req.Points)
	if err != nil {
		if errors.Is(err, leaderboard.ErrInvalidDelta) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "points must be positive",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to apply award",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"events":  events,
	})
}

// GetRankings godoc
// @Summary Get a period's top rankings
// @Description Returns the current top 10 for WEEKLY, MONTHLY or ALLTIME
// @Tags rankings
// @Accept json
// @Produce json
// @Param period path string true "Period type"
// @Success 200 {object} map[string]interface{}
// @Router /rankings/{period} [get]
func (h *RankingHandler) GetRankings(c *gin.Context) {
	pt, err := models.ParsePeriodType(c.Param("period"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown period type",
		})
		return
	}

	periodKey, entries, err := h.rankingSvc.TopRankings(pt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch rankings",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"periodType": pt,
		"periodKey":  periodKey,
		"count":      len(entries),
		"data":       entries,
	})
}

// GetUserRank godoc
// @Summary Get a user's rank for a period
// @Description Returns the user's current rank on the period's board
// @Tags rankings
// @Accept json
// @Produce json
// @Param period path string true "Period type"
// @Param user_id path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Router /rankings/{period}/users/{user_id} [get]
func (h *RankingHandler) GetUserRank(c *gin.Context) {
	pt, err := models.ParsePeriodType(c.Param("period"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown period type",
		})
		return
	}

	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	rank, err := h.rankingSvc.UserRank(pt, uint(userID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "User not ranked in this period",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"periodType": pt,
		"user_id":    userID,
		"rank":       rank,
	})
}
