package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/OmarElhagagy/tailored-sub002/internal/models"
	"github.com/OmarElhagagy/tailored-sub002/internal/risk"
)

// ReviewQueue lists elevated assessments awaiting an analyst.
type ReviewQueue interface {
	ListPendingReview(ctx context.Context, limit int64) ([]models.AssessmentRecord, error)
}

type RiskHandler struct {
	analyzer  *risk.Analyzer
	blacklist risk.BlacklistStore
	reviews   ReviewQueue
	logger    *zap.Logger
}

// NewRiskHandler builds the risk endpoints. reviews may be nil when no
// audit store is configured; the review endpoint then reports unavailable.
func NewRiskHandler(analyzer *risk.Analyzer, blacklist risk.BlacklistStore, reviews ReviewQueue, logger *zap.Logger) *RiskHandler {
	return &RiskHandler{
		analyzer:  analyzer,
		blacklist: blacklist,
		reviews:   reviews,
		logger:    logger,
	}
}

type riskCheckRequest struct {
	Transaction models.Transaction    `json:"transaction" binding:"required"`
	User        models.UserProfile    `json:"user"`
	Context     models.RequestContext `json:"context"`
}

// CheckRisk handles POST /api/v1/risk/check
func (h *RiskHandler) CheckRisk(c *gin.Context) {
	var req riskCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assessment := h.analyzer.AnalyzeTransaction(c.Request.Context(), &req.Transaction, &req.User, &req.Context)
	c.JSON(http.StatusOK, assessment)
}

type blacklistRequest struct {
	Type  string `json:"type" binding:"required,oneof=ip device email_pattern"`
	Value string `json:"value" binding:"required"`
}

// AddBlacklistEntry handles POST /api/v1/blacklist
func (h *RiskHandler) AddBlacklistEntry(c *gin.Context) {
	var req blacklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var err error
	switch req.Type {
	case "ip":
		err = h.blacklist.AddIP(ctx, req.Value)
	case "device":
		err = h.blacklist.AddDevice(ctx, req.Value)
	case "email_pattern":
		err = h.blacklist.AddEmailPattern(ctx, req.Value)
	}
	if err != nil {
		h.logger.Error("failed to add blacklist entry",
			zap.String("type", req.Type),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"added": req.Type})
}

// ListReviews handles GET /api/v1/risk/reviews
func (h *RiskHandler) ListReviews(c *gin.Context) {
	if h.reviews == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "review queue is not configured"})
		return
	}

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	records, err := h.reviews.ListPendingReview(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list pending reviews", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list pending reviews"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": records})
}
