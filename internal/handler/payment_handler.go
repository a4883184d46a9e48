package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/OmarElhagagy/tailored-sub002/internal/gateway"
	"github.com/OmarElhagagy/tailored-sub002/internal/models"
	"github.com/OmarElhagagy/tailored-sub002/internal/risk"
	"github.com/OmarElhagagy/tailored-sub002/internal/service"
)

type PaymentHandler struct {
	payments *service.PaymentService
	analyzer *risk.Analyzer
	logger   *zap.Logger
}

func NewPaymentHandler(payments *service.PaymentService, analyzer *risk.Analyzer, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		analyzer: analyzer,
		logger:   logger,
	}
}

// CreatePayment handles POST /api/v1/payments. The transaction is risk
// scored first; a block stops checkout before any provider is touched,
// a challenge asks the caller for step-up authentication.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assessment := h.analyzer.AnalyzeTransaction(c.Request.Context(), &req.Transaction, &req.User, &req.Context)

	if assessment.IsHighRisk() {
		c.JSON(http.StatusForbidden, gin.H{
			"error":      "payment blocked",
			"assessment": assessment,
		})
		return
	}
	if assessment.Action == models.ActionChallenge {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"next_action": "step_up_authentication",
			"assessment":  assessment,
		})
		return
	}

	payment, err := h.payments.ProcessPayment(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create payment", zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, gateway.ErrUnknownGateway) || errors.Is(err, service.ErrInvalidCard) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": "Failed to process payment"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment":    payment,
		"assessment": assessment,
	})
}

// GetPayment handles GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.payments.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// CreateRefund handles POST /api/v1/payments/:id/refunds
func (h *PaymentHandler) CreateRefund(c *gin.Context) {
	var req models.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment, err := h.payments.CreateRefund(c.Request.Context(), c.Param("id"), req.Amount, req.Reason)
	if err != nil {
		h.logger.Error("failed to create refund", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrRefundExceedsBalance), errors.Is(err, service.ErrMissingRefundTarget):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process refund"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"payment": payment})
}

// VerifyPayment handles POST /api/v1/payments/:id/verify
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	payment, err := h.payments.VerifyPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("failed to verify payment", zap.Error(err))
		if errors.Is(err, service.ErrPaymentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// TokenizeCard handles POST /api/v1/tokens
func (h *PaymentHandler) TokenizeCard(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.payments.Tokenize(c.Request.Context(), req.Gateway, &req)
	if err != nil {
		h.logger.Error("failed to tokenize card", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to tokenize payment method"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token})
}
