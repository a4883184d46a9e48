package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/OmarElhagagy/tailored-sub002/internal/gateway"
	"github.com/OmarElhagagy/tailored-sub002/internal/models"
	"github.com/OmarElhagagy/tailored-sub002/internal/telemetry"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrInvalidCard          = errors.New("invalid card number")
	ErrMissingRefundTarget  = errors.New("refund requires a provider transaction id")
	ErrRefundExceedsBalance = errors.New("refund exceeds remaining refundable balance")
)

// PaymentStore is the persistence surface the orchestrator needs. The
// Postgres repository satisfies it; tests use an in-memory fake.
type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	AddRefund(ctx context.Context, refund *models.Refund) error
}

// IdempotencyCache holds processed payments keyed by caller-supplied
// idempotency keys. The Redis client satisfies it.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// PaymentService orchestrates payment processing across the configured
// gateways. Unlike risk scoring it fails loud: adapter errors are logged,
// counted, and returned to the caller. A payment error must never look
// like a success.
type PaymentService struct {
	registry *gateway.Registry
	store    PaymentStore
	cache    IdempotencyCache
	tracker  *telemetry.Tracker
	logger   *zap.Logger
}

func NewPaymentService(registry *gateway.Registry, store PaymentStore, cache IdempotencyCache, tracker *telemetry.Tracker, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		registry: registry,
		store:    store,
		cache:    cache,
		tracker:  tracker,
		logger:   logger,
	}
}

// ProcessPayment dispatches a charge to the named gateway and persists
// the resulting Payment. Ambiguous adapter outcomes are reconciled
// through VerifyStatus before the payment settles.
func (s *PaymentService) ProcessPayment(ctx context.Context, req *models.PaymentRequest) (*models.Payment, error) {
	gw, err := s.registry.Get(req.Gateway)
	if err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		if cached := s.getIdempotentPayment(ctx, req.IdempotencyKey); cached != nil {
			return cached, nil
		}
	}

	if !gateway.ValidateLuhnChecksum(req.CardNumber) {
		return nil, ErrInvalidCard
	}

	payment := &models.Payment{
		ID:             uuid.New().String(),
		Amount:         req.Transaction.Amount,
		Currency:       req.Transaction.Currency,
		Gateway:        req.Gateway,
		CardLast4:      gateway.LastFour(req.CardNumber),
		CardBrand:      gateway.DetectCardBrand(req.CardNumber),
		CustomerEmail:  req.User.Email,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      time.Now(),
	}
	payment.SetStatus(models.PaymentStatusPending, "payment created")

	s.tracker.TrackEvent("payment_started", map[string]string{
		"gateway":    req.Gateway,
		"payment_id": payment.ID,
	})

	payment.SetStatus(models.PaymentStatusProcessing, "dispatched to "+req.Gateway)

	result, err := gw.ProcessPayment(ctx, &gateway.ChargeRequest{
		Reference:      payment.ID,
		Amount:         req.Transaction.Amount,
		Currency:       req.Transaction.Currency,
		CardNumber:     req.CardNumber,
		CardExpMonth:   req.CardExpMonth,
		CardExpYear:    req.CardExpYear,
		CardCVC:        req.CardCVC,
		CardholderName: req.Transaction.CardholderName,
		CustomerEmail:  req.User.Email,
		Description:    fmt.Sprintf("order payment %s", req.Transaction.ID),
	})
	if err != nil {
		payment.FailureReason = err.Error()
		payment.SetStatus(models.PaymentStatusFailed, "gateway error")
		if storeErr := s.store.Create(ctx, payment); storeErr != nil {
			s.logger.Error("failed to persist failed payment", zap.Error(storeErr))
		}
		s.tracker.TrackException(err, "payment_orchestrator")
		s.tracker.TrackPayment(req.Gateway, "failed")
		s.logger.Error("payment processing failed",
			zap.String("gateway", req.Gateway),
			zap.String("payment_id", payment.ID),
			zap.Error(err))
		return nil, err
	}

	payment.ProviderTxnID = result.TransactionID

	if result.Success {
		payment.SetStatus(models.PaymentStatusCompleted, "gateway confirmed")
	} else {
		s.settleFromProvider(ctx, gw, payment)
	}

	if err := s.store.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	if req.IdempotencyKey != "" {
		s.cacheIdempotentPayment(ctx, req.IdempotencyKey, payment)
	}

	s.tracker.TrackPayment(req.Gateway, string(payment.Status))
	return payment, nil
}

// settleFromProvider reconciles an ambiguous charge outcome against the
// provider's own status endpoint.
func (s *PaymentService) settleFromProvider(ctx context.Context, gw gateway.Gateway, payment *models.Payment) {
	if payment.ProviderTxnID == "" {
		payment.SetStatus(models.PaymentStatusFailed, "no provider transaction reference")
		return
	}

	verification, err := gw.VerifyStatus(ctx, payment.ProviderTxnID)
	if err != nil {
		s.logger.Warn("post-charge verification failed, leaving payment processing",
			zap.String("payment_id", payment.ID),
			zap.Error(err))
		return
	}

	switch verification.Status {
	case gateway.StatusSuccess:
		payment.SetStatus(models.PaymentStatusCompleted, "verified with provider")
	case gateway.StatusFailed:
		payment.SetStatus(models.PaymentStatusFailed, "provider reported failure")
	default:
		// pending or unknown: stays processing until a later verify call
	}
}

func (s *PaymentService) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment, err := s.store.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// CreateRefund records a refund against a payment. The cumulative refund
// total may never exceed the original amount; the payment status is
// derived from the new total after every refund.
func (s *PaymentService) CreateRefund(ctx context.Context, paymentID string, amount float64, reason string) (*models.Payment, error) {
	if paymentID == "" || amount <= 0 {
		return nil, errors.New("refund requires a payment id and a positive amount")
	}

	payment, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.ProviderTxnID == "" {
		return nil, ErrMissingRefundTarget
	}
	if payment.RefundedTotal()+amount > payment.Amount {
		return nil, ErrRefundExceedsBalance
	}

	gw, err := s.registry.Get(payment.Gateway)
	if err != nil {
		return nil, err
	}

	result, err := gw.Refund(ctx, &gateway.RefundRequest{
		TransactionID: payment.ProviderTxnID,
		Amount:        amount,
		Reason:        reason,
	})
	if err != nil {
		s.tracker.TrackException(err, "refund")
		s.logger.Error("refund failed",
			zap.String("payment_id", paymentID),
			zap.Error(err))
		return nil, err
	}

	refund := models.Refund{
		ID:               uuid.New().String(),
		PaymentID:        payment.ID,
		ProviderRefundID: result.RefundID,
		Amount:           amount,
		Reason:           reason,
		CreatedAt:        time.Now(),
	}
	if err := s.store.AddRefund(ctx, &refund); err != nil {
		return nil, fmt.Errorf("failed to record refund: %w", err)
	}
	payment.Refunds = append(payment.Refunds, refund)

	if payment.RefundedTotal() >= payment.Amount {
		payment.SetStatus(models.PaymentStatusRefunded, "fully refunded")
	} else {
		payment.SetStatus(models.PaymentStatusPartiallyRefunded, "partial refund recorded")
	}

	if err := s.store.Update(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	s.tracker.TrackEvent("refund_created", map[string]string{
		"payment_id": payment.ID,
		"gateway":    payment.Gateway,
	})
	return payment, nil
}

// VerifyPayment re-checks a payment's status with its provider and
// settles it if the provider reports a terminal state.
func (s *PaymentService) VerifyPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	gw, err := s.registry.Get(payment.Gateway)
	if err != nil {
		return nil, err
	}

	previous := payment.Status
	s.settleFromProvider(ctx, gw, payment)
	if payment.Status != previous {
		if err := s.store.Update(ctx, payment); err != nil {
			return nil, fmt.Errorf("failed to update payment: %w", err)
		}
	}
	return payment, nil
}

// Tokenize converts raw card details into a provider token.
func (s *PaymentService) Tokenize(ctx context.Context, gatewayName string, req *models.PaymentRequest) (*gateway.TokenResult, error) {
	gw, err := s.registry.Get(gatewayName)
	if err != nil {
		return nil, err
	}

	if !gateway.ValidateLuhnChecksum(req.CardNumber) {
		return nil, ErrInvalidCard
	}

	return gw.TokenizePaymentMethod(ctx, &gateway.ChargeRequest{
		CardNumber:     req.CardNumber,
		CardExpMonth:   req.CardExpMonth,
		CardExpYear:    req.CardExpYear,
		CardCVC:        req.CardCVC,
		CardholderName: req.Transaction.CardholderName,
		CustomerEmail:  req.User.Email,
	})
}

func (s *PaymentService) getIdempotentPayment(ctx context.Context, key string) *models.Payment {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, "idempotency:"+key)
	if err != nil {
		return nil
	}

	var payment models.Payment
	if err := json.Unmarshal([]byte(data), &payment); err != nil {
		return nil
	}
	return &payment
}

func (s *PaymentService) cacheIdempotentPayment(ctx context.Context, key string, payment *models.Payment) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(payment)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, "idempotency:"+key, data, 24*time.Hour); err != nil {
		s.logger.Warn("failed to cache idempotent payment", zap.Error(err))
	}
}
