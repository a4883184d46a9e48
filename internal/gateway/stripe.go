package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/token"
)

// StripeGateway wraps the official Stripe SDK behind the Gateway contract.
type StripeGateway struct {
	secretKey string
}

func NewStripeGateway(secretKey string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{secretKey: secretKey}
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) ProcessPayment(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(req.Amount * 100)), // Convert to cents
		Currency: stripe.String(req.Currency),
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
		Description: stripe.String(req.Description),
		Confirm:     stripe.Bool(true),
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(req.CustomerEmail)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: payment failed: %w", err)
	}

	return &ChargeResult{
		Success:         intent.Status == stripe.PaymentIntentStatusSucceeded,
		TransactionID:   intent.ID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		GatewayResponse: string(intent.Status),
	}, nil
}

func (g *StripeGateway) TokenizePaymentMethod(ctx context.Context, req *ChargeRequest) (*TokenResult, error) {
	params := &stripe.TokenParams{
		Card: &stripe.CardParams{
			Number:   stripe.String(req.CardNumber),
			ExpMonth: stripe.String(fmt.Sprintf("%d", req.CardExpMonth)),
			ExpYear:  stripe.String(fmt.Sprintf("%d", req.CardExpYear)),
			CVC:      stripe.String(req.CardCVC),
		},
	}
	params.Context = ctx

	tok, err := token.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: tokenization failed: %w", err)
	}

	return &TokenResult{
		Success:       true,
		TokenizedData: tok.ID,
		LastFour:      LastFour(req.CardNumber),
		ExpiryMonth:   req.CardExpMonth,
		ExpiryYear:    req.CardExpYear,
		Brand:         DetectCardBrand(req.CardNumber),
	}, nil
}

func (g *StripeGateway) Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.TransactionID),
		Amount:        stripe.Int64(int64(req.Amount * 100)),
	}
	params.Context = ctx

	ref, err := refund.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: refund failed: %w", err)
	}

	return &RefundResult{
		Success:       ref.Status == stripe.RefundStatusSucceeded || ref.Status == stripe.RefundStatusPending,
		RefundID:      ref.ID,
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		Timestamp:     time.Now(),
	}, nil
}

func (g *StripeGateway) VerifyStatus(ctx context.Context, reference string) (*Verification, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := paymentintent.Get(reference, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: status lookup failed: %w", err)
	}

	v := &Verification{
		Status: mapStripeStatus(intent.Status),
		Amount: float64(intent.Amount) / 100,
	}
	if v.Status == StatusSuccess {
		v.PaidAt = time.Unix(intent.Created, 0)
	}
	return v, nil
}

func mapStripeStatus(status stripe.PaymentIntentStatus) Status {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return StatusSuccess
	case stripe.PaymentIntentStatusProcessing,
		stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresPaymentMethod:
		return StatusPending
	case stripe.PaymentIntentStatusCanceled:
		return StatusFailed
	default:
		return StatusUnknown
	}
}
