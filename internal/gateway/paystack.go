package gateway

import (
	"context"
	"fmt"
	"time"
)

// PaystackGateway integrates the Paystack card API. Amounts are sent in
// the minor unit (kobo).
type PaystackGateway struct {
	client *restClient
}

func NewPaystackGateway(secretKey string) *PaystackGateway {
	return &PaystackGateway{
		client: newRESTClient("https://api.paystack.co", "Authorization", "Bearer "+secretKey),
	}
}

func (g *PaystackGateway) Name() string { return "paystack" }

type paystackChargeResponse struct {
	Status bool `json:"status"`
	Data   struct {
		Reference string  `json:"reference"`
		Status    string  `json:"status"`
		Amount    float64 `json:"amount"`
		PaidAt    string  `json:"paid_at"`
	} `json:"data"`
	Message string `json:"message"`
}

func (g *PaystackGateway) ProcessPayment(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	payload := map[string]interface{}{
		"email":     req.CustomerEmail,
		"amount":    int64(req.Amount * 100),
		"currency":  req.Currency,
		"reference": req.Reference,
		"card": map[string]interface{}{
			"number":       req.CardNumber,
			"cvv":          req.CardCVC,
			"expiry_month": req.CardExpMonth,
			"expiry_year":  req.CardExpYear,
		},
	}

	var resp paystackChargeResponse
	if err := g.client.do(ctx, "POST", "/charge", payload, &resp); err != nil {
		return nil, fmt.Errorf("paystack: charge failed: %w", err)
	}

	return &ChargeResult{
		Success:         mapPaystackStatus(resp.Data.Status) == StatusSuccess,
		TransactionID:   resp.Data.Reference,
		Amount:          req.Amount,
		Currency:        req.Currency,
		GatewayResponse: resp.Data.Status,
	}, nil
}

func (g *PaystackGateway) TokenizePaymentMethod(ctx context.Context, req *ChargeRequest) (*TokenResult, error) {
	payload := map[string]interface{}{
		"email": req.CustomerEmail,
		"card": map[string]interface{}{
			"number":       req.CardNumber,
			"cvv":          req.CardCVC,
			"expiry_month": req.CardExpMonth,
			"expiry_year":  req.CardExpYear,
		},
	}

	var resp struct {
		Status bool `json:"status"`
		Data   struct {
			AuthorizationCode string `json:"authorization_code"`
		} `json:"data"`
	}
	if err := g.client.do(ctx, "POST", "/charge/tokenize", payload, &resp); err != nil {
		return nil, fmt.Errorf("paystack: tokenization failed: %w", err)
	}

	return &TokenResult{
		Success:       resp.Status,
		TokenizedData: resp.Data.AuthorizationCode,
		LastFour:      LastFour(req.CardNumber),
		ExpiryMonth:   req.CardExpMonth,
		ExpiryYear:    req.CardExpYear,
		Brand:         DetectCardBrand(req.CardNumber),
	}, nil
}

func (g *PaystackGateway) Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error) {
	payload := map[string]interface{}{
		"transaction":   req.TransactionID,
		"amount":        int64(req.Amount * 100),
		"merchant_note": req.Reason,
	}

	var resp struct {
		Status bool `json:"status"`
		Data   struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	if err := g.client.do(ctx, "POST", "/refund", payload, &resp); err != nil {
		return nil, fmt.Errorf("paystack: refund failed: %w", err)
	}

	return &RefundResult{
		Success:       resp.Status,
		RefundID:      fmt.Sprintf("%d", resp.Data.ID),
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		Timestamp:     time.Now(),
	}, nil
}

func (g *PaystackGateway) VerifyStatus(ctx context.Context, reference string) (*Verification, error) {
	var resp paystackChargeResponse
	if err := g.client.do(ctx, "GET", "/transaction/verify/"+reference, nil, &resp); err != nil {
		return nil, fmt.Errorf("paystack: verification failed: %w", err)
	}

	v := &Verification{
		Status: mapPaystackStatus(resp.Data.Status),
		Amount: resp.Data.Amount / 100,
	}
	if resp.Data.PaidAt != "" {
		if paidAt, err := time.Parse(time.RFC3339, resp.Data.PaidAt); err == nil {
			v.PaidAt = paidAt
		}
	}
	return v, nil
}

func mapPaystackStatus(status string) Status {
	switch status {
	case "success":
		return StatusSuccess
	case "pending", "ongoing", "send_otp", "send_pin":
		return StatusPending
	case "failed", "abandoned", "reversed":
		return StatusFailed
	default:
		return StatusUnknown
	}
}
