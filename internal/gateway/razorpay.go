package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"
)

type RazorpayGateway struct {
	client *restClient
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	auth := base64.StdEncoding.EncodeToString([]byte(keyID + ":" + keySecret))
	return &RazorpayGateway{
		client: newRESTClient("https://api.razorpay.com", "Authorization", "Basic "+auth),
	}
}

func (g *RazorpayGateway) Name() string { return "razorpay" }

type razorpayPayment struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
	CreatedAt int64   `json:"created_at"`
}

func (g *RazorpayGateway) ProcessPayment(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	payload := map[string]interface{}{
		"amount":   int64(req.Amount * 100), // paise
		"currency": req.Currency,
		"email":    req.CustomerEmail,
		"card": map[string]interface{}{
			"number":       req.CardNumber,
			"cvv":          req.CardCVC,
			"expiry_month": req.CardExpMonth,
			"expiry_year":  req.CardExpYear,
			"name":         req.CardholderName,
		},
		"notes": map[string]string{"reference": req.Reference},
	}

	var resp razorpayPayment
	if err := g.client.do(ctx, "POST", "/v1/payments/create/json", payload, &resp); err != nil {
		return nil, fmt.Errorf("razorpay: charge failed: %w", err)
	}

	return &ChargeResult{
		Success:         mapRazorpayStatus(resp.Status) == StatusSuccess,
		TransactionID:   resp.ID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		GatewayResponse: resp.Status,
	}, nil
}

func (g *RazorpayGateway) TokenizePaymentMethod(ctx context.Context, req *ChargeRequest) (*TokenResult, error) {
	payload := map[string]interface{}{
		"card": map[string]interface{}{
			"number":       req.CardNumber,
			"cvv":          req.CardCVC,
			"expiry_month": req.CardExpMonth,
			"expiry_year":  req.CardExpYear,
			"name":         req.CardholderName,
		},
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := g.client.do(ctx, "POST", "/v1/tokens", payload, &resp); err != nil {
		return nil, fmt.Errorf("razorpay: tokenization failed: %w", err)
	}

	return &TokenResult{
		Success:       resp.ID != "",
		TokenizedData: resp.ID,
		LastFour:      LastFour(req.CardNumber),
		ExpiryMonth:   req.CardExpMonth,
		ExpiryYear:    req.CardExpYear,
		Brand:         DetectCardBrand(req.CardNumber),
	}, nil
}

func (g *RazorpayGateway) Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error) {
	payload := map[string]interface{}{
		"amount": int64(req.Amount * 100),
		"notes":  map[string]string{"reason": req.Reason},
	}

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	path := fmt.Sprintf("/v1/payments/%s/refund", req.TransactionID)
	if err := g.client.do(ctx, "POST", path, payload, &resp); err != nil {
		return nil, fmt.Errorf("razorpay: refund failed: %w", err)
	}

	return &RefundResult{
		Success:       resp.Status == "processed" || resp.Status == "pending",
		RefundID:      resp.ID,
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		Timestamp:     time.Now(),
	}, nil
}

func (g *RazorpayGateway) VerifyStatus(ctx context.Context, reference string) (*Verification, error) {
	var resp razorpayPayment
	if err := g.client.do(ctx, "GET", "/v1/payments/"+reference, nil, &resp); err != nil {
		return nil, fmt.Errorf("razorpay: verification failed: %w", err)
	}

	v := &Verification{
		Status: mapRazorpayStatus(resp.Status),
		Amount: resp.Amount / 100,
	}
	if v.Status == StatusSuccess {
		v.PaidAt = time.Unix(resp.CreatedAt, 0)
	}
	return v, nil
}

func mapRazorpayStatus(status string) Status {
	switch status {
	case "captured":
		return StatusSuccess
	case "created", "authorized":
		return StatusPending
	case "failed", "refunded":
		return StatusFailed
	default:
		return StatusUnknown
	}
}
