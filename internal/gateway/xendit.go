package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"
)

type XenditGateway struct {
	client *restClient
}

func NewXenditGateway(apiKey string) *XenditGateway {
	auth := base64.StdEncoding.EncodeToString([]byte(apiKey + ":"))
	return &XenditGateway{
		client: newRESTClient("https://api.xendit.co", "Authorization", "Basic "+auth),
	}
}

func (g *XenditGateway) Name() string { return "xendit" }

type xenditCharge struct {
	ID         string  `json:"id"`
	Status     string  `json:"status"`
	Amount     float64 `json:"capture_amount"`
	Created    string  `json:"created"`
	ExternalID string  `json:"external_id"`
}

func (g *XenditGateway) ProcessPayment(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	payload := map[string]interface{}{
		"external_id": req.Reference,
		"amount":      req.Amount,
		"currency":    req.Currency,
		"card_data": map[string]interface{}{
			"account_number": req.CardNumber,
			"exp_month":      req.CardExpMonth,
			"exp_year":       req.CardExpYear,
			"cvn":            req.CardCVC,
		},
	}

	var resp xenditCharge
	if err := g.client.do(ctx, "POST", "/credit_card_charges", payload, &resp); err != nil {
		return nil, fmt.Errorf("xendit: charge failed: %w", err)
	}

	return &ChargeResult{
		Success:         mapXenditStatus(resp.Status) == StatusSuccess,
		TransactionID:   resp.ID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		GatewayResponse: resp.Status,
	}, nil
}

func (g *XenditGateway) TokenizePaymentMethod(ctx context.Context, req *ChargeRequest) (*TokenResult, error) {
	payload := map[string]interface{}{
		"account_number": req.CardNumber,
		"exp_month":      req.CardExpMonth,
		"exp_year":       req.CardExpYear,
		"cvn":            req.CardCVC,
	}

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := g.client.do(ctx, "POST", "/credit_card_tokens", payload, &resp); err != nil {
		return nil, fmt.Errorf("xendit: tokenization failed: %w", err)
	}

	return &TokenResult{
		Success:       resp.Status == "VERIFIED" || resp.Status == "APPROVED",
		TokenizedData: resp.ID,
		LastFour:      LastFour(req.CardNumber),
		ExpiryMonth:   req.CardExpMonth,
		ExpiryYear:    req.CardExpYear,
		Brand:         DetectCardBrand(req.CardNumber),
	}, nil
}

func (g *XenditGateway) Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error) {
	payload := map[string]interface{}{
		"amount": req.Amount,
		"reason": req.Reason,
	}

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	path := fmt.Sprintf("/credit_card_charges/%s/refunds", req.TransactionID)
	if err := g.client.do(ctx, "POST", path, payload, &resp); err != nil {
		return nil, fmt.Errorf("xendit: refund failed: %w", err)
	}

	return &RefundResult{
		Success:       resp.Status == "SUCCEEDED" || resp.Status == "REQUESTED",
		RefundID:      resp.ID,
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		Timestamp:     time.Now(),
	}, nil
}

func (g *XenditGateway) VerifyStatus(ctx context.Context, reference string) (*Verification, error) {
	var resp xenditCharge
	if err := g.client.do(ctx, "GET", "/credit_card_charges/"+reference, nil, &resp); err != nil {
		return nil, fmt.Errorf("xendit: verification failed: %w", err)
	}

	v := &Verification{
		Status: mapXenditStatus(resp.Status),
		Amount: resp.Amount,
	}
	if v.Status == StatusSuccess && resp.Created != "" {
		if paidAt, err := time.Parse(time.RFC3339, resp.Created); err == nil {
			v.PaidAt = paidAt
		}
	}
	return v, nil
}

func mapXenditStatus(status string) Status {
	switch status {
	case "CAPTURED", "PAID", "SETTLED":
		return StatusSuccess
	case "AUTHORIZED", "PENDING", "UNPAID":
		return StatusPending
	case "FAILED", "EXPIRED", "VOIDED", "REFUNDED":
		return StatusFailed
	default:
		return StatusUnknown
	}
}
