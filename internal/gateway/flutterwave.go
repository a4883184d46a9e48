package gateway

import (
	"context"
	"fmt"
	"time"
)

type FlutterwaveGateway struct {
	client *restClient
}

func NewFlutterwaveGateway(secretKey string) *FlutterwaveGateway {
	return &FlutterwaveGateway{
		client: newRESTClient("https://api.flutterwave.com", "Authorization", "Bearer "+secretKey),
	}
}

func (g *FlutterwaveGateway) Name() string { return "flutterwave" }

type flutterwaveResponse struct {
	Status string `json:"status"`
	Data   struct {
		ID        int64   `json:"id"`
		TxRef     string  `json:"tx_ref"`
		FlwRef    string  `json:"flw_ref"`
		Status    string  `json:"status"`
		Amount    float64 `json:"amount"`
		CreatedAt string  `json:"created_at"`
	} `json:"data"`
	Message string `json:"message"`
}

func (g *FlutterwaveGateway) ProcessPayment(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	payload := map[string]interface{}{
		"tx_ref":       req.Reference,
		"amount":       req.Amount,
		"currency":     req.Currency,
		"email":        req.CustomerEmail,
		"fullname":     req.CardholderName,
		"card_number":  req.CardNumber,
		"cvv":          req.CardCVC,
		"expiry_month": req.CardExpMonth,
		"expiry_year":  req.CardExpYear,
	}

	var resp flutterwaveResponse
	if err := g.client.do(ctx, "POST", "/v3/charges?type=card", payload, &resp); err != nil {
		return nil, fmt.Errorf("flutterwave: charge failed: %w", err)
	}

	return &ChargeResult{
		Success:         mapFlutterwaveStatus(resp.Data.Status) == StatusSuccess,
		TransactionID:   resp.Data.FlwRef,
		Amount:          req.Amount,
		Currency:        req.Currency,
		GatewayResponse: resp.Data.Status,
	}, nil
}

func (g *FlutterwaveGateway) TokenizePaymentMethod(ctx context.Context, req *ChargeRequest) (*TokenResult, error) {
	payload := map[string]interface{}{
		"email":        req.CustomerEmail,
		"card_number":  req.CardNumber,
		"cvv":          req.CardCVC,
		"expiry_month": req.CardExpMonth,
		"expiry_year":  req.CardExpYear,
	}

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := g.client.do(ctx, "POST", "/v3/tokens", payload, &resp); err != nil {
		return nil, fmt.Errorf("flutterwave: tokenization failed: %w", err)
	}

	return &TokenResult{
		Success:       resp.Status == "success",
		TokenizedData: resp.Data.Token,
		LastFour:      LastFour(req.CardNumber),
		ExpiryMonth:   req.CardExpMonth,
		ExpiryYear:    req.CardExpYear,
		Brand:         DetectCardBrand(req.CardNumber),
	}, nil
}

func (g *FlutterwaveGateway) Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error) {
	payload := map[string]interface{}{
		"amount":   req.Amount,
		"comments": req.Reason,
	}

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/v3/transactions/%s/refund", req.TransactionID)
	if err := g.client.do(ctx, "POST", path, payload, &resp); err != nil {
		return nil, fmt.Errorf("flutterwave: refund failed: %w", err)
	}

	return &RefundResult{
		Success:       resp.Status == "success",
		RefundID:      fmt.Sprintf("%d", resp.Data.ID),
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		Timestamp:     time.Now(),
	}, nil
}

func (g *FlutterwaveGateway) VerifyStatus(ctx context.Context, reference string) (*Verification, error) {
	var resp flutterwaveResponse
	path := fmt.Sprintf("/v3/transactions/%s/verify", reference)
	if err := g.client.do(ctx, "GET", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("flutterwave: verification failed: %w", err)
	}

	v := &Verification{
		Status: mapFlutterwaveStatus(resp.Data.Status),
		Amount: resp.Data.Amount,
	}
	if v.Status == StatusSuccess && resp.Data.CreatedAt != "" {
		if paidAt, err := time.Parse(time.RFC3339, resp.Data.CreatedAt); err == nil {
			v.PaidAt = paidAt
		}
	}
	return v, nil
}

func mapFlutterwaveStatus(status string) Status {
	switch status {
	case "successful":
		return StatusSuccess
	case "pending":
		return StatusPending
	case "failed", "cancelled":
		return StatusFailed
	default:
		return StatusUnknown
	}
}
