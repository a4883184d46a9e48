package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Status is the normalized transaction status vocabulary. Every adapter
// maps its provider's proprietary states into these four values.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
	StatusUnknown Status = "unknown"
)

type ChargeRequest struct {
	Reference      string
	Amount         float64
	Currency       string
	CardNumber     string
	CardExpMonth   int
	CardExpYear    int
	CardCVC        string
	CardholderName string
	CustomerEmail  string
	Description    string
	Metadata       map[string]string
}

type ChargeResult struct {
	Success         bool
	TransactionID   string
	Amount          float64
	Currency        string
	GatewayResponse string
}

type TokenResult struct {
	Success       bool
	TokenizedData string
	LastFour      string
	ExpiryMonth   int
	ExpiryYear    int
	Brand         string
}

type RefundRequest struct {
	TransactionID string
	Amount        float64
	Reason        string
}

type RefundResult struct {
	Success       bool
	RefundID      string
	TransactionID string
	Amount        float64
	Timestamp     time.Time
}

type Verification struct {
	Status Status
	Amount float64
	PaidAt time.Time
}

// Gateway is the uniform payment-provider contract. Implementations wrap
// provider errors with their provider name and rethrow; retry and
// fallback decisions belong to the caller.
type Gateway interface {
	Name() string
	ProcessPayment(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
	TokenizePaymentMethod(ctx context.Context, req *ChargeRequest) (*TokenResult, error)
	Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error)
	VerifyStatus(ctx context.Context, reference string) (*Verification, error)
}

var ErrUnknownGateway = errors.New("unknown payment gateway")

// Registry maps gateway names to implementations. Only providers whose
// credentials are configured get registered, so membership doubles as the
// supported-gateway check.
type Registry struct {
	gateways map[string]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway)}
	for _, g := range gateways {
		r.Register(g)
	}
	return r
}

func (r *Registry) Register(g Gateway) {
	r.gateways[g.Name()] = g
}

func (r *Registry) Get(name string) (Gateway, error) {
	g, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGateway, name)
	}
	return g, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
