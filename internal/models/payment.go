package models

import "time"

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusProcessing        PaymentStatus = "processing"
	PaymentStatusCompleted         PaymentStatus = "completed"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

type Payment struct {
	ID             string         `json:"id" db:"id"`
	Amount         float64        `json:"amount" db:"amount"`
	Currency       string         `json:"currency" db:"currency"`
	Gateway        string         `json:"gateway" db:"gateway"`
	Status         PaymentStatus  `json:"status" db:"status"`
	ProviderTxnID  string         `json:"provider_transaction_id,omitempty" db:"provider_transaction_id"`
	CardLast4      string         `json:"card_last4,omitempty" db:"card_last4"`
	CardBrand      string         `json:"card_brand,omitempty" db:"card_brand"`
	CustomerEmail  string         `json:"customer_email,omitempty" db:"customer_email"`
	IdempotencyKey string         `json:"idempotency_key,omitempty" db:"idempotency_key"`
	FailureReason  string         `json:"failure_reason,omitempty" db:"failure_reason"`
	Refunds        []Refund       `json:"refunds,omitempty"`
	StatusHistory  []StatusChange `json:"status_history,omitempty"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

type Refund struct {
	ID               string    `json:"id" db:"id"`
	PaymentID        string    `json:"payment_id" db:"payment_id"`
	ProviderRefundID string    `json:"provider_refund_id,omitempty" db:"provider_refund_id"`
	Amount           float64   `json:"amount" db:"amount"`
	Reason           string    `json:"reason,omitempty" db:"reason"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

type StatusChange struct {
	Status PaymentStatus `json:"status" db:"status"`
	Note   string        `json:"note,omitempty" db:"note"`
	At     time.Time     `json:"at" db:"at"`
}

// RefundedTotal returns the cumulative refunded amount.
func (p *Payment) RefundedTotal() float64 {
	var total float64
	for _, r := range p.Refunds {
		total += r.Amount
	}
	return total
}

// SetStatus updates the payment status and appends to the status history.
func (p *Payment) SetStatus(status PaymentStatus, note string) {
	p.Status = status
	p.UpdatedAt = time.Now()
	p.StatusHistory = append(p.StatusHistory, StatusChange{
		Status: status,
		Note:   note,
		At:     p.UpdatedAt,
	})
}

type PaymentRequest struct {
	Gateway        string         `json:"gateway" binding:"required"`
	Transaction    Transaction    `json:"transaction" binding:"required"`
	User           UserProfile    `json:"user"`
	CardNumber     string         `json:"card_number" binding:"required"`
	CardExpMonth   int            `json:"card_exp_month" binding:"required,min=1,max=12"`
	CardExpYear    int            `json:"card_exp_year" binding:"required"`
	CardCVC        string         `json:"card_cvc" binding:"required"`
	IdempotencyKey string         `json:"idempotency_key"`
	Context        RequestContext `json:"context"`
}

type RefundRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Reason string  `json:"reason"`
}

// Database schema
const PaymentSchema = `
CREATE TABLE IF NOT EXISTS payments (
    id VARCHAR(36) PRIMARY KEY,
    amount DECIMAL(19, 4) NOT NULL,
    currency VARCHAR(3) NOT NULL,
    gateway VARCHAR(32) NOT NULL,
    status VARCHAR(20) NOT NULL,
    provider_transaction_id VARCHAR(255),
    card_last4 VARCHAR(4),
    card_brand VARCHAR(20),
    customer_email VARCHAR(255),
    idempotency_key VARCHAR(255) UNIQUE,
    failure_reason TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS refunds (
    id VARCHAR(36) PRIMARY KEY,
    payment_id VARCHAR(36) NOT NULL REFERENCES payments(id),
    provider_refund_id VARCHAR(255),
    amount DECIMAL(19, 4) NOT NULL,
    reason TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS payment_status_history (
    payment_id VARCHAR(36) NOT NULL REFERENCES payments(id),
    status VARCHAR(20) NOT NULL,
    note TEXT,
    at TIMESTAMP NOT NULL DEFAULT NOW()
);
`
