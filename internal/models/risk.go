package models

import "time"

type RiskLevel string
type RiskAction string

const (
	RiskLevelMinimal  RiskLevel = "minimal"
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"

	ActionAllow     RiskAction = "allow"
	ActionMonitor   RiskAction = "monitor"
	ActionChallenge RiskAction = "challenge"
	ActionBlock     RiskAction = "block"
)

// Transaction is the per-checkout payment attempt handed to the risk
// analyzer and the orchestrator. It is never persisted itself; the
// resulting Payment record is.
type Transaction struct {
	ID              string  `json:"transaction_id"`
	Amount          float64 `json:"amount" binding:"required,gt=0"`
	Currency        string  `json:"currency" binding:"required,len=3"`
	Gateway         string  `json:"gateway"`
	CardholderName  string  `json:"cardholder_name"`
	BillingCountry  string  `json:"billing_country"`
	ShippingCountry string  `json:"shipping_country"`
	CardLast4       string  `json:"card_last4"`
	RetryCount      int     `json:"retry_count"`
}

// UserProfile is the read-only projection of the stored user that the
// scorer consumes. Supplied by the persistence layer, never mutated here.
type UserProfile struct {
	ID                 string    `json:"id"`
	FullName           string    `json:"full_name"`
	Email              string    `json:"email"`
	CreatedAt          time.Time `json:"created_at"`
	OrderCount         int       `json:"order_count"`
	AverageOrderAmount float64   `json:"average_order_amount"`
}

// RequestContext carries the per-request client details resolved by the
// web layer.
type RequestContext struct {
	IPAddress string `json:"ip_address"`
	IPCountry string `json:"ip_country"`
	UserAgent string `json:"user_agent"`
	DeviceID  string `json:"device_id"`
}

type RiskAssessment struct {
	TransactionID        string     `json:"transaction_id"`
	Score                float64    `json:"score"`
	Level                RiskLevel  `json:"risk_level"`
	Action               RiskAction `json:"action"`
	Factors              []string   `json:"factors"`
	RequiresManualReview bool       `json:"requires_manual_review"`
	Timestamp            time.Time  `json:"timestamp"`
}

// IsHighRisk reports whether the assessment should stop checkout outright.
func (a *RiskAssessment) IsHighRisk() bool {
	return a.Action == ActionBlock
}

// AssessmentRecord is the persisted audit copy of an assessment, kept for
// manual-review queues.
type AssessmentRecord struct {
	UserID        string    `bson:"user_id" json:"user_id"`
	TransactionID string    `bson:"transaction_id" json:"transaction_id"`
	Score         float64   `bson:"score" json:"score"`
	Level         string    `bson:"risk_level" json:"risk_level"`
	Action        string    `bson:"action" json:"action"`
	Factors       []string  `bson:"factors" json:"factors"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}
