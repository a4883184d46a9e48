package risk

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/OmarElhagagy/tailored-sub002/internal/models"
	"github.com/OmarElhagagy/tailored-sub002/internal/telemetry"
)

func newTestAnalyzer(t *testing.T, blacklist BlacklistStore) *Analyzer {
	t.Helper()
	tracker := telemetry.NewTracker(zap.NewNop(), prometheus.NewRegistry())
	return NewAnalyzer(DefaultConfig(), blacklist, tracker, zap.NewNop(),
		WithClock(func() time.Time { return testNow }))
}

func cleanProfile() (*models.Transaction, *models.UserProfile, *models.RequestContext) {
	tx := &models.Transaction{
		ID:              "txn-1",
		Amount:          123.45,
		Currency:        "USD",
		CardholderName:  "John Smith",
		BillingCountry:  "US",
		ShippingCountry: "US",
	}
	user := &models.UserProfile{
		ID:                 "user-1",
		FullName:           "John Smith",
		Email:              "john@example.com",
		CreatedAt:          testNow.Add(-400 * 24 * time.Hour),
		OrderCount:         5,
		AverageOrderAmount: 1000,
	}
	rctx := &models.RequestContext{
		IPAddress: "203.0.113.7",
		IPCountry: "US",
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) Safari/605.1.15",
		DeviceID:  "device-1",
	}
	return tx, user, rctx
}

func TestAnalyzeCleanTransaction(t *testing.T) {
	a := newTestAnalyzer(t, NewMemoryBlacklist())
	tx, user, rctx := cleanProfile()

	got := a.AnalyzeTransaction(context.Background(), tx, user, rctx)

	if got.Score != 0 {
		t.Errorf("score = %v, want 0", got.Score)
	}
	if got.Level != models.RiskLevelMinimal || got.Action != models.ActionAllow {
		t.Errorf("got %s/%s, want minimal/allow", got.Level, got.Action)
	}
	if got.RequiresManualReview {
		t.Error("clean transaction must not require review")
	}
}

// A brand-new account with no other factors lands at 0.2, which is below
// the 0.3 low threshold: still minimal/allow.
func TestAnalyzeNewAccountOnly(t *testing.T) {
	a := newTestAnalyzer(t, NewMemoryBlacklist())
	tx, user, rctx := cleanProfile()
	user.CreatedAt = testNow.Add(-2 * time.Hour)

	got := a.AnalyzeTransaction(context.Background(), tx, user, rctx)

	if got.Score != 0.2 {
		t.Errorf("score = %v, want 0.2", got.Score)
	}
	if got.Level != models.RiskLevelMinimal || got.Action != models.ActionAllow {
		t.Errorf("got %s/%s, want minimal/allow", got.Level, got.Action)
	}
}

// The end-to-end anomaly scenario: only the relative amount check fires,
// contributing 0.15 * 0.6 = 0.09. A non-round amount keeps the round-amount
// pattern check out of the picture.
func TestAnalyzeAmountAnomalyScenario(t *testing.T) {
	a := newTestAnalyzer(t, NewMemoryBlacklist())
	tx, user, rctx := cleanProfile()
	tx.Amount = 6050

	got := a.AnalyzeTransaction(context.Background(), tx, user, rctx)

	if got.Score != 0.09 {
		t.Errorf("score = %v, want 0.09", got.Score)
	}
	if got.Level != models.RiskLevelMinimal || got.Action != models.ActionAllow {
		t.Errorf("got %s/%s, want minimal/allow", got.Level, got.Action)
	}
	if len(got.Factors) != 1 {
		t.Errorf("factors = %v, want exactly the amount anomaly", got.Factors)
	}
}

// A large round amount trips both the relative anomaly (0.15 * 0.6) and the
// round-amount pattern (0.4 * 0.3); the contributions add up.
func TestAnalyzeRoundAmountCompounds(t *testing.T) {
	a := newTestAnalyzer(t, NewMemoryBlacklist())
	tx, user, rctx := cleanProfile()
	tx.Amount = 6000

	got := a.AnalyzeTransaction(context.Background(), tx, user, rctx)

	if got.Score != 0.21 {
		t.Errorf("score = %v, want 0.21", got.Score)
	}
	if got.Level != models.RiskLevelMinimal || got.Action != models.ActionAllow {
		t.Errorf("got %s/%s, want minimal/allow", got.Level, got.Action)
	}
	if len(got.Factors) != 2 {
		t.Errorf("factors = %v, want amount anomaly plus round amount", got.Factors)
	}
}

func TestAnalyzeMediumTier(t *testing.T) {
	a := newTestAnalyzer(t, NewMemoryBlacklist())
	tx, user, rctx := cleanProfile()

	// new account (0.2) + IP/billing mismatch (0.2) + name mismatch (0.27)
	user.CreatedAt = testNow.Add(-2 * time.Hour)
	rctx.IPCountry = "DE"
	tx.CardholderName = "Jane Doe"
	tx.Amount = 123.45

	got := a.AnalyzeTransaction(context.Background(), tx, user, rctx)

	if got.Score != 0.67 {
		t.Errorf("score = %v, want 0.67", got.Score)
	}
	if got.Level != models.RiskLevelMedium || got.Action != models.ActionChallenge {
		t.Errorf("got %s/%s, want medium/challenge", got.Level, got.Action)
	}
	if got.RequiresManualReview {
		t.Error("medium at or below 0.7 must not require review")
	}
}

func TestAnalyzeHighTier(t *testing.T) {
	a := newTestAnalyzer(t, NewMemoryBlacklist())
	tx, user, rctx := cleanProfile()

	user.CreatedAt = testNow.Add(-2 * time.Hour) // 0.2
	user.OrderCount = 0                          // 0.08
	rctx.IPCountry = "DE"                        // 0.2
	tx.CardholderName = "Jane Doe"               // 0.27
	tx.RetryCount = 3                            // 0.105

	got := a.AnalyzeTransaction(context.Background(), tx, user, rctx)

	if got.Score < 0.8 {
		t.Fatalf("score = %v, want >= 0.8", got.Score)
	}
	if got.Level != models.RiskLevelHigh || got.Action != models.ActionBlock {
		t.Errorf("got %s/%s, want high/block", got.Level, got.Action)
	}
	if !got.RequiresManualReview {
		t.Error("high tier requires manual review")
	}
	if len(got.Factors) != 5 {
		t.Errorf("got %d factors, want 5: %v", len(got.Factors), got.Factors)
	}
}

func TestAnalyzeBlacklistShortCircuits(t *testing.T) {
	blacklist := NewMemoryBlacklist()
	if err := blacklist.AddIP(context.Background(), "203.0.113.7"); err != nil {
		t.Fatal(err)
	}
	a := newTestAnalyzer(t, blacklist)

	// Every other factor maxed out must not matter.
	tx, user, rctx := cleanProfile()
	user.CreatedAt = testNow.Add(-1 * time.Hour)
	tx.RetryCount = 9

	got := a.AnalyzeTransaction(context.Background(), tx, user, rctx)

	if got.Score != 1.0 {
		t.Errorf("score = %v, want 1.0", got.Score)
	}
	if got.Level != models.RiskLevelCritical || got.Action != models.ActionBlock {
		t.Errorf("got %s/%s, want critical/block", got.Level, got.Action)
	}
	if !got.RequiresManualReview {
		t.Error("blacklist hit requires manual review")
	}
	if len(got.Factors) != 1 {
		t.Errorf("blacklist must bypass other evaluators, got factors %v", got.Factors)
	}
}

func TestAnalyzeBlacklistEmailPattern(t *testing.T) {
	blacklist := NewMemoryBlacklist()
	if err := blacklist.AddEmailPattern(context.Background(), `@fraudster\.example$`); err != nil {
		t.Fatal(err)
	}
	a := newTestAnalyzer(t, blacklist)

	tx, user, rctx := cleanProfile()
	user.Email = "bad@fraudster.example"

	got := a.AnalyzeTransaction(context.Background(), tx, user, rctx)
	if got.Level != models.RiskLevelCritical {
		t.Errorf("level = %s, want critical", got.Level)
	}
}

type panickyBlacklist struct{}

func (panickyBlacklist) IsIPBlocked(context.Context, string) (bool, error) { panic("boom") }
func (panickyBlacklist) IsDeviceBlocked(context.Context, string) (bool, error) {
	return false, nil
}
func (panickyBlacklist) IsEmailBlocked(context.Context, string) (bool, error) { return false, nil }
func (panickyBlacklist) AddIP(context.Context, string) error                  { return nil }
func (panickyBlacklist) AddDevice(context.Context, string) error              { return nil }
func (panickyBlacklist) AddEmailPattern(context.Context, string) error        { return nil }

// Internal failures degrade to a conservative medium assessment instead
// of propagating.
func TestAnalyzeFailSafe(t *testing.T) {
	a := newTestAnalyzer(t, panickyBlacklist{})
	tx, user, rctx := cleanProfile()

	got := a.AnalyzeTransaction(context.Background(), tx, user, rctx)

	if got.Score != 0.5 {
		t.Errorf("score = %v, want 0.5", got.Score)
	}
	if got.Level != models.RiskLevelMedium || got.Action != models.ActionChallenge {
		t.Errorf("got %s/%s, want medium/challenge", got.Level, got.Action)
	}
	if !got.RequiresManualReview {
		t.Error("fail-safe assessment requires manual review")
	}
}

type recordingAuditStore struct {
	records []*models.AssessmentRecord
}

func (s *recordingAuditStore) Save(_ context.Context, record *models.AssessmentRecord) error {
	s.records = append(s.records, record)
	return nil
}

func TestAnalyzeAuditsElevatedAssessments(t *testing.T) {
	audit := &recordingAuditStore{}
	tracker := telemetry.NewTracker(zap.NewNop(), prometheus.NewRegistry())
	a := NewAnalyzer(DefaultConfig(), NewMemoryBlacklist(), tracker, zap.NewNop(),
		WithClock(func() time.Time { return testNow }),
		WithAuditStore(audit))

	tx, user, rctx := cleanProfile()
	a.AnalyzeTransaction(context.Background(), tx, user, rctx)
	if len(audit.records) != 0 {
		t.Fatalf("minimal assessment must not be audited, got %d records", len(audit.records))
	}

	user.CreatedAt = testNow.Add(-2 * time.Hour)
	rctx.IPCountry = "DE"
	tx.CardholderName = "Jane Doe"
	a.AnalyzeTransaction(context.Background(), tx, user, rctx)
	if len(audit.records) != 1 {
		t.Fatalf("medium assessment must be audited, got %d records", len(audit.records))
	}
	if audit.records[0].UserID != "user-1" || audit.records[0].TransactionID != "txn-1" {
		t.Errorf("audit record misattributed: %+v", audit.records[0])
	}
}
