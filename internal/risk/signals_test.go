package risk

import (
	"math"
	"testing"
	"time"

	"github.com/OmarElhagagy/tailored-sub002/internal/models"
)

var testNow = time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

func TestEvalAccountAge(t *testing.T) {
	tests := []struct {
		name       string
		createdAt  time.Time
		wantRisky  bool
		wantFactor float64
	}{
		{"created today", testNow.Add(-2 * time.Hour), true, 1.0},
		{"three days old", testNow.Add(-3 * 24 * time.Hour), true, 0.7},
		{"two weeks old", testNow.Add(-14 * 24 * time.Hour), true, 0.3},
		{"established account", testNow.Add(-400 * 24 * time.Hour), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evalAccountAge(&models.UserProfile{CreatedAt: tt.createdAt}, testNow)
			if got.Risky != tt.wantRisky || got.Factor != tt.wantFactor {
				t.Errorf("evalAccountAge() = {%v %v}, want {%v %v}", got.Risky, got.Factor, tt.wantRisky, tt.wantFactor)
			}
		})
	}

	if got := evalAccountAge(nil, testNow); got.Risky {
		t.Error("nil user must not be risky")
	}
}

func TestEvalOrderHistory(t *testing.T) {
	tests := []struct {
		name       string
		orders     int
		wantRisky  bool
		wantFactor float64
	}{
		{"first-time buyer", 0, true, 0.8},
		{"two orders", 2, true, 0.3},
		{"regular customer", 10, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evalOrderHistory(&models.UserProfile{OrderCount: tt.orders})
			if got.Risky != tt.wantRisky || got.Factor != tt.wantFactor {
				t.Errorf("evalOrderHistory() = {%v %v}, want {%v %v}", got.Risky, got.Factor, tt.wantRisky, tt.wantFactor)
			}
		})
	}
}

func TestEvalAmountRelativeBeforeAbsolute(t *testing.T) {
	// 6000 trips both the 3x-average and the absolute threshold; only
	// the relative check may fire.
	got := evalAmount(
		&models.Transaction{Amount: 6000},
		&models.UserProfile{AverageOrderAmount: 1000},
	)
	if !got.Risky || got.Factor != 0.6 {
		t.Fatalf("expected relative anomaly factor 0.6, got {%v %v}", got.Risky, got.Factor)
	}

	// Without an average the absolute threshold takes over.
	got = evalAmount(&models.Transaction{Amount: 6000}, &models.UserProfile{})
	if !got.Risky || got.Factor != 0.5 {
		t.Fatalf("expected absolute threshold factor 0.5, got {%v %v}", got.Risky, got.Factor)
	}

	if got := evalAmount(&models.Transaction{Amount: 50}, &models.UserProfile{AverageOrderAmount: 40}); got.Risky {
		t.Error("modest amount must not be risky")
	}
}

func TestEvalLocation(t *testing.T) {
	highRisk := map[string]bool{"KP": true}

	tests := []struct {
		name       string
		tx         models.Transaction
		rctx       models.RequestContext
		wantRisky  bool
		wantFactor float64
	}{
		{
			name:       "IP vs billing mismatch wins",
			tx:         models.Transaction{BillingCountry: "US", ShippingCountry: "GB"},
			rctx:       models.RequestContext{IPCountry: "DE"},
			wantRisky:  true,
			wantFactor: 0.8,
		},
		{
			name:       "billing vs shipping mismatch",
			tx:         models.Transaction{BillingCountry: "US", ShippingCountry: "GB"},
			rctx:       models.RequestContext{IPCountry: "US"},
			wantRisky:  true,
			wantFactor: 0.7,
		},
		{
			name:       "high-risk IP country",
			tx:         models.Transaction{BillingCountry: "KP", ShippingCountry: "KP"},
			rctx:       models.RequestContext{IPCountry: "KP"},
			wantRisky:  true,
			wantFactor: 0.6,
		},
		{
			name: "aligned countries",
			tx:   models.Transaction{BillingCountry: "US", ShippingCountry: "US"},
			rctx: models.RequestContext{IPCountry: "US"},
		},
		{
			name: "missing geo data",
			tx:   models.Transaction{},
			rctx: models.RequestContext{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evalLocation(&tt.tx, &tt.rctx, highRisk)
			if got.Risky != tt.wantRisky || got.Factor != tt.wantFactor {
				t.Errorf("evalLocation() = {%v %v}, want {%v %v}", got.Risky, got.Factor, tt.wantRisky, tt.wantFactor)
			}
		})
	}
}

func TestEvalTimeOfDay(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		got := evalTimeOfDay(time.Date(2025, 6, 15, hour, 30, 0, 0, time.UTC))
		wantRisky := hour >= 1 && hour <= 5
		if got.Risky != wantRisky {
			t.Errorf("hour %d: risky = %v, want %v", hour, got.Risky, wantRisky)
		}
		if got.Risky && got.Factor != 0.4 {
			t.Errorf("hour %d: factor = %v, want 0.4", hour, got.Factor)
		}
	}
}

func TestEvalRepeatedAttemptsMonotonic(t *testing.T) {
	if got := evalRepeatedAttempts(&models.Transaction{RetryCount: 2}); got.Risky {
		t.Fatal("two retries must not be risky")
	}

	prev := 0.0
	for retries := 3; retries <= 10; retries++ {
		got := evalRepeatedAttempts(&models.Transaction{RetryCount: retries})
		if !got.Risky {
			t.Fatalf("%d retries must be risky", retries)
		}
		if got.Factor < prev {
			t.Fatalf("factor decreased at %d retries: %v < %v", retries, got.Factor, prev)
		}
		if got.Factor > 1.0 {
			t.Fatalf("factor above 1.0 at %d retries: %v", retries, got.Factor)
		}
		prev = got.Factor
	}

	if got := evalRepeatedAttempts(&models.Transaction{RetryCount: 3}); math.Abs(got.Factor-0.7) > 1e-9 {
		t.Errorf("3 retries factor = %v, want 0.7", got.Factor)
	}
}

func TestEvalFraudPatterns(t *testing.T) {
	tests := []struct {
		name       string
		tx         models.Transaction
		user       models.UserProfile
		wantRisky  bool
		wantFactor float64
	}{
		{
			name:       "name mismatch wins over disposable email",
			tx:         models.Transaction{Amount: 100, CardholderName: "Jane Doe"},
			user:       models.UserProfile{FullName: "John Smith", Email: "x@mailinator.com"},
			wantRisky:  true,
			wantFactor: 0.9,
		},
		{
			name:       "disposable email",
			tx:         models.Transaction{Amount: 100, CardholderName: "John Smith"},
			user:       models.UserProfile{FullName: "John Smith", Email: "x@tempmail.com"},
			wantRisky:  true,
			wantFactor: 0.7,
		},
		{
			name:       "round amount above 500",
			tx:         models.Transaction{Amount: 600},
			user:       models.UserProfile{Email: "x@example.com"},
			wantRisky:  true,
			wantFactor: 0.4,
		},
		{
			name: "round amount at or below 500",
			tx:   models.Transaction{Amount: 500},
			user: models.UserProfile{Email: "x@example.com"},
		},
		{
			name: "clean transaction",
			tx:   models.Transaction{Amount: 123.45, CardholderName: "John Smith"},
			user: models.UserProfile{FullName: "J Smith", Email: "x@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evalFraudPatterns(&tt.tx, &tt.user)
			if got.Risky != tt.wantRisky || got.Factor != tt.wantFactor {
				t.Errorf("evalFraudPatterns() = {%v %v}, want {%v %v}", got.Risky, got.Factor, tt.wantRisky, tt.wantFactor)
			}
		})
	}
}

func TestEvalDevice(t *testing.T) {
	tests := []struct {
		name       string
		userAgent  string
		wantRisky  bool
		wantFactor float64
	}{
		{"missing user agent", "", true, 0.7},
		{"truncated user agent", "curl/8", true, 0.7},
		{"headless browser", "Mozilla/5.0 HeadlessChrome/120.0", true, 0.9},
		{"selenium", "Mozilla/5.0 (Selenium) Gecko/2010", true, 0.9},
		{"normal browser", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) Safari/605.1.15", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evalDevice(&models.RequestContext{UserAgent: tt.userAgent})
			if got.Risky != tt.wantRisky || got.Factor != tt.wantFactor {
				t.Errorf("evalDevice() = {%v %v}, want {%v %v}", got.Risky, got.Factor, tt.wantRisky, tt.wantFactor)
			}
		})
	}
}

// Evaluators are pure: identical input yields an identical signal.
func TestEvaluatorPurity(t *testing.T) {
	tx := &models.Transaction{Amount: 6000, RetryCount: 5, CardholderName: "Jane Doe"}
	user := &models.UserProfile{FullName: "John Smith", OrderCount: 1, AverageOrderAmount: 100, CreatedAt: testNow.Add(-2 * time.Hour)}
	rctx := &models.RequestContext{UserAgent: "phantomjs/2.1"}

	checks := []func() Signal{
		func() Signal { return evalAccountAge(user, testNow) },
		func() Signal { return evalOrderHistory(user) },
		func() Signal { return evalAmount(tx, user) },
		func() Signal { return evalRepeatedAttempts(tx) },
		func() Signal { return evalFraudPatterns(tx, user) },
		func() Signal { return evalDevice(rctx) },
	}

	for i, check := range checks {
		first, second := check(), check()
		if first != second {
			t.Errorf("evaluator %d not idempotent: %+v then %+v", i, first, second)
		}
	}
}
