package risk

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/OmarElhagagy/tailored-sub002/internal/models"
)

// Signal is the outcome of a single evaluator. A zero Signal means the
// dimension does not apply or carries no risk. Factor is always in [0,1].
type Signal struct {
	Risky  bool
	Factor float64
	Reason string
}

var notRisky = Signal{}

// Evaluators never fail: missing or malformed input short-circuits to a
// non-risky signal. Thresholds are fixed for compatibility with the
// historical scorer and must not drift.

func evalAccountAge(user *models.UserProfile, now time.Time) Signal {
	if user == nil || user.CreatedAt.IsZero() {
		return notRisky
	}

	age := now.Sub(user.CreatedAt)
	switch {
	case age < 24*time.Hour:
		return Signal{Risky: true, Factor: 1.0, Reason: "account created today"}
	case age < 7*24*time.Hour:
		return Signal{Risky: true, Factor: 0.7, Reason: "account less than a week old"}
	case age < 30*24*time.Hour:
		return Signal{Risky: true, Factor: 0.3, Reason: "account less than a month old"}
	}
	return notRisky
}

func evalOrderHistory(user *models.UserProfile) Signal {
	if user == nil {
		return notRisky
	}

	switch {
	case user.OrderCount == 0:
		return Signal{Risky: true, Factor: 0.8, Reason: "first-time buyer"}
	case user.OrderCount < 3:
		return Signal{Risky: true, Factor: 0.3, Reason: "fewer than 3 previous orders"}
	}
	return notRisky
}

// evalAmount checks the relative anomaly before the absolute threshold;
// only the first matching condition fires.
func evalAmount(tx *models.Transaction, user *models.UserProfile) Signal {
	if tx == nil {
		return notRisky
	}

	if user != nil && user.AverageOrderAmount > 0 && tx.Amount > 3*user.AverageOrderAmount {
		return Signal{
			Risky:  true,
			Factor: 0.6,
			Reason: fmt.Sprintf("amount %.2f exceeds 3x user average %.2f", tx.Amount, user.AverageOrderAmount),
		}
	}
	if tx.Amount > 5000 {
		return Signal{
			Risky:  true,
			Factor: 0.5,
			Reason: fmt.Sprintf("high-value transaction: %.2f", tx.Amount),
		}
	}
	return notRisky
}

func evalLocation(tx *models.Transaction, rctx *models.RequestContext, highRisk map[string]bool) Signal {
	if tx == nil || rctx == nil {
		return notRisky
	}

	if rctx.IPCountry != "" && tx.BillingCountry != "" && rctx.IPCountry != tx.BillingCountry {
		return Signal{
			Risky:  true,
			Factor: 0.8,
			Reason: fmt.Sprintf("IP country %s does not match billing country %s", rctx.IPCountry, tx.BillingCountry),
		}
	}
	if tx.BillingCountry != "" && tx.ShippingCountry != "" && tx.BillingCountry != tx.ShippingCountry {
		return Signal{
			Risky:  true,
			Factor: 0.7,
			Reason: fmt.Sprintf("billing country %s does not match shipping country %s", tx.BillingCountry, tx.ShippingCountry),
		}
	}
	if rctx.IPCountry != "" && highRisk[rctx.IPCountry] {
		return Signal{
			Risky:  true,
			Factor: 0.6,
			Reason: fmt.Sprintf("IP located in high-risk country %s", rctx.IPCountry),
		}
	}
	return notRisky
}

func evalTimeOfDay(now time.Time) Signal {
	hour := now.Hour()
	if hour >= 1 && hour <= 5 {
		return Signal{
			Risky:  true,
			Factor: 0.4,
			Reason: fmt.Sprintf("transaction at unusual hour: %02d:00", hour),
		}
	}
	return notRisky
}

func evalRepeatedAttempts(tx *models.Transaction) Signal {
	if tx == nil || tx.RetryCount <= 2 {
		return notRisky
	}

	factor := 0.6 + float64(tx.RetryCount-2)*0.1
	if factor > 1.0 {
		factor = 1.0
	}
	return Signal{
		Risky:  true,
		Factor: factor,
		Reason: fmt.Sprintf("%d payment attempts for this checkout", tx.RetryCount),
	}
}

var disposableEmailDomains = map[string]bool{
	"tempmail.com":   true,
	"throwaway.com":  true,
	"mailinator.com": true,
}

// evalFraudPatterns checks name mismatch, then disposable email, then
// suspiciously round amounts; only the first matching condition fires.
func evalFraudPatterns(tx *models.Transaction, user *models.UserProfile) Signal {
	if tx != nil && user != nil && tx.CardholderName != "" && user.FullName != "" {
		if !CompareNames(tx.CardholderName, user.FullName) {
			return Signal{
				Risky:  true,
				Factor: 0.9,
				Reason: "cardholder name does not match account name",
			}
		}
	}

	if user != nil && user.Email != "" {
		if at := strings.LastIndex(user.Email, "@"); at >= 0 {
			domain := strings.ToLower(user.Email[at+1:])
			if disposableEmailDomains[domain] {
				return Signal{
					Risky:  true,
					Factor: 0.7,
					Reason: fmt.Sprintf("disposable email domain: %s", domain),
				}
			}
		}
	}

	if tx != nil && tx.Amount > 500 && math.Mod(tx.Amount, 100) == 0 {
		return Signal{
			Risky:  true,
			Factor: 0.4,
			Reason: fmt.Sprintf("suspiciously round amount: %.2f", tx.Amount),
		}
	}
	return notRisky
}

var botSignatures = []string{
	"headless",
	"phantomjs",
	"selenium",
	"webdriver",
	"puppet",
	"automation",
}

func evalDevice(rctx *models.RequestContext) Signal {
	if rctx == nil {
		return notRisky
	}

	if len(rctx.UserAgent) < 10 {
		return Signal{
			Risky:  true,
			Factor: 0.7,
			Reason: "missing or truncated user agent",
		}
	}

	ua := strings.ToLower(rctx.UserAgent)
	for _, sig := range botSignatures {
		if strings.Contains(ua, sig) {
			return Signal{
				Risky:  true,
				Factor: 0.9,
				Reason: fmt.Sprintf("automation signature in user agent: %s", sig),
			}
		}
	}
	return notRisky
}
