package risk

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/OmarElhagagy/tailored-sub002/internal/models"
	"github.com/OmarElhagagy/tailored-sub002/internal/telemetry"
)

// Weights are the per-evaluator score multipliers. They are fixed at
// analyzer construction; tests may override them, production uses
// DefaultConfig.
type Weights struct {
	NewAccount           float64
	AccountWithoutOrders float64
	UnusualAmount        float64
	MismatchedLocation   float64
	UnusualBehavior      float64
	RepeatedAttempts     float64
	KnownFraudPatterns   float64
	SuspiciousDevice     float64
}

// Thresholds map the aggregate score to a risk tier.
type Thresholds struct {
	High         float64 // >= High: block
	Medium       float64 // >= Medium: challenge
	MediumReview float64 // medium tier needs manual review above this
	Low          float64 // >= Low: monitor
}

type Config struct {
	Weights           Weights
	Thresholds        Thresholds
	HighRiskCountries map[string]bool
}

// DefaultConfig carries the compatibility constants of the historical
// scorer. Changing any value changes every score in production.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			NewAccount:           0.2,
			AccountWithoutOrders: 0.1,
			UnusualAmount:        0.15,
			MismatchedLocation:   0.25,
			UnusualBehavior:      0.2,
			RepeatedAttempts:     0.15,
			KnownFraudPatterns:   0.3,
			SuspiciousDevice:     0.15,
		},
		Thresholds: Thresholds{
			High:         0.8,
			Medium:       0.6,
			MediumReview: 0.7,
			Low:          0.3,
		},
		HighRiskCountries: map[string]bool{
			"KP": true,
			"IR": true,
			"SY": true,
			"CU": true,
		},
	}
}

// AssessmentStore persists assessments for manual-review queues. Writes
// are best-effort; scoring never fails on a store error.
type AssessmentStore interface {
	Save(ctx context.Context, record *models.AssessmentRecord) error
}

// Analyzer combines the signal evaluators into a single weighted
// assessment. It never returns an error: scoring is fail-safe by policy,
// any internal panic degrades to a conservative medium assessment that
// requires manual review.
type Analyzer struct {
	cfg       Config
	blacklist BlacklistStore
	audit     AssessmentStore
	tracker   *telemetry.Tracker
	logger    *zap.Logger
	now       func() time.Time
}

type AnalyzerOption func(*Analyzer)

// WithClock overrides the analyzer's clock. Used by tests to pin the
// time-of-day and account-age evaluators.
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) { a.now = now }
}

// WithAuditStore persists medium-and-above assessments for review.
func WithAuditStore(store AssessmentStore) AnalyzerOption {
	return func(a *Analyzer) { a.audit = store }
}

func NewAnalyzer(cfg Config, blacklist BlacklistStore, tracker *telemetry.Tracker, logger *zap.Logger, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		cfg:       cfg,
		blacklist: blacklist,
		tracker:   tracker,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeTransaction scores a checkout attempt. The blacklist check runs
// first and short-circuits everything else; the remaining evaluators run
// in a fixed order so the factor list is deterministic.
func (a *Analyzer) AnalyzeTransaction(ctx context.Context, tx *models.Transaction, user *models.UserProfile, rctx *models.RequestContext) (assessment *models.RiskAssessment) {
	start := a.now()

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("risk analysis panicked, returning conservative assessment",
				zap.Any("panic", r))
			assessment = a.failSafe(tx)
		}
		a.tracker.TrackMetric("risk_analysis_duration_seconds", time.Since(start).Seconds())
	}()

	if reason, hit := a.checkBlacklist(ctx, tx, user, rctx); hit {
		assessment = &models.RiskAssessment{
			TransactionID:        txID(tx),
			Score:                1.0,
			Level:                models.RiskLevelCritical,
			Action:               models.ActionBlock,
			Factors:              []string{reason},
			RequiresManualReview: true,
			Timestamp:            a.now(),
		}
		a.emit(ctx, user, assessment)
		return assessment
	}

	now := a.now()
	signals := []struct {
		weight float64
		signal Signal
	}{
		{a.cfg.Weights.NewAccount, evalAccountAge(user, now)},
		{a.cfg.Weights.AccountWithoutOrders, evalOrderHistory(user)},
		{a.cfg.Weights.UnusualAmount, evalAmount(tx, user)},
		{a.cfg.Weights.MismatchedLocation, evalLocation(tx, rctx, a.cfg.HighRiskCountries)},
		{a.cfg.Weights.UnusualBehavior, evalTimeOfDay(now)},
		{a.cfg.Weights.RepeatedAttempts, evalRepeatedAttempts(tx)},
		{a.cfg.Weights.KnownFraudPatterns, evalFraudPatterns(tx, user)},
		{a.cfg.Weights.SuspiciousDevice, evalDevice(rctx)},
	}

	var score float64
	var factors []string
	for _, s := range signals {
		if !s.signal.Risky {
			continue
		}
		score += s.weight * s.signal.Factor
		factors = append(factors, s.signal.Reason)
	}
	score = math.Round(score*100) / 100

	level, action, review := a.tier(score)
	assessment = &models.RiskAssessment{
		TransactionID:        txID(tx),
		Score:                score,
		Level:                level,
		Action:               action,
		Factors:              factors,
		RequiresManualReview: review,
		Timestamp:            a.now(),
	}
	a.emit(ctx, user, assessment)
	return assessment
}

func (a *Analyzer) tier(score float64) (models.RiskLevel, models.RiskAction, bool) {
	t := a.cfg.Thresholds
	switch {
	case score >= t.High:
		return models.RiskLevelHigh, models.ActionBlock, true
	case score >= t.Medium:
		return models.RiskLevelMedium, models.ActionChallenge, score > t.MediumReview
	case score >= t.Low:
		return models.RiskLevelLow, models.ActionMonitor, false
	default:
		return models.RiskLevelMinimal, models.ActionAllow, false
	}
}

// checkBlacklist treats store errors as misses: the blacklist is a
// heuristic, not a hard security boundary, and scoring must not fail.
func (a *Analyzer) checkBlacklist(ctx context.Context, tx *models.Transaction, user *models.UserProfile, rctx *models.RequestContext) (string, bool) {
	if a.blacklist == nil {
		return "", false
	}

	if rctx != nil && rctx.IPAddress != "" {
		if hit, err := a.blacklist.IsIPBlocked(ctx, rctx.IPAddress); err != nil {
			a.logger.Warn("blacklist ip lookup failed", zap.Error(err))
		} else if hit {
			return "blacklisted IP address", true
		}
	}
	if rctx != nil && rctx.DeviceID != "" {
		if hit, err := a.blacklist.IsDeviceBlocked(ctx, rctx.DeviceID); err != nil {
			a.logger.Warn("blacklist device lookup failed", zap.Error(err))
		} else if hit {
			return "blacklisted device", true
		}
	}
	if user != nil && user.Email != "" {
		if hit, err := a.blacklist.IsEmailBlocked(ctx, user.Email); err != nil {
			a.logger.Warn("blacklist email lookup failed", zap.Error(err))
		} else if hit {
			return "blacklisted email address", true
		}
	}
	return "", false
}

// failSafe is the conservative fallback: not an outright block, but never
// a silent allow either.
func (a *Analyzer) failSafe(tx *models.Transaction) *models.RiskAssessment {
	return &models.RiskAssessment{
		TransactionID:        txID(tx),
		Score:                0.5,
		Level:                models.RiskLevelMedium,
		Action:               models.ActionChallenge,
		RequiresManualReview: true,
		Timestamp:            a.now(),
	}
}

// emit publishes telemetry and, for medium and above, the audit record.
func (a *Analyzer) emit(ctx context.Context, user *models.UserProfile, assessment *models.RiskAssessment) {
	if assessment.Level == models.RiskLevelMinimal || assessment.Level == models.RiskLevelLow {
		return
	}

	userID := ""
	if user != nil {
		userID = user.ID
	}

	a.tracker.TrackEvent("risk_assessment_elevated", map[string]string{
		"user_id":        userID,
		"transaction_id": assessment.TransactionID,
		"risk_level":     string(assessment.Level),
		"action":         string(assessment.Action),
	})

	if a.audit == nil {
		return
	}
	record := &models.AssessmentRecord{
		UserID:        userID,
		TransactionID: assessment.TransactionID,
		Score:         assessment.Score,
		Level:         string(assessment.Level),
		Action:        string(assessment.Action),
		Factors:       assessment.Factors,
		CreatedAt:     assessment.Timestamp,
	}
	if err := a.audit.Save(ctx, record); err != nil {
		a.logger.Error("failed to save assessment record", zap.Error(err))
	}
}

func txID(tx *models.Transaction) string {
	if tx == nil {
		return ""
	}
	return tx.ID
}
