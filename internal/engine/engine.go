// Package engine implements the fraud risk decision engine.
//
// Architecture:
//
//	The engine is a pure function over (transaction, configuration): no I/O,
//	no clock reads, no shared mutable state. Identical inputs always produce
//	identical results, which makes batch evaluation embarrassingly parallel —
//	any number of goroutines may share one engine with zero coordination.
//
// Scoring philosophy:
//
//	Rules run in a fixed order and compose additively on a running score.
//	Each fired rule leaves a short machine-readable reason recording its
//	signed contribution, so reviewers can reconstruct every decision.
//	Order matters in exactly two places: the new-user bonus nests inside the
//	high-amount rule, and the frequency buffer only discounts a score that
//	is still positive after every risk rule has run.
//
// Stages:
//  1. Hard block — chargebacks + high-risk IP short-circuits to REJECTED/100
//  2. Categorical risk — IP, email, and device fingerprint risk levels
//  3. Reputation — trusted/recurrent credit, high-risk penalty
//  4. Context — night hour, geo mismatch, high amount (+ new-user bonus),
//     extreme latency
//  5. Frequency buffer — small discount for established repeat customers
//  6. Decision mapping — score vs the reject/review thresholds
package engine

import (
	"fmt"
	"strconv"

	"meridia/risk-engine/internal/config"
	"meridia/risk-engine/internal/domain"
)

// Engine evaluates transactions against an immutable scoring configuration.
type Engine struct {
	cfg *config.ScoringConfig
}

// New creates an engine bound to the given configuration. The configuration
// must already be validated and is never mutated by the engine.
func New(cfg *config.ScoringConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the configuration the engine evaluates against.
func (e *Engine) Config() *config.ScoringConfig {
	return e.cfg
}

// ─── Public API ───────────────────────────────────────────────────────────────

// Evaluate scores one transaction and maps the result to a verdict.
//
// It is total: any Transaction value yields a result, and malformed input
// has already been defaulted toward the low-risk reading by
// domain.ParseRecord. The returned score is un-clamped and may be negative
// when credit-type signals outweigh risks; only hard blocks produce 100.
func (e *Engine) Evaluate(tx domain.Transaction) domain.DecisionResult {
	if e.isHardBlock(tx) {
		return domain.DecisionResult{
			Decision:  domain.DecisionRejected,
			RiskScore: domain.HardBlockScore,
			Reasons: []string{
				fmt.Sprintf("hard_block:chargebacks>=%d+ip_high", e.cfg.ChargebackHardBlock),
			},
		}
	}

	t := &trail{}
	e.applyCategoricalRisks(tx, t)
	e.applyReputation(tx, t)
	e.applyContextualRisks(tx, t)
	e.applyFrequencyBuffer(tx, t)

	return e.mapDecision(t)
}

// ─── Stage 1: hard block ──────────────────────────────────────────────────────

// isHardBlock reports whether the transaction combines repeated chargebacks
// with a high-risk IP. This combination bypasses scoring entirely.
func (e *Engine) isHardBlock(tx domain.Transaction) bool {
	return tx.ChargebackCount >= e.cfg.ChargebackHardBlock && tx.IPRisk == domain.RiskHigh
}

// ─── Stage 2: categorical risks ───────────────────────────────────────────────

// applyCategoricalRisks scores the three categorical signals. Unknown or
// unmapped levels contribute nothing and emit no reason.
func (e *Engine) applyCategoricalRisks(tx domain.Transaction, t *trail) {
	categories := []struct {
		field   string
		value   string
		weights map[string]int
	}{
		{"ip_risk", tx.IPRisk, e.cfg.Weights.IPRisk},
		{"email_risk", tx.EmailRisk, e.cfg.Weights.EmailRisk},
		{"device_fingerprint_risk", tx.DeviceRisk, e.cfg.Weights.DeviceRisk},
	}
	for _, c := range categories {
		t.apply(fmt.Sprintf("%s:%s", c.field, c.value), c.weights[c.value])
	}
}

// ─── Stage 3: reputation ──────────────────────────────────────────────────────

func (e *Engine) applyReputation(tx domain.Transaction, t *trail) {
	t.apply("user_reputation:"+tx.UserReputation, e.cfg.Weights.UserReputation[tx.UserReputation])
}

// ─── Stage 4: contextual risks ────────────────────────────────────────────────

// applyContextualRisks runs the time, geo, amount, and latency rules in a
// fixed sub-order. The new-user bonus is nested: it is only considered when
// the high-amount rule fired.
func (e *Engine) applyContextualRisks(tx domain.Transaction, t *trail) {
	if isNight(tx.Hour) {
		t.apply(fmt.Sprintf("night_hour:%d", tx.Hour), e.cfg.Weights.NightHour)
	}

	if tx.BINCountry != "" && tx.IPCountry != "" && tx.BINCountry != tx.IPCountry {
		t.apply(fmt.Sprintf("geo_mismatch:%s!=%s", tx.BINCountry, tx.IPCountry), e.cfg.Weights.GeoMismatch)
	}

	if tx.AmountMXN >= e.cfg.AmountThreshold(tx.ProductType) {
		t.apply(fmt.Sprintf("high_amount:%s:%s", tx.ProductType, formatAmount(tx.AmountMXN)),
			e.cfg.Weights.HighAmount)
		if tx.UserReputation == domain.RepNew {
			t.apply("new_user_high_amount", e.cfg.Weights.NewUserHighAmount)
		}
	}

	if tx.LatencyMS >= e.cfg.LatencyMSExtreme {
		t.apply(fmt.Sprintf("latency_extreme:%dms", tx.LatencyMS), e.cfg.Weights.LatencyExtreme)
	}
}

// ─── Stage 5: frequency buffer ────────────────────────────────────────────────

// applyFrequencyBuffer grants established repeat customers a one-point
// discount. The discount is fixed, not configured, and only applies while
// the accumulated score is strictly positive — it never pushes a neutral
// score negative.
func (e *Engine) applyFrequencyBuffer(tx domain.Transaction, t *trail) {
	established := tx.UserReputation == domain.RepRecurrent || tx.UserReputation == domain.RepTrusted
	if established && tx.CustomerTxn30d >= 3 && t.score > 0 {
		t.apply("frequency_buffer", -1)
	}
}

// ─── Stage 6: decision mapping ────────────────────────────────────────────────

func (e *Engine) mapDecision(t *trail) domain.DecisionResult {
	decision := domain.DecisionAccepted
	switch {
	case t.score >= e.cfg.Decision.RejectAt:
		decision = domain.DecisionRejected
	case t.score >= e.cfg.Decision.ReviewAt:
		decision = domain.DecisionInReview
	}
	return domain.DecisionResult{
		Decision:  decision,
		RiskScore: t.score,
		Reasons:   t.reasons,
	}
}

// ─── Scoring trail ────────────────────────────────────────────────────────────

// trail accumulates the running score and the ordered reason list while the
// stages execute.
type trail struct {
	score   int
	reasons []string
}

// apply records one fired rule: it adds the delta to the running score and
// appends the label annotated with the signed contribution. A zero delta is
// a no-op, so unmapped enum values and zero-weight rules leave no trace.
func (t *trail) apply(label string, delta int) {
	if delta == 0 {
		return
	}
	t.score += delta
	t.reasons = append(t.reasons, fmt.Sprintf("%s(%s)", label, signed(delta)))
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

// isNight reports whether the hour falls in the 22:00–05:59 window.
func isNight(hour int) bool {
	return hour >= 22 || hour <= 5
}

// signed renders a delta with an explicit sign: +2, -1.
func signed(delta int) string {
	if delta >= 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}

// formatAmount renders an amount without trailing zeros (2500, 99.9).
func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
