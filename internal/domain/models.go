// Package domain contains all core types used across the application.
// Keeping domain types in one place makes the scoring rules easy to reason about.
package domain

import (
	"strings"
	"time"
)

// ─── Constants ───────────────────────────────────────────────────────────────

// Decision verdicts for a scored transaction.
const (
	DecisionAccepted = "ACCEPTED"  // below the review threshold
	DecisionInReview = "IN_REVIEW" // route to manual review queue
	DecisionRejected = "REJECTED"  // at or above the reject threshold
)

// Categorical risk levels shared by ip_risk, email_risk and
// device_fingerprint_risk. email_risk additionally knows RiskNewDomain.
const (
	RiskLow       = "low"
	RiskMedium    = "medium"
	RiskHigh      = "high"
	RiskNewDomain = "new_domain"
)

// User reputation tiers.
const (
	RepTrusted   = "trusted"
	RepRecurrent = "recurrent"
	RepNew       = "new"
	RepHighRisk  = "high_risk"
)

// HardBlockScore is reserved exclusively for hard-block rejections.
// Accumulated scores never reach it through normal rule evaluation.
const HardBlockScore = 100

// DefaultProductType is the fallback key into the amount threshold table
// when a transaction's product_type is unknown.
const DefaultProductType = "_default"

// ─── Core domain types ────────────────────────────────────────────────────────

// Transaction is a single payment transaction as seen by the risk evaluator.
// It is immutable for the duration of an evaluation. Fields not supplied by
// the record source carry the documented low-risk defaults (see ParseRecord).
type Transaction struct {
	ChargebackCount int     `json:"chargeback_count"`
	IPRisk          string  `json:"ip_risk"`                 // low | medium | high
	EmailRisk       string  `json:"email_risk"`              // low | medium | high | new_domain
	DeviceRisk      string  `json:"device_fingerprint_risk"` // low | medium | high
	UserReputation  string  `json:"user_reputation"`         // trusted | recurrent | new | high_risk
	Hour            int     `json:"hour"`        // local hour of day, 0-23
	BINCountry      string  `json:"bin_country"` // ISO-like code of the issuing bank
	IPCountry       string  `json:"ip_country"`  // ISO-like code of the client IP
	AmountMXN       float64 `json:"amount_mxn"`
	ProductType     string  `json:"product_type"` // key into the amount threshold table
	LatencyMS       int     `json:"latency_ms"`
	CustomerTxn30d  int     `json:"customer_txn_30d"`
}

// DecisionResult is the outcome of evaluating one transaction.
// Reasons preserve the exact order in which rules fired.
type DecisionResult struct {
	Decision  string   `json:"decision"`   // ACCEPTED | IN_REVIEW | REJECTED
	RiskScore int      `json:"risk_score"` // un-clamped; may be negative
	Reasons   []string `json:"reasons"`
}

// ReasonString joins the fired-rule labels with semicolons, the format used
// in the decisions CSV and audit trails.
func (r DecisionResult) ReasonString() string {
	return strings.Join(r.Reasons, ";")
}

// DecisionRecord is a DecisionResult enriched with identity and timing,
// as stored and returned by the HTTP API.
type DecisionRecord struct {
	ID          string    `json:"id"`
	Transaction Record    `json:"transaction"`
	Decision    string    `json:"decision"`
	RiskScore   int       `json:"risk_score"`
	Reasons     string    `json:"reasons"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}
