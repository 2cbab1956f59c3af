package engine_test

import (
	"reflect"
	"testing"

	"meridia/risk-engine/internal/config"
	"meridia/risk-engine/internal/domain"
	"meridia/risk-engine/internal/engine"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

func newEngine() *engine.Engine {
	return engine.New(config.Default())
}

// baseTx returns a clean, low-risk transaction as a starting point.
// It matches the all-default scenario: score 0, ACCEPTED, no reasons.
func baseTx() domain.Transaction {
	return domain.Transaction{
		ChargebackCount: 0,
		IPRisk:          domain.RiskLow,
		EmailRisk:       domain.RiskLow,
		DeviceRisk:      domain.RiskLow,
		UserReputation:  domain.RepNew,
		Hour:            12,
		BINCountry:      "MX",
		IPCountry:       "MX",
		AmountMXN:       100,
		ProductType:     "digital",
		LatencyMS:       10,
		CustomerTxn30d:  0,
	}
}

func hasReason(result domain.DecisionResult, want string) bool {
	for _, r := range result.Reasons {
		if r == want {
			return true
		}
	}
	return false
}

func hasReasonPrefix(result domain.DecisionResult, prefix string) bool {
	for _, r := range result.Reasons {
		if len(r) >= len(prefix) && r[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// ─── Scenario: all-default low risk ───────────────────────────────────────────

func TestEvaluate_LowRiskTransaction_Accepted(t *testing.T) {
	e := newEngine()
	result := e.Evaluate(baseTx())

	if result.Decision != domain.DecisionAccepted {
		t.Errorf("expected ACCEPTED, got %s", result.Decision)
	}
	if result.RiskScore != 0 {
		t.Errorf("expected score 0, got %d", result.RiskScore)
	}
	if result.ReasonString() != "" {
		t.Errorf("expected empty reasons, got %q", result.ReasonString())
	}
}

// ─── Hard block ───────────────────────────────────────────────────────────────

func TestEvaluate_HardBlock_RejectsAt100(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.ChargebackCount = 3
	tx.IPRisk = domain.RiskHigh

	result := e.Evaluate(tx)

	if result.Decision != domain.DecisionRejected {
		t.Errorf("expected REJECTED, got %s", result.Decision)
	}
	if result.RiskScore != 100 {
		t.Errorf("expected score 100, got %d", result.RiskScore)
	}
	if result.ReasonString() != "hard_block:chargebacks>=2+ip_high" {
		t.Errorf("unexpected reasons: %q", result.ReasonString())
	}
}

func TestEvaluate_HardBlock_PrecedesEverything(t *testing.T) {
	// Even a maximally risky transaction must produce the exact hard-block
	// result; no later stage runs.
	e := newEngine()
	tx := baseTx()
	tx.ChargebackCount = 99
	tx.IPRisk = domain.RiskHigh
	tx.EmailRisk = domain.RiskHigh
	tx.DeviceRisk = domain.RiskHigh
	tx.UserReputation = domain.RepHighRisk
	tx.Hour = 23
	tx.BINCountry = "US"
	tx.IPCountry = "MX"
	tx.AmountMXN = 99999
	tx.LatencyMS = 99999

	result := e.Evaluate(tx)

	if result.RiskScore != 100 || result.Decision != domain.DecisionRejected {
		t.Errorf("expected {REJECTED, 100}, got {%s, %d}", result.Decision, result.RiskScore)
	}
	if len(result.Reasons) != 1 {
		t.Errorf("hard block must be the only reason, got %v", result.Reasons)
	}
}

func TestEvaluate_ChargebacksWithoutHighIP_NoHardBlock(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.ChargebackCount = 5
	tx.IPRisk = domain.RiskMedium

	result := e.Evaluate(tx)

	if hasReasonPrefix(result, "hard_block") {
		t.Errorf("hard block requires high IP risk, got %v", result.Reasons)
	}
}

func TestEvaluate_HighIPBelowChargebackThreshold_NoHardBlock(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.ChargebackCount = 1
	tx.IPRisk = domain.RiskHigh

	result := e.Evaluate(tx)

	if hasReasonPrefix(result, "hard_block") {
		t.Errorf("1 chargeback is below the threshold of 2, got %v", result.Reasons)
	}
}

// ─── Categorical risks ────────────────────────────────────────────────────────

func TestEvaluate_IPRiskMedium_Adds2(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.IPRisk = domain.RiskMedium

	result := e.Evaluate(tx)

	if result.RiskScore != 2 {
		t.Errorf("expected score 2, got %d", result.RiskScore)
	}
	if !hasReason(result, "ip_risk:medium(+2)") {
		t.Errorf("expected ip_risk reason, got %v", result.Reasons)
	}
}

func TestEvaluate_EmailRiskNewDomain_Adds2(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.EmailRisk = domain.RiskNewDomain

	result := e.Evaluate(tx)

	if !hasReason(result, "email_risk:new_domain(+2)") {
		t.Errorf("expected email_risk reason, got %v", result.Reasons)
	}
}

func TestEvaluate_UnknownCategoricalValue_NoReason(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.DeviceRisk = "mystery"

	result := e.Evaluate(tx)

	if result.RiskScore != 0 || len(result.Reasons) != 0 {
		t.Errorf("unmapped value must contribute nothing, got %d %v", result.RiskScore, result.Reasons)
	}
}

func TestEvaluate_CategoricalRisks_Stack(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.IPRisk = domain.RiskMedium    // +2
	tx.EmailRisk = domain.RiskHigh   // +3
	tx.DeviceRisk = domain.RiskHigh  // +4

	result := e.Evaluate(tx)

	if result.RiskScore != 9 {
		t.Errorf("expected score 9, got %d", result.RiskScore)
	}
	want := []string{"ip_risk:medium(+2)", "email_risk:high(+3)", "device_fingerprint_risk:high(+4)"}
	if !reflect.DeepEqual(result.Reasons, want) {
		t.Errorf("expected reasons in field order %v, got %v", want, result.Reasons)
	}
}

// ─── Reputation ───────────────────────────────────────────────────────────────

func TestEvaluate_TrustedReputation_NegativeDelta(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.UserReputation = domain.RepTrusted

	result := e.Evaluate(tx)

	if result.RiskScore != -2 {
		t.Errorf("expected score -2, got %d", result.RiskScore)
	}
	if !hasReason(result, "user_reputation:trusted(-2)") {
		t.Errorf("expected signed reputation reason, got %v", result.Reasons)
	}
}

func TestEvaluate_HighRiskReputation_Adds4(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.UserReputation = domain.RepHighRisk

	result := e.Evaluate(tx)

	if !hasReason(result, "user_reputation:high_risk(+4)") {
		t.Errorf("expected reputation reason, got %v", result.Reasons)
	}
	if result.Decision != domain.DecisionInReview {
		t.Errorf("score 4 must map to IN_REVIEW, got %s", result.Decision)
	}
}

func TestEvaluate_NewReputation_ZeroWeight_NoReason(t *testing.T) {
	e := newEngine()
	result := e.Evaluate(baseTx())

	if hasReasonPrefix(result, "user_reputation") {
		t.Errorf("zero-weight reputation must emit no reason, got %v", result.Reasons)
	}
}

// ─── Night hour boundaries ────────────────────────────────────────────────────

func TestEvaluate_NightHourBoundaries(t *testing.T) {
	e := newEngine()

	night := []int{22, 23, 0, 5}
	for _, hour := range night {
		tx := baseTx()
		tx.Hour = hour
		if result := e.Evaluate(tx); !hasReasonPrefix(result, "night_hour") {
			t.Errorf("hour %d must count as night, got %v", hour, result.Reasons)
		}
	}

	day := []int{6, 12, 21}
	for _, hour := range day {
		tx := baseTx()
		tx.Hour = hour
		if result := e.Evaluate(tx); hasReasonPrefix(result, "night_hour") {
			t.Errorf("hour %d must not count as night, got %v", hour, result.Reasons)
		}
	}
}

func TestEvaluate_NightHour_ReasonIncludesHour(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.Hour = 23

	result := e.Evaluate(tx)

	if !hasReason(result, "night_hour:23(+1)") {
		t.Errorf("expected night_hour:23(+1), got %v", result.Reasons)
	}
}

// ─── Geo mismatch ─────────────────────────────────────────────────────────────

func TestEvaluate_GeoMismatch_Adds2(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.BINCountry = "US"
	tx.IPCountry = "MX"

	result := e.Evaluate(tx)

	if !hasReason(result, "geo_mismatch:US!=MX(+2)") {
		t.Errorf("expected geo_mismatch:US!=MX(+2), got %v", result.Reasons)
	}
	if result.RiskScore != 2 {
		t.Errorf("expected score 2, got %d", result.RiskScore)
	}
	if result.Decision != domain.DecisionAccepted {
		t.Errorf("score 2 is below review_at=4, expected ACCEPTED, got %s", result.Decision)
	}
}

func TestEvaluate_GeoMismatch_MissingCountry_DoesNotFire(t *testing.T) {
	e := newEngine()

	tx := baseTx()
	tx.BINCountry = ""
	tx.IPCountry = "MX"
	if result := e.Evaluate(tx); hasReasonPrefix(result, "geo_mismatch") {
		t.Errorf("empty bin_country must not fire geo_mismatch, got %v", result.Reasons)
	}

	tx = baseTx()
	tx.BINCountry = "US"
	tx.IPCountry = ""
	if result := e.Evaluate(tx); hasReasonPrefix(result, "geo_mismatch") {
		t.Errorf("empty ip_country must not fire geo_mismatch, got %v", result.Reasons)
	}
}

// ─── High amount ──────────────────────────────────────────────────────────────

func TestEvaluate_AmountAtThreshold_Fires(t *testing.T) {
	// The comparison is >=, so an amount exactly at the threshold counts.
	e := newEngine()
	tx := baseTx()
	tx.AmountMXN = 2500
	tx.ProductType = "digital"

	result := e.Evaluate(tx)

	if !hasReason(result, "high_amount:digital:2500(+2)") {
		t.Errorf("amount == threshold must fire, got %v", result.Reasons)
	}
}

func TestEvaluate_AmountJustBelowThreshold_DoesNotFire(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.AmountMXN = 2499.99
	tx.ProductType = "digital"

	result := e.Evaluate(tx)

	if hasReasonPrefix(result, "high_amount") {
		t.Errorf("amount below threshold must not fire, got %v", result.Reasons)
	}
}

func TestEvaluate_UnknownProductType_UsesDefaultThreshold(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.ProductType = "giftcard" // not in the table; _default is 4000
	tx.AmountMXN = 3999

	if result := e.Evaluate(tx); hasReasonPrefix(result, "high_amount") {
		t.Errorf("3999 is below the 4000 default threshold, got %v", result.Reasons)
	}

	tx.AmountMXN = 4000
	if result := e.Evaluate(tx); !hasReasonPrefix(result, "high_amount") {
		t.Errorf("4000 must fire against the default threshold, got %v", result.Reasons)
	}
}

func TestEvaluate_NewUserHighAmount_BonusNestsInsideHighAmount(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.AmountMXN = 2500
	tx.ProductType = "digital"
	tx.UserReputation = domain.RepNew

	result := e.Evaluate(tx)

	if result.RiskScore != 4 {
		t.Errorf("expected high_amount +2 and new_user bonus +2, got %d", result.RiskScore)
	}
	if result.Decision != domain.DecisionInReview {
		t.Errorf("score 4 must map to IN_REVIEW, got %s", result.Decision)
	}
	if !hasReason(result, "new_user_high_amount(+2)") {
		t.Errorf("expected new_user_high_amount reason, got %v", result.Reasons)
	}
}

func TestEvaluate_NewUserBonus_OnlyWhenHighAmountFired(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.UserReputation = domain.RepNew
	tx.AmountMXN = 100 // well below every threshold

	result := e.Evaluate(tx)

	if hasReasonPrefix(result, "new_user_high_amount") {
		t.Errorf("bonus must not fire without high_amount, got %v", result.Reasons)
	}
}

func TestEvaluate_NewUserBonus_NotForRecurrentUsers(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.UserReputation = domain.RepRecurrent
	tx.AmountMXN = 2500
	tx.ProductType = "digital"

	result := e.Evaluate(tx)

	if hasReasonPrefix(result, "new_user_high_amount") {
		t.Errorf("bonus is for new users only, got %v", result.Reasons)
	}
}

// ─── Latency ──────────────────────────────────────────────────────────────────

func TestEvaluate_LatencyAtThreshold_Fires(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.LatencyMS = 2500

	result := e.Evaluate(tx)

	if !hasReason(result, "latency_extreme:2500ms(+2)") {
		t.Errorf("latency == threshold must fire, got %v", result.Reasons)
	}
}

func TestEvaluate_LatencyBelowThreshold_DoesNotFire(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.LatencyMS = 2499

	result := e.Evaluate(tx)

	if hasReasonPrefix(result, "latency_extreme") {
		t.Errorf("latency below threshold must not fire, got %v", result.Reasons)
	}
}

// ─── Frequency buffer ─────────────────────────────────────────────────────────

func TestEvaluate_FrequencyBuffer_DiscountsPositiveScore(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.UserReputation = domain.RepRecurrent // -1
	tx.IPRisk = domain.RiskHigh             // +4
	tx.CustomerTxn30d = 3

	result := e.Evaluate(tx)

	// +4 -1 = 3 > 0 at the buffer stage, so the discount applies: 3 - 1 = 2.
	if result.RiskScore != 2 {
		t.Errorf("expected score 2 after buffer, got %d", result.RiskScore)
	}
	if !hasReason(result, "frequency_buffer(-1)") {
		t.Errorf("expected frequency_buffer reason, got %v", result.Reasons)
	}
}

func TestEvaluate_FrequencyBuffer_RequiresStrictlyPositiveScore(t *testing.T) {
	// Trusted (-2) cancels medium IP risk (+2) exactly; the buffer must see
	// the post-stage-4 score of 0 and not apply.
	e := newEngine()
	tx := baseTx()
	tx.UserReputation = domain.RepTrusted
	tx.CustomerTxn30d = 4
	tx.IPRisk = domain.RiskMedium

	result := e.Evaluate(tx)

	if result.RiskScore != 0 {
		t.Errorf("expected score 0, got %d", result.RiskScore)
	}
	if result.Decision != domain.DecisionAccepted {
		t.Errorf("expected ACCEPTED, got %s", result.Decision)
	}
	if hasReasonPrefix(result, "frequency_buffer") {
		t.Errorf("buffer must not apply at score 0, got %v", result.Reasons)
	}
}

func TestEvaluate_FrequencyBuffer_RequiresEstablishedReputation(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.UserReputation = domain.RepNew
	tx.CustomerTxn30d = 10
	tx.IPRisk = domain.RiskMedium

	result := e.Evaluate(tx)

	if hasReasonPrefix(result, "frequency_buffer") {
		t.Errorf("buffer is for recurrent/trusted users only, got %v", result.Reasons)
	}
}

func TestEvaluate_FrequencyBuffer_RequiresThreeRecentTxns(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.UserReputation = domain.RepTrusted
	tx.CustomerTxn30d = 2
	tx.IPRisk = domain.RiskHigh

	result := e.Evaluate(tx)

	if hasReasonPrefix(result, "frequency_buffer") {
		t.Errorf("buffer requires >= 3 transactions in 30d, got %v", result.Reasons)
	}
}

// ─── Negative scores ──────────────────────────────────────────────────────────

func TestEvaluate_NegativeScore_NotClamped(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.UserReputation = domain.RepTrusted // -2, nothing else fires

	result := e.Evaluate(tx)

	if result.RiskScore != -2 {
		t.Errorf("negative scores are preserved, expected -2, got %d", result.RiskScore)
	}
	if result.Decision != domain.DecisionAccepted {
		t.Errorf("expected ACCEPTED, got %s", result.Decision)
	}
}

// ─── Decision boundaries ──────────────────────────────────────────────────────

func TestEvaluate_ScoreAtReviewThreshold_InReview(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.IPRisk = domain.RiskMedium   // +2
	tx.DeviceRisk = domain.RiskMedium // +2 → exactly review_at=4

	result := e.Evaluate(tx)

	if result.RiskScore != 4 {
		t.Fatalf("expected score 4, got %d", result.RiskScore)
	}
	if result.Decision != domain.DecisionInReview {
		t.Errorf("score == review_at must be IN_REVIEW, got %s", result.Decision)
	}
}

func TestEvaluate_ScoreAtRejectThreshold_Rejected(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.EmailRisk = domain.RiskHigh    // +3
	tx.DeviceRisk = domain.RiskHigh   // +4
	tx.Hour = 23                      // +1
	tx.BINCountry = "US"
	tx.IPCountry = "MX"               // +2 → exactly reject_at=10

	result := e.Evaluate(tx)

	if result.RiskScore != 10 {
		t.Fatalf("expected score 10, got %d", result.RiskScore)
	}
	if result.Decision != domain.DecisionRejected {
		t.Errorf("score == reject_at must be REJECTED, got %s", result.Decision)
	}
}

func TestEvaluate_ScoreJustBelowReview_Accepted(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.EmailRisk = domain.RiskHigh // +3

	result := e.Evaluate(tx)

	if result.RiskScore != 3 || result.Decision != domain.DecisionAccepted {
		t.Errorf("score 3 must be ACCEPTED, got {%s, %d}", result.Decision, result.RiskScore)
	}
}

// ─── Determinism ──────────────────────────────────────────────────────────────

func TestEvaluate_IsDeterministic(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.IPRisk = domain.RiskMedium
	tx.Hour = 23
	tx.BINCountry = "US"
	tx.IPCountry = "MX"
	tx.AmountMXN = 2500
	tx.LatencyMS = 3000

	first := e.Evaluate(tx)
	for i := 0; i < 50; i++ {
		if got := e.Evaluate(tx); !reflect.DeepEqual(got, first) {
			t.Fatalf("evaluation %d diverged: %+v vs %+v", i, got, first)
		}
	}
}

// ─── Monotonicity ─────────────────────────────────────────────────────────────

func TestEvaluate_RaisingOneRiskFactor_NeverLowersScore(t *testing.T) {
	e := newEngine()

	steps := []func(*domain.Transaction){
		func(tx *domain.Transaction) { tx.IPRisk = domain.RiskMedium },
		func(tx *domain.Transaction) { tx.EmailRisk = domain.RiskHigh },
		func(tx *domain.Transaction) { tx.Hour = 23 },
		func(tx *domain.Transaction) { tx.IPCountry = "US" },
		func(tx *domain.Transaction) { tx.AmountMXN = 5000 },
		func(tx *domain.Transaction) { tx.LatencyMS = 9000 },
	}

	tx := baseTx()
	prev := e.Evaluate(tx).RiskScore
	for i, step := range steps {
		step(&tx)
		score := e.Evaluate(tx).RiskScore
		if score < prev {
			t.Fatalf("step %d lowered the score from %d to %d", i, prev, score)
		}
		prev = score
	}
}

// ─── Custom configuration ─────────────────────────────────────────────────────

func TestEvaluate_CustomWeights_AreRespected(t *testing.T) {
	cfg := config.Default()
	cfg.Weights.GeoMismatch = 7
	e := engine.New(cfg)

	tx := baseTx()
	tx.BINCountry = "US"
	tx.IPCountry = "MX"

	result := e.Evaluate(tx)

	if !hasReason(result, "geo_mismatch:US!=MX(+7)") {
		t.Errorf("expected custom weight in reason, got %v", result.Reasons)
	}
	if result.RiskScore != 7 {
		t.Errorf("expected score 7, got %d", result.RiskScore)
	}
}

func TestEvaluate_ZeroWeightRule_LeavesNoTrace(t *testing.T) {
	cfg := config.Default()
	cfg.Weights.NightHour = 0
	e := engine.New(cfg)

	tx := baseTx()
	tx.Hour = 23

	result := e.Evaluate(tx)

	if hasReasonPrefix(result, "night_hour") {
		t.Errorf("zero-weight rule must emit no reason, got %v", result.Reasons)
	}
}

// ─── Reason ordering ──────────────────────────────────────────────────────────

func TestEvaluate_ReasonsPreserveStageOrder(t *testing.T) {
	e := newEngine()
	tx := baseTx()
	tx.IPRisk = domain.RiskMedium       // stage 2
	tx.UserReputation = domain.RepHighRisk // stage 3
	tx.Hour = 23                        // stage 4a
	tx.BINCountry = "US"
	tx.IPCountry = "MX"                 // stage 4b
	tx.AmountMXN = 2500
	tx.ProductType = "digital"          // stage 4c
	tx.LatencyMS = 3000                 // stage 4d

	result := e.Evaluate(tx)

	want := []string{
		"ip_risk:medium(+2)",
		"user_reputation:high_risk(+4)",
		"night_hour:23(+1)",
		"geo_mismatch:US!=MX(+2)",
		"high_amount:digital:2500(+2)",
		"latency_extreme:3000ms(+2)",
	}
	if !reflect.DeepEqual(result.Reasons, want) {
		t.Errorf("reasons out of order:\n got %v\nwant %v", result.Reasons, want)
	}
	if result.ReasonString() != "ip_risk:medium(+2);user_reputation:high_risk(+4);night_hour:23(+1);geo_mismatch:US!=MX(+2);high_amount:digital:2500(+2);latency_extreme:3000ms(+2)" {
		t.Errorf("unexpected joined reasons: %q", result.ReasonString())
	}
}
