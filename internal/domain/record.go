package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is a flat field-name → value mapping as delivered by a record
// source (one CSV row, one JSON object). Values are untyped strings;
// ParseRecord performs all coercion.
type Record map[string]string

// RecordFromValues converts a decoded JSON object into a Record.
// JSON numbers arrive as float64 and are rendered without a trailing
// ".0" so integer fields still parse.
func RecordFromValues(values map[string]any) Record {
	rec := make(Record, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case nil:
			// absent — let the default apply
		case string:
			rec[k] = val
		case float64:
			rec[k] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			rec[k] = fmt.Sprint(val)
		}
	}
	return rec
}

// ParseRecord coerces a flat record into a Transaction.
//
// It never fails: missing, empty, or unparseable fields resolve to the
// documented low-risk defaults. Categorical values are lowercased and
// country codes uppercased here so the evaluator only ever sees
// normalized input. This permissiveness is a deliberate fail-open
// contract — malformed records degrade toward the lowest-risk reading.
func ParseRecord(rec Record) Transaction {
	return Transaction{
		ChargebackCount: intField(rec, "chargeback_count", 0),
		IPRisk:          enumField(rec, "ip_risk", RiskLow),
		EmailRisk:       enumField(rec, "email_risk", RiskLow),
		DeviceRisk:      enumField(rec, "device_fingerprint_risk", RiskLow),
		UserReputation:  enumField(rec, "user_reputation", RepNew),
		Hour:            intField(rec, "hour", 12),
		BINCountry:      countryField(rec, "bin_country"),
		IPCountry:       countryField(rec, "ip_country"),
		AmountMXN:       floatField(rec, "amount_mxn", 0.0),
		ProductType:     enumField(rec, "product_type", DefaultProductType),
		LatencyMS:       intField(rec, "latency_ms", 0),
		CustomerTxn30d:  intField(rec, "customer_txn_30d", 0),
	}
}

func intField(rec Record, key string, def int) int {
	raw, ok := rec[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return n
}

func floatField(rec Record, key string, def float64) float64 {
	raw, ok := rec[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return def
	}
	return f
}

// enumField lowercases categorical values; unknown values are kept as-is
// (lowercased) and resolve to a zero weight at lookup time.
func enumField(rec Record, key, def string) string {
	raw, ok := rec[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return def
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// countryField uppercases country codes. Comparisons elsewhere rely on
// this asymmetry: enums are lowercase, countries uppercase.
func countryField(rec Record, key string) string {
	return strings.ToUpper(strings.TrimSpace(rec[key]))
}
