// Package config constructs the scoring configuration and server settings.
//
// The ScoringConfig is built exactly once at process startup — compiled-in
// defaults, then an optional YAML overlay, then environment overrides — and
// is treated as immutable from that point on. Evaluations share it read-only,
// so no locking is ever needed.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"meridia/risk-engine/internal/domain"
)

// ─── Scoring configuration ────────────────────────────────────────────────────

// ScoringConfig holds every tunable of the rule pipeline.
type ScoringConfig struct {
	// AmountThresholds maps product_type → high-amount threshold in MXN.
	// The "_default" key is required and covers unknown product types.
	AmountThresholds map[string]float64 `yaml:"amount_thresholds" json:"amount_thresholds"`

	LatencyMSExtreme    int `yaml:"latency_ms_extreme" json:"latency_ms_extreme"`
	ChargebackHardBlock int `yaml:"chargeback_hard_block" json:"chargeback_hard_block"`

	Weights  ScoreWeights       `yaml:"score_weights" json:"score_weights"`
	Decision DecisionThresholds `yaml:"score_to_decision" json:"score_to_decision"`
}

// ScoreWeights are the signed integer deltas each rule contributes when it
// fires. Per-category maps resolve a risk level to a delta; unmapped levels
// contribute nothing.
type ScoreWeights struct {
	IPRisk         map[string]int `yaml:"ip_risk" json:"ip_risk"`
	EmailRisk      map[string]int `yaml:"email_risk" json:"email_risk"`
	DeviceRisk     map[string]int `yaml:"device_fingerprint_risk" json:"device_fingerprint_risk"`
	UserReputation map[string]int `yaml:"user_reputation" json:"user_reputation"`

	NightHour         int `yaml:"night_hour" json:"night_hour"`
	GeoMismatch       int `yaml:"geo_mismatch" json:"geo_mismatch"`
	HighAmount        int `yaml:"high_amount" json:"high_amount"`
	LatencyExtreme    int `yaml:"latency_extreme" json:"latency_extreme"`
	NewUserHighAmount int `yaml:"new_user_high_amount" json:"new_user_high_amount"`
}

// DecisionThresholds maps the accumulated score to a verdict.
// RejectAt must be strictly greater than ReviewAt.
type DecisionThresholds struct {
	RejectAt int `yaml:"reject_at" json:"reject_at"`
	ReviewAt int `yaml:"review_at" json:"review_at"`
}

// Default returns the compiled-in scoring configuration.
// Each call returns a fresh value so tests can tweak a copy freely.
func Default() *ScoringConfig {
	return &ScoringConfig{
		AmountThresholds: map[string]float64{
			"digital":                 2500,
			"physical":                6000,
			"subscription":            1500,
			domain.DefaultProductType: 4000,
		},
		LatencyMSExtreme:    2500,
		ChargebackHardBlock: 2,
		Weights: ScoreWeights{
			IPRisk:     map[string]int{"low": 0, "medium": 2, "high": 4},
			EmailRisk:  map[string]int{"low": 0, "medium": 1, "high": 3, "new_domain": 2},
			DeviceRisk: map[string]int{"low": 0, "medium": 2, "high": 4},
			UserReputation: map[string]int{
				"trusted": -2, "recurrent": -1, "new": 0, "high_risk": 4,
			},
			NightHour:         1,
			GeoMismatch:       2,
			HighAmount:        2,
			LatencyExtreme:    2,
			NewUserHighAmount: 2,
		},
		Decision: DecisionThresholds{RejectAt: 10, ReviewAt: 4},
	}
}

// LoadScoring builds the scoring configuration: defaults, an optional YAML
// overlay from path (ignored when path is empty or the file does not exist),
// then the REJECT_AT / REVIEW_AT environment overrides.
//
// Override values that fail to parse are discarded and the compiled-in
// default kept — a misconfigured environment must never crash the process.
func LoadScoring(path string) (*ScoringConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read scoring config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse scoring config: %w", err)
			}
		}
	}

	cfg.Decision.RejectAt = envIntOr("REJECT_AT", cfg.Decision.RejectAt)
	cfg.Decision.ReviewAt = envIntOr("REVIEW_AT", cfg.Decision.ReviewAt)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on configurations that would make the decision table
// nonsensical. A reject threshold at or below the review threshold would
// make REJECTED unreachable or invert decisions.
func (c *ScoringConfig) Validate() error {
	if c.Decision.RejectAt <= c.Decision.ReviewAt {
		return fmt.Errorf("score_to_decision: reject_at (%d) must be greater than review_at (%d)",
			c.Decision.RejectAt, c.Decision.ReviewAt)
	}
	if _, ok := c.AmountThresholds[domain.DefaultProductType]; !ok {
		return fmt.Errorf("amount_thresholds: %q fallback entry is required", domain.DefaultProductType)
	}
	return nil
}

// AmountThreshold resolves the high-amount threshold for a product type,
// falling back to the "_default" entry for unknown types.
func (c *ScoringConfig) AmountThreshold(productType string) float64 {
	if t, ok := c.AmountThresholds[productType]; ok {
		return t
	}
	return c.AmountThresholds[domain.DefaultProductType]
}

// ─── Server settings ──────────────────────────────────────────────────────────

// Server holds the settings of the outer adapters (HTTP server, batch
// workers, review-alert webhook). Read from the environment; a .env file is
// loaded first when present for local development.
type Server struct {
	Port       int
	LogLevel   string
	Workers    int    // batch evaluation parallelism
	WebhookURL string // optional; fires on REJECTED decisions when set
}

const (
	defaultPort     = 8080
	defaultLogLevel = "info"
	defaultWorkers  = 4
)

// LoadServer reads server settings from the environment.
func LoadServer() Server {
	_ = godotenv.Load()

	return Server{
		Port:       envIntOr("PORT", defaultPort),
		LogLevel:   envOr("LOG_LEVEL", defaultLogLevel),
		Workers:    envIntOr("RISK_WORKERS", defaultWorkers),
		WebhookURL: os.Getenv("REVIEW_WEBHOOK_URL"),
	}
}

// SlogLevel maps the configured level name onto a slog.Level.
func (s Server) SlogLevel() slog.Level {
	switch s.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
