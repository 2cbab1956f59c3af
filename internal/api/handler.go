package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"meridia/risk-engine/internal/batch"
	"meridia/risk-engine/internal/domain"
	"meridia/risk-engine/internal/engine"
	"meridia/risk-engine/internal/metrics"
	"meridia/risk-engine/internal/store"
	"meridia/risk-engine/internal/webhook"
)

// Handler holds the dependencies shared across all HTTP handlers.
type Handler struct {
	engine   *engine.Engine
	runner   *batch.Runner
	store    *store.Store
	notifier *webhook.Notifier
}

// NewHandler creates a Handler wired to the given dependencies.
func NewHandler(e *engine.Engine, r *batch.Runner, s *store.Store, n *webhook.Notifier) *Handler {
	return &Handler{engine: e, runner: r, store: s, notifier: n}
}

// ─── POST /api/v1/decisions ───────────────────────────────────────────────────

// EvaluateTransaction accepts one flat transaction record, evaluates it, and
// returns the decision synchronously.
//
// The record is deliberately schemaless on the wire: unknown fields are
// ignored and missing fields fall back to their low-risk defaults, matching
// the engine's fail-open contract. The only rejected input is a body that
// is not a JSON object.
func (h *Handler) EvaluateTransaction(w http.ResponseWriter, r *http.Request) {
	var values map[string]any
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		badRequest(w, "INVALID_JSON", "request body must be a JSON object")
		return
	}

	rec := h.evaluate(domain.RecordFromValues(values))
	h.store.Save(rec)
	h.notifier.NotifyAsync(rec)

	created(w, rec)
}

// ─── POST /api/v1/decisions/batch ─────────────────────────────────────────────

// EvaluateBatch evaluates an array of records in parallel and returns the
// decisions in input order, with a per-verdict summary.
// Batch decisions are not stored or alerted; the batch surface is for bulk
// scoring, mirroring the CSV runner.
func (h *Handler) EvaluateBatch(w http.ResponseWriter, r *http.Request) {
	var values []map[string]any
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		badRequest(w, "INVALID_JSON", "request body must be a JSON array of objects")
		return
	}

	records := make([]domain.Record, len(values))
	for i, v := range values {
		records[i] = domain.RecordFromValues(v)
	}

	results, summary, err := h.runner.Run(r.Context(), records)
	if err != nil {
		// The only failure mode is caller-side cancellation.
		badRequest(w, "CANCELLED", err.Error())
		return
	}

	for _, res := range results {
		metrics.ObserveDecision(res.Decision, res.RiskScore, isHardBlock(res))
	}

	ok(w, map[string]any{"summary": summary, "results": results})
}

// ─── GET /api/v1/decisions/{id} ───────────────────────────────────────────────

// GetDecision retrieves a previously issued decision by its ID.
func (h *Handler) GetDecision(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, exists := h.store.Get(id)
	if !exists {
		notFound(w, fmt.Sprintf("decision '%s' not found", id))
		return
	}
	ok(w, rec)
}

// ─── GET /api/v1/config ───────────────────────────────────────────────────────

// GetConfig returns the active scoring configuration.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	ok(w, h.engine.Config())
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func (h *Handler) evaluate(record domain.Record) *domain.DecisionRecord {
	result := h.engine.Evaluate(domain.ParseRecord(record))
	metrics.ObserveDecision(result.Decision, result.RiskScore, isHardBlock(result))

	return &domain.DecisionRecord{
		ID:          uuid.NewString(),
		Transaction: record,
		Decision:    result.Decision,
		RiskScore:   result.RiskScore,
		Reasons:     result.ReasonString(),
		EvaluatedAt: time.Now().UTC(),
	}
}

func isHardBlock(res domain.DecisionResult) bool {
	return res.RiskScore == domain.HardBlockScore && res.Decision == domain.DecisionRejected
}
