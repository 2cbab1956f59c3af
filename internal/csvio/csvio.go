// Package csvio adapts CSV files to the record source and result sink
// boundaries of the decision engine.
//
// The reader hands out flat header-keyed records; it performs no
// validation beyond shape, because field coercion and defaulting belong to
// the domain layer. The writer reproduces the input columns byte-for-byte
// in their original order and appends the three decision columns, so the
// output file stays column-compatible with the input.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"

	"meridia/risk-engine/internal/domain"
)

// Decision columns appended to every output row.
const (
	ColDecision  = "decision"
	ColRiskScore = "risk_score"
	ColReasons   = "reasons"
)

// ReadTransactions reads a transactions CSV into ordered records.
// The first row is the header; missing cells in short rows are treated as
// absent fields.
func ReadTransactions(r io.Reader) (header []string, records []domain.Record, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // tolerate ragged rows; absent cells default downstream

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read transactions csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("read transactions csv: empty file, header row required")
	}

	header = rows[0]
	records = make([]domain.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(domain.Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return header, records, nil
}

// WriteDecisions writes the original records with the decision columns
// appended, one output row per input record in input order.
// records and results must be the same length.
func WriteDecisions(w io.Writer, header []string, records []domain.Record, results []domain.DecisionResult) error {
	if len(records) != len(results) {
		return fmt.Errorf("write decisions csv: %d records but %d results", len(records), len(results))
	}

	cw := csv.NewWriter(w)

	outHeader := append(append([]string{}, header...), ColDecision, ColRiskScore, ColReasons)
	if err := cw.Write(outHeader); err != nil {
		return fmt.Errorf("write decisions csv: %w", err)
	}

	row := make([]string, len(outHeader))
	for i, rec := range records {
		for j, col := range header {
			row[j] = rec[col]
		}
		row[len(header)] = results[i].Decision
		row[len(header)+1] = fmt.Sprintf("%d", results[i].RiskScore)
		row[len(header)+2] = results[i].ReasonString()
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write decisions csv: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write decisions csv: %w", err)
	}
	return nil
}
